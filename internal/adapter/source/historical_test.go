package source

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"healthsync/internal/domain"
)

type fakeFitnessStore struct {
	heartRate func(ctx context.Context, start, end time.Time) ([]PointSample, error)
	sleep     func(ctx context.Context, start, end time.Time) ([]SleepSpan, error)
	steps     func(ctx context.Context, start, end time.Time) ([]StepBucket, error)
}

func (f *fakeFitnessStore) HeartRateHistory(ctx context.Context, start, end time.Time) ([]PointSample, error) {
	if f.heartRate == nil {
		return nil, nil
	}
	return f.heartRate(ctx, start, end)
}

func (f *fakeFitnessStore) SleepSpans(ctx context.Context, start, end time.Time) ([]SleepSpan, error) {
	if f.sleep == nil {
		return nil, nil
	}
	return f.sleep(ctx, start, end)
}

func (f *fakeFitnessStore) DailyStepBuckets(ctx context.Context, start, end time.Time) ([]StepBucket, error) {
	if f.steps == nil {
		return nil, nil
	}
	return f.steps(ctx, start, end)
}

func TestHistoricalFetchNormalizes(t *testing.T) {
	store := &fakeFitnessStore{
		heartRate: func(ctx context.Context, start, end time.Time) ([]PointSample, error) {
			return []PointSample{{StartDate: "2024-03-10T08:30:00+05:00", Value: 71}}, nil
		},
		sleep: func(ctx context.Context, start, end time.Time) ([]SleepSpan, error) {
			return []SleepSpan{{Start: "2024-03-09T23:00:00Z", DurationHours: 7.5}}, nil
		},
		steps: func(ctx context.Context, start, end time.Time) ([]StepBucket, error) {
			return []StepBucket{{Date: "2024-03-10", Steps: 8000, DistanceKm: 6.2, Calories: 310.6}}, nil
		},
	}
	a := NewHistoricalAdapter(store)

	batch, err := a.Fetch(context.Background(), uuid.New(), uuid.New(), testWindow())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(batch.Readings) != 1 {
		t.Fatalf("got %d readings, want 1", len(batch.Readings))
	}
	r := batch.Readings[0]
	if want := time.Date(2024, 3, 10, 3, 30, 0, 0, time.UTC); !r.RecordedAt.Equal(want) {
		t.Errorf("recordedAt = %v, want %v", r.RecordedAt, want)
	}
	if r.Metadata[domain.MetaSource] != SourceHistoricalPull {
		t.Errorf("source = %v, want %q", r.Metadata[domain.MetaSource], SourceHistoricalPull)
	}

	if len(batch.Sleep) != 1 {
		t.Fatalf("got %d sleep events, want 1", len(batch.Sleep))
	}
	s := batch.Sleep[0]
	if want := time.Date(2024, 3, 10, 6, 30, 0, 0, time.UTC); !s.End.Equal(want) {
		t.Errorf("sleep end = %v, want %v", s.End, want)
	}

	if len(batch.Activity) != 1 {
		t.Fatalf("got %d activity deltas, want 1", len(batch.Activity))
	}
	d := batch.Activity[0]
	if *d.DistanceMeters != 6200 {
		t.Errorf("distance = %v, want 6200", *d.DistanceMeters)
	}
	if *d.CaloriesBurned != 311 {
		t.Errorf("calories = %d, want 311", *d.CaloriesBurned)
	}
	if d.Source != SourceHistoricalPull {
		t.Errorf("source = %q, want %q", d.Source, SourceHistoricalPull)
	}
}

func TestHistoricalFetchBadTimestamp(t *testing.T) {
	store := &fakeFitnessStore{
		heartRate: func(ctx context.Context, start, end time.Time) ([]PointSample, error) {
			return []PointSample{{StartDate: "yesterday-ish", Value: 70}}, nil
		},
	}
	a := NewHistoricalAdapter(store)

	if _, err := a.Fetch(context.Background(), uuid.New(), uuid.New(), testWindow()); err == nil {
		t.Fatal("expected error for malformed timestamp")
	}
}

type fakeScreenTimeTracker struct {
	usage func(ctx context.Context, day string) (UsageSession, error)
}

func (f *fakeScreenTimeTracker) Usage(ctx context.Context, day string) (UsageSession, error) {
	return f.usage(ctx, day)
}

func TestScreenTimeFetch(t *testing.T) {
	tracker := &fakeScreenTimeTracker{
		usage: func(ctx context.Context, day string) (UsageSession, error) {
			if day != "2024-03-10" {
				t.Errorf("asked for day %q, want 2024-03-10", day)
			}
			return UsageSession{Day: day, DurationMillis: 125 * 60 * 1000}, nil
		},
	}
	a := NewScreenTimeAdapter(tracker)

	batch, err := a.Fetch(context.Background(), uuid.New(), uuid.New(), testWindow())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(batch.Activity) != 1 {
		t.Fatalf("got %d activity deltas, want 1", len(batch.Activity))
	}
	d := batch.Activity[0]
	if d.Date != "2024-03-10" {
		t.Errorf("date = %q, want 2024-03-10", d.Date)
	}
	if *d.ScreenTimeMinutes != 125 {
		t.Errorf("screen time = %d, want 125", *d.ScreenTimeMinutes)
	}
	if d.Steps != nil {
		t.Errorf("steps should not be set by screen time")
	}
}
