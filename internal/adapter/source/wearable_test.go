package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"healthsync/internal/domain"
)

type fakeWearableFeed struct {
	heartRate func(ctx context.Context, start, end time.Time) ([]HeartRateSample, error)
	sleep     func(ctx context.Context, start, end time.Time) ([]SleepStageEvent, error)
	steps     func(ctx context.Context, start, end time.Time) ([]StepSample, error)
}

func (f *fakeWearableFeed) HeartRateSamples(ctx context.Context, start, end time.Time) ([]HeartRateSample, error) {
	if f.heartRate == nil {
		return nil, nil
	}
	return f.heartRate(ctx, start, end)
}

func (f *fakeWearableFeed) SleepStages(ctx context.Context, start, end time.Time) ([]SleepStageEvent, error) {
	if f.sleep == nil {
		return nil, nil
	}
	return f.sleep(ctx, start, end)
}

func (f *fakeWearableFeed) StepCounts(ctx context.Context, start, end time.Time) ([]StepSample, error) {
	if f.steps == nil {
		return nil, nil
	}
	return f.steps(ctx, start, end)
}

func testWindow() domain.SyncWindow {
	end := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	return domain.SyncWindow{Start: end.Add(-time.Hour), End: end}
}

func TestWearableFetchHeartRate(t *testing.T) {
	base := time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC)
	feed := &fakeWearableFeed{
		heartRate: func(ctx context.Context, start, end time.Time) ([]HeartRateSample, error) {
			return []HeartRateSample{
				{Millis: base.UnixMilli(), BPM: 62, Accuracy: 3},
				{Millis: base.Add(time.Minute).UnixMilli(), BPM: 64, Accuracy: 2},
			}, nil
		},
	}
	a := NewWearableAdapter(feed)

	userID, deviceID := uuid.New(), uuid.New()
	batch, err := a.Fetch(context.Background(), userID, deviceID, testWindow())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(batch.Readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(batch.Readings))
	}
	r := batch.Readings[0]
	if r.Metric != domain.MetricHeartRate {
		t.Errorf("metric = %q, want %q", r.Metric, domain.MetricHeartRate)
	}
	if !r.RecordedAt.Equal(base) {
		t.Errorf("recordedAt = %v, want %v", r.RecordedAt, base)
	}
	if r.RecordedAt.Location() != time.UTC {
		t.Errorf("recordedAt location = %v, want UTC", r.RecordedAt.Location())
	}
	if r.Metadata[domain.MetaSource] != SourceWearablePush {
		t.Errorf("source = %v, want %q", r.Metadata[domain.MetaSource], SourceWearablePush)
	}
	if r.Metadata[domain.MetaAccuracy] != 3 {
		t.Errorf("accuracy = %v, want 3", r.Metadata[domain.MetaAccuracy])
	}
}

func TestWearableFetchFeedError(t *testing.T) {
	boom := errors.New("bluetooth dropped")
	feed := &fakeWearableFeed{
		heartRate: func(ctx context.Context, start, end time.Time) ([]HeartRateSample, error) {
			return nil, boom
		},
	}
	a := NewWearableAdapter(feed)

	_, err := a.Fetch(context.Background(), uuid.New(), uuid.New(), testWindow())
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped feed error", err)
	}
}

func TestGroupSleepStages(t *testing.T) {
	base := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	ms := func(d time.Duration) int64 { return base.Add(d).UnixMilli() }

	stages := []SleepStageEvent{
		// out of order on purpose
		{StartMillis: ms(40 * time.Minute), EndMillis: ms(100 * time.Minute), Stage: "deep"},
		{StartMillis: ms(0), EndMillis: ms(40 * time.Minute), Stage: "light"},
		{StartMillis: ms(100 * time.Minute), EndMillis: ms(110 * time.Minute), Stage: "awake"},
		// second session, 8h later
		{StartMillis: ms(9 * time.Hour), EndMillis: ms(9*time.Hour + 20*time.Minute), Stage: "rem"},
	}

	sessions := groupSleepStages(uuid.New(), uuid.New(), stages)
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}

	first := sessions[0]
	if !first.Start.Equal(base) {
		t.Errorf("start = %v, want %v", first.Start, base)
	}
	if want := base.Add(110 * time.Minute); !first.End.Equal(want) {
		t.Errorf("end = %v, want %v", first.End, want)
	}
	if first.Stages.LightMinutes != 40 || first.Stages.DeepMinutes != 60 || first.Stages.AwakeMinutes != 10 {
		t.Errorf("stages = %+v, want light=40 deep=60 awake=10", first.Stages)
	}

	second := sessions[1]
	if second.Stages.RemMinutes != 20 {
		t.Errorf("rem = %d, want 20", second.Stages.RemMinutes)
	}
}

func TestGroupSleepStagesWithinGap(t *testing.T) {
	base := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	ms := func(d time.Duration) int64 { return base.Add(d).UnixMilli() }

	// 25 minute gap between intervals stays one session.
	stages := []SleepStageEvent{
		{StartMillis: ms(0), EndMillis: ms(30 * time.Minute), Stage: "light"},
		{StartMillis: ms(55 * time.Minute), EndMillis: ms(90 * time.Minute), Stage: "deep"},
	}
	sessions := groupSleepStages(uuid.New(), uuid.New(), stages)
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
}

func TestRollUpSteps(t *testing.T) {
	day1 := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

	samples := []StepSample{
		{Millis: day1.UnixMilli(), Count: 500, DistanceMeters: 400, Calories: 20.4},
		{Millis: day1.Add(time.Hour).UnixMilli(), Count: 700, DistanceMeters: 560, Calories: 28.2},
		{Millis: day2.UnixMilli(), Count: 100, DistanceMeters: 80, Calories: 4},
	}

	deltas := rollUpSteps(uuid.New(), uuid.New(), samples)
	if len(deltas) != 2 {
		t.Fatalf("got %d deltas, want 2", len(deltas))
	}
	d := deltas[0]
	if d.Date != "2024-03-10" {
		t.Errorf("date = %q, want 2024-03-10", d.Date)
	}
	if *d.Steps != 1200 {
		t.Errorf("steps = %d, want 1200", *d.Steps)
	}
	if *d.DistanceMeters != 960 {
		t.Errorf("distance = %v, want 960", *d.DistanceMeters)
	}
	if *d.CaloriesBurned != 49 {
		t.Errorf("calories = %d, want 49", *d.CaloriesBurned)
	}
	if d.ScreenTimeMinutes != nil {
		t.Errorf("screen time should not be set by step roll-up")
	}
}
