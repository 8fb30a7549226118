// Package source contains the ingestion adapters: source-specific translators
// from vendor feed payloads into the canonical record shapes. Adapters only
// produce in-memory records; all storage writes go through the aggregation
// engine.
package source

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"healthsync/internal/domain"
)

// Source discriminators stamped on produced records for provenance.
const (
	SourceWearablePush   = "wearable_push"
	SourceHistoricalPull = "historical_pull"
	SourceScreenTime     = "screen_time"
	SourceManualBatch    = "manual_batch"
)

// Stage events separated by more than this gap belong to different sleep
// sessions.
const sleepSessionGap = 30 * time.Minute

// HeartRateSample is a wearable-native heart-rate observation. Timestamps are
// epoch milliseconds.
type HeartRateSample struct {
	Millis   int64
	BPM      float64
	Accuracy int
}

// SleepStageEvent is a wearable-native sleep stage interval.
type SleepStageEvent struct {
	StartMillis int64
	EndMillis   int64
	Stage       string // "deep", "light", "rem", "awake"
}

// StepSample is a wearable-native step counter observation.
type StepSample struct {
	Millis         int64
	Count          int
	DistanceMeters float64
	Calories       float64
}

// WearableFeed is the typed data feed exposed by a wearable push SDK binding.
type WearableFeed interface {
	HeartRateSamples(ctx context.Context, start, end time.Time) ([]HeartRateSample, error)
	SleepStages(ctx context.Context, start, end time.Time) ([]SleepStageEvent, error)
	StepCounts(ctx context.Context, start, end time.Time) ([]StepSample, error)
}

// WearableAdapter normalizes wearable push payloads: epoch-millis timestamps
// become UTC instants, stage events are grouped into sleep sessions, and step
// samples roll up into per-day activity deltas.
type WearableAdapter struct {
	feed WearableFeed
}

// NewWearableAdapter creates a WearableAdapter over the given feed.
func NewWearableAdapter(feed WearableFeed) *WearableAdapter {
	return &WearableAdapter{feed: feed}
}

var _ domain.SourceAdapter = (*WearableAdapter)(nil)

// Source returns the adapter's provenance tag.
func (a *WearableAdapter) Source() string { return SourceWearablePush }

// DeviceClass returns the device class this adapter's records belong to.
func (a *WearableAdapter) DeviceClass() domain.DeviceClass { return domain.DeviceWearable }

// Fetch pulls the window from the feed and normalizes everything it returns.
func (a *WearableAdapter) Fetch(ctx context.Context, userID, deviceID uuid.UUID, w domain.SyncWindow) (domain.SourceBatch, error) {
	var b domain.SourceBatch

	samples, err := a.feed.HeartRateSamples(ctx, w.Start, w.End)
	if err != nil {
		return domain.SourceBatch{}, fmt.Errorf("wearable heart rate: %w", err)
	}
	for _, hr := range samples {
		b.Readings = append(b.Readings, domain.Reading{
			UserID:     userID,
			DeviceID:   deviceID,
			Metric:     domain.MetricHeartRate,
			Value:      hr.BPM,
			RecordedAt: domain.MillisToTime(hr.Millis),
			Metadata: map[string]any{
				domain.MetaSource:   SourceWearablePush,
				domain.MetaAccuracy: hr.Accuracy,
			},
		})
	}

	stages, err := a.feed.SleepStages(ctx, w.Start, w.End)
	if err != nil {
		return domain.SourceBatch{}, fmt.Errorf("wearable sleep: %w", err)
	}
	b.Sleep = groupSleepStages(userID, deviceID, stages)

	steps, err := a.feed.StepCounts(ctx, w.Start, w.End)
	if err != nil {
		return domain.SourceBatch{}, fmt.Errorf("wearable steps: %w", err)
	}
	b.Activity = rollUpSteps(userID, deviceID, steps)

	return b, nil
}

// groupSleepStages folds contiguous stage intervals into sleep sessions with
// per-stage minute totals. A gap longer than sleepSessionGap starts a new
// session.
func groupSleepStages(userID, deviceID uuid.UUID, stages []SleepStageEvent) []domain.SleepEvent {
	if len(stages) == 0 {
		return nil
	}
	sorted := make([]SleepStageEvent, len(stages))
	copy(sorted, stages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartMillis < sorted[j].StartMillis })

	var sessions []domain.SleepEvent
	cur := newSleepEvent(userID, deviceID, sorted[0])
	addStage(&cur, sorted[0])

	for _, ev := range sorted[1:] {
		start := domain.MillisToTime(ev.StartMillis)
		if start.Sub(cur.End) > sleepSessionGap {
			sessions = append(sessions, cur)
			cur = newSleepEvent(userID, deviceID, ev)
		}
		addStage(&cur, ev)
	}
	return append(sessions, cur)
}

func newSleepEvent(userID, deviceID uuid.UUID, first SleepStageEvent) domain.SleepEvent {
	return domain.SleepEvent{
		UserID:   userID,
		DeviceID: deviceID,
		Start:    domain.MillisToTime(first.StartMillis),
		End:      domain.MillisToTime(first.StartMillis),
		Source:   SourceWearablePush,
	}
}

func addStage(ev *domain.SleepEvent, stage SleepStageEvent) {
	start := domain.MillisToTime(stage.StartMillis)
	end := domain.MillisToTime(stage.EndMillis)
	if end.After(ev.End) {
		ev.End = end
	}
	minutes := domain.DurationMinutes(start, end)
	switch stage.Stage {
	case "deep":
		ev.Stages.DeepMinutes += minutes
	case "light":
		ev.Stages.LightMinutes += minutes
	case "rem":
		ev.Stages.RemMinutes += minutes
	case "awake":
		ev.Stages.AwakeMinutes += minutes
	}
}

// rollUpSteps sums step samples into one activity delta per calendar day.
func rollUpSteps(userID, deviceID uuid.UUID, samples []StepSample) []domain.ActivityDelta {
	if len(samples) == 0 {
		return nil
	}
	type totals struct {
		steps    int
		distance float64
		calories float64
	}
	byDay := make(map[string]*totals)
	for _, s := range samples {
		day := domain.DayOf(domain.MillisToTime(s.Millis))
		t, ok := byDay[day]
		if !ok {
			t = &totals{}
			byDay[day] = t
		}
		t.steps += s.Count
		t.distance += s.DistanceMeters
		t.calories += s.Calories
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	deltas := make([]domain.ActivityDelta, 0, len(days))
	for _, day := range days {
		t := byDay[day]
		steps := t.steps
		distance := t.distance
		calories := int(t.calories + 0.5)
		deltas = append(deltas, domain.ActivityDelta{
			UserID:         userID,
			DeviceID:       deviceID,
			Date:           day,
			Steps:          &steps,
			DistanceMeters: &distance,
			CaloriesBurned: &calories,
			Source:         SourceWearablePush,
		})
	}
	return deltas
}
