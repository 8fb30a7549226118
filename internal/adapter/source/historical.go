package source

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"healthsync/internal/domain"
)

// PointSample is an aggregator-native point observation. Timestamps are
// RFC 3339 strings in the source's serialization.
type PointSample struct {
	StartDate string
	Value     float64
}

// SleepSpan is an aggregator-native sleep interval: a start instant plus a
// duration in hours.
type SleepSpan struct {
	Start         string
	DurationHours float64
}

// StepBucket is an aggregator-native per-day step bucket. Distances arrive in
// kilometres.
type StepBucket struct {
	Date       string
	Steps      int
	DistanceKm float64
	Calories   float64
}

// FitnessStore is the typed data feed over a historical fitness aggregator
// (periodic pull). Used both for one-time backfill and steady-state sync.
type FitnessStore interface {
	HeartRateHistory(ctx context.Context, start, end time.Time) ([]PointSample, error)
	SleepSpans(ctx context.Context, start, end time.Time) ([]SleepSpan, error)
	DailyStepBuckets(ctx context.Context, start, end time.Time) ([]StepBucket, error)
}

// HistoricalAdapter normalizes historical-pull payloads: RFC 3339 timestamps
// to UTC instants, kilometres to meters, duration-hours spans to start/end
// intervals.
type HistoricalAdapter struct {
	store FitnessStore
}

// NewHistoricalAdapter creates a HistoricalAdapter over the given store.
func NewHistoricalAdapter(store FitnessStore) *HistoricalAdapter {
	return &HistoricalAdapter{store: store}
}

var _ domain.SourceAdapter = (*HistoricalAdapter)(nil)

// Source returns the adapter's provenance tag.
func (a *HistoricalAdapter) Source() string { return SourceHistoricalPull }

// DeviceClass returns the device class this adapter's records belong to.
func (a *HistoricalAdapter) DeviceClass() domain.DeviceClass { return domain.DevicePhone }

// Fetch pulls the window from the store and normalizes everything it returns.
// A malformed timestamp anywhere in the payload fails the whole fetch: the
// orchestrator treats that as the source being unavailable.
func (a *HistoricalAdapter) Fetch(ctx context.Context, userID, deviceID uuid.UUID, w domain.SyncWindow) (domain.SourceBatch, error) {
	var b domain.SourceBatch

	points, err := a.store.HeartRateHistory(ctx, w.Start, w.End)
	if err != nil {
		return domain.SourceBatch{}, fmt.Errorf("historical heart rate: %w", err)
	}
	for _, p := range points {
		at, err := time.Parse(time.RFC3339, p.StartDate)
		if err != nil {
			return domain.SourceBatch{}, fmt.Errorf("historical heart rate timestamp %q: %w", p.StartDate, err)
		}
		b.Readings = append(b.Readings, domain.Reading{
			UserID:     userID,
			DeviceID:   deviceID,
			Metric:     domain.MetricHeartRate,
			Value:      p.Value,
			RecordedAt: at.UTC(),
			Metadata:   map[string]any{domain.MetaSource: SourceHistoricalPull},
		})
	}

	spans, err := a.store.SleepSpans(ctx, w.Start, w.End)
	if err != nil {
		return domain.SourceBatch{}, fmt.Errorf("historical sleep: %w", err)
	}
	for _, span := range spans {
		start, err := time.Parse(time.RFC3339, span.Start)
		if err != nil {
			return domain.SourceBatch{}, fmt.Errorf("historical sleep timestamp %q: %w", span.Start, err)
		}
		end := start.Add(time.Duration(span.DurationHours * float64(time.Hour)))
		b.Sleep = append(b.Sleep, domain.SleepEvent{
			UserID:   userID,
			DeviceID: deviceID,
			Start:    start.UTC(),
			End:      end.UTC(),
			Source:   SourceHistoricalPull,
		})
	}

	buckets, err := a.store.DailyStepBuckets(ctx, w.Start, w.End)
	if err != nil {
		return domain.SourceBatch{}, fmt.Errorf("historical steps: %w", err)
	}
	for _, bucket := range buckets {
		day, err := domain.NormalizeDay(bucket.Date)
		if err != nil {
			return domain.SourceBatch{}, fmt.Errorf("historical step bucket: %w", err)
		}
		steps := bucket.Steps
		distance := domain.ConvertDistanceToMeters(bucket.DistanceKm, "km")
		calories := int(bucket.Calories + 0.5)
		b.Activity = append(b.Activity, domain.ActivityDelta{
			UserID:         userID,
			DeviceID:       deviceID,
			Date:           day,
			Steps:          &steps,
			DistanceMeters: &distance,
			CaloriesBurned: &calories,
			Source:         SourceHistoricalPull,
		})
	}

	return b, nil
}
