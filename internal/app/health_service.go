package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"healthsync/internal/domain"
)

// BatchResult summarises a best-effort batch ingestion: per-item failures are
// accumulated here, never thrown.
type BatchResult struct {
	Succeeded int      `json:"success"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// HealthService is the aggregation engine: the sole write path into the
// canonical stores, plus read-time summary computation.
type HealthService struct {
	catalog  *CatalogService
	readings domain.ReadingRepository
	sleep    domain.SleepRepository
	activity domain.ActivityRepository
	log      *zap.Logger
}

// NewHealthService creates a HealthService backed by the given repositories.
func NewHealthService(catalog *CatalogService, readings domain.ReadingRepository, sleep domain.SleepRepository, activity domain.ActivityRepository, log *zap.Logger) *HealthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &HealthService{
		catalog:  catalog,
		readings: readings,
		sleep:    sleep,
		activity: activity,
		log:      log,
	}
}

// RecordReading validates and stores one point reading. The metric must exist
// in the catalog and the value must fall inside its valid range. Re-recording
// an identical observation returns the already stored row.
func (s *HealthService) RecordReading(ctx context.Context, r domain.Reading) (*domain.Reading, error) {
	if r.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if r.DeviceID == uuid.Nil {
		return nil, fmt.Errorf("%w: device id is required", domain.ErrValidation)
	}
	if r.RecordedAt.IsZero() {
		return nil, fmt.Errorf("%w: recordedAt is required", domain.ErrValidation)
	}

	mt, err := s.catalog.Resolve(ctx, r.Metric)
	if err != nil {
		return nil, err
	}
	if r.Value < mt.MinValue || r.Value > mt.MaxValue {
		return nil, fmt.Errorf("%w: %s value %g outside range [%g, %g]",
			domain.ErrValidation, mt.Name, r.Value, mt.MinValue, mt.MaxValue)
	}

	r.MetricTypeID = mt.ID
	r.RecordedAt = r.RecordedAt.UTC()
	return s.readings.InsertReading(ctx, r)
}

// RecordReadingBatch applies RecordReading to each item independently. A
// rejected item is counted and reported without aborting the batch; only a
// storage failure stops processing and is returned as the error.
func (s *HealthService) RecordReadingBatch(ctx context.Context, readings []domain.Reading) (BatchResult, error) {
	var res BatchResult
	for i, r := range readings {
		_, err := s.RecordReading(ctx, r)
		if err == nil {
			res.Succeeded++
			continue
		}
		if rejected(err) {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("reading %d: %v", i, err))
			continue
		}
		return res, err
	}
	return res, nil
}

// RecordSleepSession validates and stores one sleep interval. Total duration
// is always recomputed from start and end, floored to whole minutes.
func (s *HealthService) RecordSleepSession(ctx context.Context, ev domain.SleepEvent) (*domain.SleepSession, error) {
	if ev.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if ev.DeviceID == uuid.Nil {
		return nil, fmt.Errorf("%w: device id is required", domain.ErrValidation)
	}
	if !ev.End.After(ev.Start) {
		return nil, fmt.Errorf("%w: sleep end must be after start", domain.ErrValidation)
	}
	if ev.QualityScore != nil && (*ev.QualityScore < 0 || *ev.QualityScore > 100) {
		return nil, fmt.Errorf("%w: quality score %d outside [0, 100]", domain.ErrValidation, *ev.QualityScore)
	}

	sess := domain.SleepSession{
		UserID:               ev.UserID,
		DeviceID:             ev.DeviceID,
		Start:                ev.Start.UTC(),
		End:                  ev.End.UTC(),
		TotalDurationMinutes: domain.DurationMinutes(ev.Start, ev.End),
		Stages:               ev.Stages,
		QualityScore:         ev.QualityScore,
	}
	return s.sleep.InsertSleepSession(ctx, sess)
}

// UpsertDailyActivity merges an activity delta into the user's record for the
// day. Fields present in the delta overwrite the stored values; absent fields
// are preserved. The date is normalized to day granularity before lookup.
func (s *HealthService) UpsertDailyActivity(ctx context.Context, delta domain.ActivityDelta) (*domain.DailyActivity, error) {
	if delta.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if delta.DeviceID == uuid.Nil {
		return nil, fmt.Errorf("%w: device id is required", domain.ErrValidation)
	}
	day, err := domain.NormalizeDay(delta.Date)
	if err != nil {
		return nil, err
	}

	current, err := s.activity.GetDailyActivity(ctx, delta.UserID, day)
	if err != nil {
		return nil, err
	}

	rec := domain.DailyActivity{UserID: delta.UserID, Date: day}
	if current != nil {
		rec = *current
	}
	rec.DeviceID = delta.DeviceID
	if delta.Steps != nil {
		rec.Steps = *delta.Steps
	}
	if delta.DistanceMeters != nil {
		rec.DistanceMeters = *delta.DistanceMeters
	}
	if delta.CaloriesBurned != nil {
		rec.CaloriesBurned = *delta.CaloriesBurned
	}
	if delta.ActiveMinutes != nil {
		rec.ActiveMinutes = *delta.ActiveMinutes
	}
	if delta.FloorsClimbed != nil {
		rec.FloorsClimbed = *delta.FloorsClimbed
	}
	if delta.ScreenTimeMinutes != nil {
		rec.ScreenTimeMinutes = *delta.ScreenTimeMinutes
	}
	return s.activity.UpsertDailyActivity(ctx, rec)
}

// ApplySourceBatch feeds one adapter's normalized batch through the engine,
// isolating item failures the same way RecordReadingBatch does.
func (s *HealthService) ApplySourceBatch(ctx context.Context, b domain.SourceBatch) (BatchResult, error) {
	res, err := s.RecordReadingBatch(ctx, b.Readings)
	if err != nil {
		return res, err
	}
	for i, ev := range b.Sleep {
		_, err := s.RecordSleepSession(ctx, ev)
		if err == nil {
			res.Succeeded++
			continue
		}
		if rejected(err) {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("sleep %d: %v", i, err))
			continue
		}
		return res, err
	}
	for i, d := range b.Activity {
		_, err := s.UpsertDailyActivity(ctx, d)
		if err == nil {
			res.Succeeded++
			continue
		}
		if rejected(err) {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("activity %d: %v", i, err))
			continue
		}
		return res, err
	}
	return res, nil
}

// ComputeSummary derives the per-day health summary for the user: the day's
// activity rollup, sleep sessions overlapping the day, and the mean of
// in-range heart-rate readings. Missing inputs yield zero/null fields.
func (s *HealthService) ComputeSummary(ctx context.Context, userID uuid.UUID, date string) (*domain.HealthSummary, error) {
	day, err := domain.NormalizeDay(date)
	if err != nil {
		return nil, err
	}
	start, end, err := domain.DayBounds(day)
	if err != nil {
		return nil, err
	}

	sum := &domain.HealthSummary{Date: day}

	act, err := s.activity.GetDailyActivity(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if act != nil {
		sum.Steps = act.Steps
		sum.DistanceMeters = act.DistanceMeters
		sum.CaloriesBurned = act.CaloriesBurned
		sum.ScreenTimeMinutes = act.ScreenTimeMinutes
	}

	sessions, err := s.sleep.SleepSessionsForRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	if len(sessions) > 0 {
		hours := float64(sessions[0].TotalDurationMinutes) / 60
		sum.SleepDurationHours = &hours
		sum.SleepQuality = sessions[0].QualityScore
	}

	hr, err := s.catalog.Resolve(ctx, domain.MetricHeartRate)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownMetric) {
			return sum, nil
		}
		return nil, err
	}
	avg, err := s.readings.AvgReadingForRange(ctx, userID, hr.ID, start, end)
	if err != nil {
		return nil, err
	}
	sum.AvgHeartRate = avg
	return sum, nil
}

// ReadingsForRange returns the user's readings recorded within [start, end).
func (s *HealthService) ReadingsForRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Reading, error) {
	return s.readings.ReadingsForRange(ctx, userID, start, end)
}

// SleepHistory returns the user's sleep sessions from the last days days.
func (s *HealthService) SleepHistory(ctx context.Context, userID uuid.UUID, days int) ([]domain.SleepSession, error) {
	return s.sleep.SleepHistory(ctx, userID, days)
}

// ActivityHistory returns the user's daily activity records from the last
// days days.
func (s *HealthService) ActivityHistory(ctx context.Context, userID uuid.UUID, days int) ([]domain.DailyActivity, error) {
	return s.activity.ActivityHistory(ctx, userID, days)
}

// rejected reports whether err is a per-item rejection rather than a storage
// failure.
func rejected(err error) bool {
	return errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrUnknownMetric)
}
