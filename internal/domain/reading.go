package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Metadata keys stamped on readings by ingestion adapters.
const (
	MetaSource   = "source"
	MetaAccuracy = "accuracy"
	MetaBatch    = "batch"
)

// Reading is a single timestamped numeric health metric observation.
// RecordedAt is the source's observation instant, distinct from CreatedAt.
// MetricTypeID is resolved from Metric against the catalog at ingestion time.
type Reading struct {
	ID           uuid.UUID      `json:"id"`
	UserID       uuid.UUID      `json:"userId"`
	DeviceID     uuid.UUID      `json:"deviceId"`
	Metric       string         `json:"metricName"`
	MetricTypeID uuid.UUID      `json:"-"`
	Value        float64        `json:"value"`
	RecordedAt   time.Time      `json:"recordedAt"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// ReadingRepository is the port for point-reading persistence. InsertReading
// is idempotent on (user, device, metric type, recorded-at): re-inserting the
// same observation returns the already stored row.
type ReadingRepository interface {
	InsertReading(ctx context.Context, r Reading) (*Reading, error)
	ReadingsForRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]Reading, error)
	AvgReadingForRange(ctx context.Context, userID, metricTypeID uuid.UUID, start, end time.Time) (*float64, error)
	CountReadingsSince(ctx context.Context, userID, deviceID, metricTypeID uuid.UUID, since time.Time) (int, error)
	LastReadingAt(ctx context.Context, userID, deviceID, metricTypeID uuid.UUID) (*time.Time, error)
}
