package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SleepStages holds per-stage minute totals for one sleep session.
type SleepStages struct {
	DeepMinutes  int `json:"deep"`
	LightMinutes int `json:"light"`
	RemMinutes   int `json:"rem"`
	AwakeMinutes int `json:"awake"`
}

// SleepEvent is the normalized inbound shape for one detected sleep interval.
type SleepEvent struct {
	UserID       uuid.UUID   `json:"userId"`
	DeviceID     uuid.UUID   `json:"deviceId"`
	Start        time.Time   `json:"start"`
	End          time.Time   `json:"end"`
	Stages       SleepStages `json:"stages"`
	QualityScore *int        `json:"qualityScore,omitempty"`
	Source       string      `json:"source,omitempty"`
}

// SleepSession is a stored sleep interval. TotalDurationMinutes is always
// derived from Start and End, never trusted from the source.
type SleepSession struct {
	ID                   uuid.UUID   `json:"id"`
	UserID               uuid.UUID   `json:"userId"`
	DeviceID             uuid.UUID   `json:"deviceId"`
	Start                time.Time   `json:"sleepStart"`
	End                  time.Time   `json:"sleepEnd"`
	TotalDurationMinutes int         `json:"totalDurationMinutes"`
	Stages               SleepStages `json:"stages"`
	QualityScore         *int        `json:"sleepQualityScore,omitempty"`
	CreatedAt            time.Time   `json:"createdAt"`
}

// SleepRepository is the port for sleep session persistence.
type SleepRepository interface {
	InsertSleepSession(ctx context.Context, s SleepSession) (*SleepSession, error)
	SleepSessionsForRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]SleepSession, error)
	SleepHistory(ctx context.Context, userID uuid.UUID, days int) ([]SleepSession, error)
	CountSleepSessionsSince(ctx context.Context, userID, deviceID uuid.UUID, since time.Time) (int, error)
	LastSleepAt(ctx context.Context, userID, deviceID uuid.UUID) (*time.Time, error)
}
