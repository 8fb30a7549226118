package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SourceBatch is the normalized output of one ingestion adapter fetch.
// Adapters never write storage; the aggregation engine is the sole write path.
type SourceBatch struct {
	Readings []Reading       `json:"readings,omitempty"`
	Sleep    []SleepEvent    `json:"sleep,omitempty"`
	Activity []ActivityDelta `json:"activity,omitempty"`
}

// Empty reports whether the batch carries no records at all.
func (b SourceBatch) Empty() bool {
	return len(b.Readings) == 0 && len(b.Sleep) == 0 && len(b.Activity) == 0
}

// Len returns the total record count across all record kinds.
func (b SourceBatch) Len() int {
	return len(b.Readings) + len(b.Sleep) + len(b.Activity)
}

// SyncWindow bounds one adapter fetch in absolute time.
type SyncWindow struct {
	Start time.Time
	End   time.Time
}

// SourceAdapter translates a vendor feed's native payloads into canonical
// record shapes. A Fetch error means the source was unavailable; the
// orchestrator absorbs it without aborting sibling adapters.
type SourceAdapter interface {
	Source() string
	DeviceClass() DeviceClass
	Fetch(ctx context.Context, userID, deviceID uuid.UUID, w SyncWindow) (SourceBatch, error)
}
