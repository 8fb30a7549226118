package source

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"healthsync/internal/domain"
)

// UsageSession is a tracker-native screen-time measurement for one day.
type UsageSession struct {
	Day            string
	DurationMillis int64
}

// ScreenTimeTracker is the typed data feed over the device screen-time
// tracker.
type ScreenTimeTracker interface {
	Usage(ctx context.Context, day string) (UsageSession, error)
}

// ScreenTimeAdapter folds the tracker's usage session into the day's activity
// delta, converting milliseconds to whole minutes.
type ScreenTimeAdapter struct {
	tracker ScreenTimeTracker
}

// NewScreenTimeAdapter creates a ScreenTimeAdapter over the given tracker.
func NewScreenTimeAdapter(tracker ScreenTimeTracker) *ScreenTimeAdapter {
	return &ScreenTimeAdapter{tracker: tracker}
}

var _ domain.SourceAdapter = (*ScreenTimeAdapter)(nil)

// Source returns the adapter's provenance tag.
func (a *ScreenTimeAdapter) Source() string { return SourceScreenTime }

// DeviceClass returns the device class this adapter's records belong to.
func (a *ScreenTimeAdapter) DeviceClass() domain.DeviceClass { return domain.DevicePhone }

// Fetch reads the usage session for the day the window ends in.
func (a *ScreenTimeAdapter) Fetch(ctx context.Context, userID, deviceID uuid.UUID, w domain.SyncWindow) (domain.SourceBatch, error) {
	day := domain.DayOf(w.End)
	usage, err := a.tracker.Usage(ctx, day)
	if err != nil {
		return domain.SourceBatch{}, fmt.Errorf("screen time: %w", err)
	}
	if usage.Day != "" {
		if day, err = domain.NormalizeDay(usage.Day); err != nil {
			return domain.SourceBatch{}, fmt.Errorf("screen time: %w", err)
		}
	}

	minutes := int(usage.DurationMillis / 60000)
	return domain.SourceBatch{
		Activity: []domain.ActivityDelta{{
			UserID:            userID,
			DeviceID:          deviceID,
			Date:              day,
			ScreenTimeMinutes: &minutes,
			Source:            SourceScreenTime,
		}},
	}, nil
}
