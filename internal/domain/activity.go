package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityDelta is the normalized inbound shape for one day's activity
// contribution. Nil fields were not reported by the source and leave the
// stored value for that field untouched.
type ActivityDelta struct {
	UserID            uuid.UUID `json:"userId"`
	DeviceID          uuid.UUID `json:"deviceId"`
	Date              string    `json:"date"`
	Steps             *int      `json:"steps,omitempty"`
	DistanceMeters    *float64  `json:"distanceMeters,omitempty"`
	CaloriesBurned    *int      `json:"caloriesBurned,omitempty"`
	ActiveMinutes     *int      `json:"activeMinutes,omitempty"`
	FloorsClimbed     *int      `json:"floorsClimbed,omitempty"`
	ScreenTimeMinutes *int      `json:"screenTimeMinutes,omitempty"`
	Source            string    `json:"source,omitempty"`
}

// DailyActivity is the stored per-day activity rollup. One logical record per
// (user, date); Date is a calendar day, time-of-day already stripped.
type DailyActivity struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"userId"`
	DeviceID          uuid.UUID `json:"deviceId"`
	Date              string    `json:"activityDate"`
	Steps             int       `json:"steps"`
	DistanceMeters    float64   `json:"distanceMeters"`
	CaloriesBurned    int       `json:"caloriesBurned"`
	ActiveMinutes     int       `json:"activeMinutes"`
	FloorsClimbed     int       `json:"floorsClimbed"`
	ScreenTimeMinutes int       `json:"screenTimeMinutes"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ActivityRepository is the port for daily activity persistence. Upsert is
// keyed on (user, date).
type ActivityRepository interface {
	GetDailyActivity(ctx context.Context, userID uuid.UUID, day string) (*DailyActivity, error)
	UpsertDailyActivity(ctx context.Context, a DailyActivity) (*DailyActivity, error)
	ActivityHistory(ctx context.Context, userID uuid.UUID, days int) ([]DailyActivity, error)
	CountActivitySince(ctx context.Context, userID, deviceID uuid.UUID, since time.Time) (int, error)
	LastActivityAt(ctx context.Context, userID, deviceID uuid.UUID) (*time.Time, error)
}
