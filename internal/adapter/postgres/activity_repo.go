package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"healthsync/internal/domain"
)

var _ domain.ActivityRepository = (*DB)(nil)

const activityColumns = "id, user_id, device_id, to_char(activity_date, 'YYYY-MM-DD'), steps, distance_meters, calories_burned, active_minutes, floors_climbed, screen_time_minutes, created_at, updated_at"

func scanDailyActivity(row interface{ Scan(...any) error }) (*domain.DailyActivity, error) {
	var a domain.DailyActivity
	err := row.Scan(&a.ID, &a.UserID, &a.DeviceID, &a.Date, &a.Steps, &a.DistanceMeters,
		&a.CaloriesBurned, &a.ActiveMinutes, &a.FloorsClimbed, &a.ScreenTimeMinutes,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetDailyActivity returns the activity record for (user, day), or nil if
// none exists.
func (d *DB) GetDailyActivity(ctx context.Context, userID uuid.UUID, day string) (*domain.DailyActivity, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+activityColumns+" FROM daily_activity WHERE user_id=$1 AND activity_date=$2;",
		userID, day,
	)
	a, err := scanDailyActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// UpsertDailyActivity writes the full record for (user, date), replacing
// field values on conflict. Field merging happens upstream; this layer stores
// what it is given.
func (d *DB) UpsertDailyActivity(ctx context.Context, a domain.DailyActivity) (*domain.DailyActivity, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	row := d.sql.QueryRowContext(ctx,
		`INSERT INTO daily_activity(id, user_id, device_id, activity_date, steps, distance_meters, calories_burned, active_minutes, floors_climbed, screen_time_minutes, created_at, updated_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (user_id, activity_date) DO UPDATE SET
			device_id = EXCLUDED.device_id,
			steps = EXCLUDED.steps,
			distance_meters = EXCLUDED.distance_meters,
			calories_burned = EXCLUDED.calories_burned,
			active_minutes = EXCLUDED.active_minutes,
			floors_climbed = EXCLUDED.floors_climbed,
			screen_time_minutes = EXCLUDED.screen_time_minutes,
			updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at;`,
		a.ID, a.UserID, a.DeviceID, a.Date, a.Steps, a.DistanceMeters, a.CaloriesBurned,
		a.ActiveMinutes, a.FloorsClimbed, a.ScreenTimeMinutes, a.CreatedAt, a.UpdatedAt,
	)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// ActivityHistory returns a user's daily activity over the last N days,
// newest first.
func (d *DB) ActivityHistory(ctx context.Context, userID uuid.UUID, days int) ([]domain.DailyActivity, error) {
	since := domain.DayOf(time.Now().UTC().AddDate(0, 0, -days))
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+activityColumns+" FROM daily_activity WHERE user_id=$1 AND activity_date >= $2 ORDER BY activity_date DESC;",
		userID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyActivity
	for rows.Next() {
		a, err := scanDailyActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// CountActivitySince counts one device's activity records updated since a
// cutoff.
func (d *DB) CountActivitySince(ctx context.Context, userID, deviceID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_activity WHERE user_id=$1 AND device_id=$2 AND updated_at >= $3;",
		userID, deviceID, since.UTC(),
	).Scan(&n)
	return n, err
}

// LastActivityAt returns the newest update instant for one device's activity
// records, or nil if none exists.
func (d *DB) LastActivityAt(ctx context.Context, userID, deviceID uuid.UUID) (*time.Time, error) {
	var at sql.NullTime
	err := d.sql.QueryRowContext(ctx,
		"SELECT MAX(updated_at) FROM daily_activity WHERE user_id=$1 AND device_id=$2;",
		userID, deviceID,
	).Scan(&at)
	if err != nil {
		return nil, err
	}
	if !at.Valid {
		return nil, nil
	}
	t := at.Time.UTC()
	return &t, nil
}
