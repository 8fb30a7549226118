package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"healthsync/internal/domain"
)

var _ domain.SleepRepository = (*DB)(nil)

const sleepColumns = "id, user_id, device_id, sleep_start, sleep_end, total_duration_minutes, deep_sleep_minutes, light_sleep_minutes, rem_sleep_minutes, awake_minutes, sleep_quality_score, created_at"

func scanSleepSession(row interface{ Scan(...any) error }) (*domain.SleepSession, error) {
	var (
		s       domain.SleepSession
		quality sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.UserID, &s.DeviceID, &s.Start, &s.End, &s.TotalDurationMinutes,
		&s.Stages.DeepMinutes, &s.Stages.LightMinutes, &s.Stages.RemMinutes, &s.Stages.AwakeMinutes,
		&quality, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if quality.Valid {
		q := int(quality.Int64)
		s.QualityScore = &q
	}
	return &s, nil
}

// InsertSleepSession stores one sleep session.
func (d *DB) InsertSleepSession(ctx context.Context, s domain.SleepSession) (*domain.SleepSession, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO sleep_sessions(id, user_id, device_id, sleep_start, sleep_end, total_duration_minutes, deep_sleep_minutes, light_sleep_minutes, rem_sleep_minutes, awake_minutes, sleep_quality_score, created_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`,
		s.ID, s.UserID, s.DeviceID, s.Start.UTC(), s.End.UTC(), s.TotalDurationMinutes,
		s.Stages.DeepMinutes, s.Stages.LightMinutes, s.Stages.RemMinutes, s.Stages.AwakeMinutes,
		s.QualityScore, s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SleepSessionsForRange returns a user's sleep sessions starting in [start,
// end), oldest first.
func (d *DB) SleepSessionsForRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.SleepSession, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+sleepColumns+" FROM sleep_sessions WHERE user_id=$1 AND sleep_start >= $2 AND sleep_start < $3 ORDER BY sleep_start;",
		userID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SleepSession
	for rows.Next() {
		s, err := scanSleepSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// SleepHistory returns a user's sleep sessions over the last N days, newest
// first.
func (d *DB) SleepHistory(ctx context.Context, userID uuid.UUID, days int) ([]domain.SleepSession, error) {
	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+sleepColumns+" FROM sleep_sessions WHERE user_id=$1 AND sleep_start >= $2 ORDER BY sleep_start DESC;",
		userID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SleepSession
	for rows.Next() {
		s, err := scanSleepSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// CountSleepSessionsSince counts one device's sleep sessions since a cutoff.
func (d *DB) CountSleepSessionsSince(ctx context.Context, userID, deviceID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sleep_sessions WHERE user_id=$1 AND device_id=$2 AND sleep_start >= $3;",
		userID, deviceID, since.UTC(),
	).Scan(&n)
	return n, err
}

// LastSleepAt returns the newest sleep-session start for one device, or nil
// if none exists.
func (d *DB) LastSleepAt(ctx context.Context, userID, deviceID uuid.UUID) (*time.Time, error) {
	var at sql.NullTime
	err := d.sql.QueryRowContext(ctx,
		"SELECT MAX(sleep_start) FROM sleep_sessions WHERE user_id=$1 AND device_id=$2;",
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
