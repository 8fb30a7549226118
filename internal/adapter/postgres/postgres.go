// Package postgres implements the domain repository ports on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS devices (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			device_name TEXT NOT NULL,
			device_type TEXT NOT NULL CHECK(device_type IN ('wearable','phone','other')),
			device_model TEXT,
			manufacturer TEXT,
			last_sync TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_devices_user_id ON devices(user_id);",

		`CREATE TABLE IF NOT EXISTS health_metric_types (
			id UUID PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			display_name TEXT NOT NULL,
			unit TEXT NOT NULL,
			description TEXT,
			min_value DOUBLE PRECISION NOT NULL,
			max_value DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS health_data (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			device_id UUID NOT NULL REFERENCES devices(id),
			metric_type_id UUID NOT NULL REFERENCES health_metric_types(id),
			value NUMERIC NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			metadata TEXT,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_health_data_user_recorded ON health_data(user_id, recorded_at);",
		"CREATE INDEX IF NOT EXISTS idx_health_data_metric_type ON health_data(metric_type_id);",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_health_data_observation ON health_data(user_id, device_id, metric_type_id, recorded_at);",

		`CREATE TABLE IF NOT EXISTS sleep_sessions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			device_id UUID NOT NULL REFERENCES devices(id),
			sleep_start TIMESTAMPTZ NOT NULL,
			sleep_end TIMESTAMPTZ NOT NULL,
			total_duration_minutes INTEGER NOT NULL,
			deep_sleep_minutes INTEGER NOT NULL DEFAULT 0,
			light_sleep_minutes INTEGER NOT NULL DEFAULT 0,
			rem_sleep_minutes INTEGER NOT NULL DEFAULT 0,
			awake_minutes INTEGER NOT NULL DEFAULT 0,
			sleep_quality_score INTEGER,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_sleep_sessions_user_start ON sleep_sessions(user_id, sleep_start);",

		`CREATE TABLE IF NOT EXISTS daily_activity (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			device_id UUID NOT NULL REFERENCES devices(id),
			activity_date DATE NOT NULL,
			steps INTEGER NOT NULL DEFAULT 0,
			distance_meters DOUBLE PRECISION NOT NULL DEFAULT 0,
			calories_burned INTEGER NOT NULL DEFAULT 0,
			active_minutes INTEGER NOT NULL DEFAULT 0,
			floors_climbed INTEGER NOT NULL DEFAULT 0,
			screen_time_minutes INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE(user_id, activity_date)
		);`,
		"CREATE INDEX IF NOT EXISTS idx_daily_activity_user_date ON daily_activity(user_id, activity_date);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
