package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"healthsync/internal/domain"
)

var _ domain.ReadingRepository = (*DB)(nil)

func encodeMetadata(meta map[string]any) (sql.NullString, error) {
	if len(meta) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeMetadata(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(raw.String), &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// InsertReading stores one reading. Re-inserting the same observation, keyed
// on (user, device, metric type, recorded-at), returns the already stored row
// instead of duplicating it.
func (d *DB) InsertReading(ctx context.Context, r domain.Reading) (*domain.Reading, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	meta, err := encodeMetadata(r.Metadata)
	if err != nil {
		return nil, err
	}

	err = d.sql.QueryRowContext(ctx,
		`INSERT INTO health_data(id, user_id, device_id, metric_type_id, value, recorded_at, metadata, created_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, device_id, metric_type_id, recorded_at) DO NOTHING
		 RETURNING id, created_at;`,
		r.ID, r.UserID, r.DeviceID, r.MetricTypeID, r.Value, r.RecordedAt.UTC(), meta, r.CreatedAt,
	).Scan(&r.ID, &r.CreatedAt)
	if err == nil {
		return &r, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Conflict: fetch the stored observation.
	row := d.sql.QueryRowContext(ctx,
		`SELECT id, value, metadata, created_at FROM health_data
		 WHERE user_id=$1 AND device_id=$2 AND metric_type_id=$3 AND recorded_at=$4;`,
		r.UserID, r.DeviceID, r.MetricTypeID, r.RecordedAt.UTC(),
	)
	var rawMeta sql.NullString
	if err := row.Scan(&r.ID, &r.Value, &rawMeta, &r.CreatedAt); err != nil {
		return nil, err
	}
	if r.Metadata, err = decodeMetadata(rawMeta); err != nil {
		return nil, err
	}
	return &r, nil
}

// ReadingsForRange returns a user's readings with recorded-at in [start, end),
// joined with the catalog for metric names, oldest first.
func (d *DB) ReadingsForRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Reading, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT h.id, h.user_id, h.device_id, h.metric_type_id, m.name, h.value, h.recorded_at, h.metadata, h.created_at
		 FROM health_data h
		 JOIN health_metric_types m ON m.id = h.metric_type_id
		 WHERE h.user_id=$1 AND h.recorded_at >= $2 AND h.recorded_at < $3
		 ORDER BY h.recorded_at;`,
		userID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reading
	for rows.Next() {
		var (
			r       domain.Reading
			rawMeta sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.DeviceID, &r.MetricTypeID, &r.Metric, &r.Value, &r.RecordedAt, &rawMeta, &r.CreatedAt); err != nil {
			return nil, err
		}
		if r.Metadata, err = decodeMetadata(rawMeta); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AvgReadingForRange returns the average value of one metric over [start,
// end), or nil if the user has no readings of that metric in the range.
func (d *DB) AvgReadingForRange(ctx context.Context, userID, metricTypeID uuid.UUID, start, end time.Time) (*float64, error) {
	var avg sql.NullFloat64
	err := d.sql.QueryRowContext(ctx,
		"SELECT AVG(value) FROM health_data WHERE user_id=$1 AND metric_type_id=$2 AND recorded_at >= $3 AND recorded_at < $4;",
		userID, metricTypeID, start.UTC(), end.UTC(),
	).Scan(&avg)
	if err != nil {
		return nil, err
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

// CountReadingsSince counts one device's readings of a metric since a cutoff.
func (d *DB) CountReadingsSince(ctx context.Context, userID, deviceID, metricTypeID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := d.sql.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM health_data WHERE user_id=$1 AND device_id=$2 AND metric_type_id=$3 AND recorded_at >= $4;",
		userID, deviceID, metricTypeID, since.UTC(),
	).Scan(&n)
	return n, err
}

// LastReadingAt returns the newest recorded-at for one device and metric, or
// nil if none exists.
func (d *DB) LastReadingAt(ctx context.Context, userID, deviceID, metricTypeID uuid.UUID) (*time.Time, error) {
	var at sql.NullTime
	err := d.sql.QueryRowContext(ctx,
		"SELECT MAX(recorded_at) FROM health_data WHERE user_id=$1 AND device_id=$2 AND metric_type_id=$3;",
		userID, deviceID, metricTypeID,
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
