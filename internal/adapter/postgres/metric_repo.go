package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"healthsync/internal/domain"
)

var _ domain.MetricTypeRepository = (*DB)(nil)

// GetMetricTypeByName returns the catalog entry for name, or nil if none
// exists.
func (d *DB) GetMetricTypeByName(ctx context.Context, name string) (*domain.MetricType, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT id, name, display_name, unit, COALESCE(description, ''), min_value, max_value, created_at FROM health_metric_types WHERE name=$1;",
		name,
	)
	var mt domain.MetricType
	if err := row.Scan(&mt.ID, &mt.Name, &mt.DisplayName, &mt.Unit, &mt.Description, &mt.MinValue, &mt.MaxValue, &mt.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &mt, nil
}

// ListMetricTypes returns all catalog entries ordered by name.
func (d *DB) ListMetricTypes(ctx context.Context) ([]domain.MetricType, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, name, display_name, unit, COALESCE(description, ''), min_value, max_value, created_at FROM health_metric_types ORDER BY name;")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MetricType
	for rows.Next() {
		var mt domain.MetricType
		if err := rows.Scan(&mt.ID, &mt.Name, &mt.DisplayName, &mt.Unit, &mt.Description, &mt.MinValue, &mt.MaxValue, &mt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, mt)
	}
	return out, rows.Err()
}

// CreateMetricType inserts a new catalog entry.
func (d *DB) CreateMetricType(ctx context.Context, mt domain.MetricType) (*domain.MetricType, error) {
	if mt.ID == uuid.Nil {
		mt.ID = uuid.New()
	}
	if mt.CreatedAt.IsZero() {
		mt.CreatedAt = time.Now().UTC()
	}
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO health_metric_types(id, name, display_name, unit, description, min_value, max_value, created_at) VALUES($1, $2, $3, $4, $5, $6, $7, $8);",
		mt.ID, mt.Name, mt.DisplayName, mt.Unit, mt.Description, mt.MinValue, mt.MaxValue, mt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &mt, nil
}
