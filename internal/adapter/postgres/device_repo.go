package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"healthsync/internal/domain"
)

var _ domain.DeviceRepository = (*DB)(nil)

const deviceColumns = "id, user_id, device_name, device_type, COALESCE(device_model, ''), COALESCE(manufacturer, ''), last_sync, created_at"

func scanDevice(row interface{ Scan(...any) error }) (*domain.Device, error) {
	var (
		dev      domain.Device
		lastSync sql.NullTime
	)
	if err := row.Scan(&dev.ID, &dev.UserID, &dev.Name, &dev.Class, &dev.Model, &dev.Manufacturer, &lastSync, &dev.CreatedAt); err != nil {
		return nil, err
	}
	if lastSync.Valid {
		t := lastSync.Time.UTC()
		dev.LastSync = &t
	}
	return &dev, nil
}

// ListDevices returns all devices registered for a user, newest first.
func (d *DB) ListDevices(ctx context.Context, userID uuid.UUID) ([]domain.Device, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE user_id=$1 ORDER BY created_at DESC;", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Device
	for rows.Next() {
		dev, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *dev)
	}
	return out, rows.Err()
}

// GetDevice returns the device with the given ID, or nil if none exists.
func (d *DB) GetDevice(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE id=$1;", id)
	dev, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return dev, err
}

// CreateDevice inserts a new device registration.
func (d *DB) CreateDevice(ctx context.Context, dev domain.Device) (*domain.Device, error) {
	if dev.ID == uuid.Nil {
		dev.ID = uuid.New()
	}
	if dev.CreatedAt.IsZero() {
		dev.CreatedAt = time.Now().UTC()
	}
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO devices(id, user_id, device_name, device_type, device_model, manufacturer, last_sync, created_at) VALUES($1, $2, $3, $4, $5, $6, $7, $8);",
		dev.ID, dev.UserID, dev.Name, dev.Class, dev.Model, dev.Manufacturer, dev.LastSync, dev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &dev, nil
}

// UpdateDeviceLastSync sets a device's last-sync timestamp.
func (d *DB) UpdateDeviceLastSync(ctx context.Context, id uuid.UUID, t time.Time) error {
	res, err := d.sql.ExecContext(ctx,
		"UPDATE devices SET last_sync=$1 WHERE id=$2;", t.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrDeviceNotFound
	}
	return nil
}
