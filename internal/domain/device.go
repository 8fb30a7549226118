package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeviceClass groups data-source devices by how they sync.
type DeviceClass string

const (
	DeviceWearable DeviceClass = "wearable"
	DevicePhone    DeviceClass = "phone"
	DeviceOther    DeviceClass = "other"
)

// Valid reports whether c is a known device class.
func (c DeviceClass) Valid() bool {
	switch c {
	case DeviceWearable, DevicePhone, DeviceOther:
		return true
	}
	return false
}

// Device is a registered data-source device for one user. LastSync is nil
// until the first successful sync cycle touches it.
type Device struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"userId"`
	Name         string      `json:"deviceName"`
	Class        DeviceClass `json:"deviceType"`
	Model        string      `json:"deviceModel,omitempty"`
	Manufacturer string      `json:"manufacturer,omitempty"`
	LastSync     *time.Time  `json:"lastSync,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// DeviceRepository is the port for device persistence. The pipeline never
// deletes devices; unregistering is owned elsewhere.
type DeviceRepository interface {
	ListDevices(ctx context.Context, userID uuid.UUID) ([]Device, error)
	GetDevice(ctx context.Context, id uuid.UUID) (*Device, error)
	CreateDevice(ctx context.Context, d Device) (*Device, error)
	UpdateDeviceLastSync(ctx context.Context, id uuid.UUID, t time.Time) error
}
