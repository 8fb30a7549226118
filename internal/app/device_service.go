package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"healthsync/internal/domain"
)

// Expected data points per device per day, used for the completeness score.
const (
	expectedHeartRatePerDay = 1440
	expectedSleepPerDay     = 1
	expectedActivityPerDay  = 1
	completenessWindowDays  = 7
)

// DeviceService encapsulates device registration and sync-status use cases.
type DeviceService struct {
	devices  domain.DeviceRepository
	readings domain.ReadingRepository
	sleep    domain.SleepRepository
	activity domain.ActivityRepository
	catalog  *CatalogService
	log      *zap.Logger
}

// NewDeviceService creates a DeviceService backed by the given repositories.
func NewDeviceService(devices domain.DeviceRepository, readings domain.ReadingRepository, sleep domain.SleepRepository, activity domain.ActivityRepository, catalog *CatalogService, log *zap.Logger) *DeviceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DeviceService{
		devices:  devices,
		readings: readings,
		sleep:    sleep,
		activity: activity,
		catalog:  catalog,
		log:      log,
	}
}

// EnsureDevice returns the user's existing device of the given class, or
// registers one with placeholder model details if none exists.
func (s *DeviceService) EnsureDevice(ctx context.Context, userID uuid.UUID, class domain.DeviceClass) (*domain.Device, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if !class.Valid() {
		return nil, fmt.Errorf("%w: invalid device class %q", domain.ErrValidation, class)
	}

	existing, err := s.devices.ListDevices(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].Class == class {
			return &existing[i], nil
		}
	}

	name := "Wearable Device"
	if class == domain.DevicePhone {
		name = "Mobile Device"
	}
	created, err := s.devices.CreateDevice(ctx, domain.Device{
		UserID:       userID,
		Name:         name,
		Class:        class,
		Model:        "Unknown",
		Manufacturer: "Unknown",
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("registered device",
		zap.String("userId", userID.String()),
		zap.String("deviceId", created.ID.String()),
		zap.String("class", string(class)))
	return created, nil
}

// ListDevices returns all devices registered for the user.
func (s *DeviceService) ListDevices(ctx context.Context, userID uuid.UUID) ([]domain.Device, error) {
	return s.devices.ListDevices(ctx, userID)
}

// TouchLastSync advances the device's last-sync timestamp. The timestamp only
// moves forward: an earlier time than the stored value is a no-op.
func (s *DeviceService) TouchLastSync(ctx context.Context, deviceID uuid.UUID, t time.Time) error {
	d, err := s.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return err
	}
	if d == nil {
		return domain.ErrDeviceNotFound
	}
	if d.LastSync != nil && !t.After(*d.LastSync) {
		return nil
	}
	return s.devices.UpdateDeviceLastSync(ctx, deviceID, t.UTC())
}

// Status returns per-type last-sync timestamps, recent record counts, and a
// seven-day completeness score for one of the user's devices.
func (s *DeviceService) Status(ctx context.Context, userID, deviceID uuid.UUID) (*domain.DeviceStatus, error) {
	d, err := s.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if d == nil || d.UserID != userID {
		return nil, domain.ErrDeviceNotFound
	}

	hr, err := s.catalog.Resolve(ctx, domain.MetricHeartRate)
	if err != nil {
		return nil, err
	}

	since := time.Now().UTC().AddDate(0, 0, -completenessWindowDays)
	status := domain.DeviceStatus{Device: *d}

	if status.LastSync.HeartRate, err = s.readings.LastReadingAt(ctx, userID, deviceID, hr.ID); err != nil {
		return nil, err
	}
	if status.LastSync.Sleep, err = s.sleep.LastSleepAt(ctx, userID, deviceID); err != nil {
		return nil, err
	}
	if status.LastSync.Activity, err = s.activity.LastActivityAt(ctx, userID, deviceID); err != nil {
		return nil, err
	}

	if status.RecentCounts.HeartRate, err = s.readings.CountReadingsSince(ctx, userID, deviceID, hr.ID, since); err != nil {
		return nil, err
	}
	if status.RecentCounts.Sleep, err = s.sleep.CountSleepSessionsSince(ctx, userID, deviceID, since); err != nil {
		return nil, err
	}
	if status.RecentCounts.Activity, err = s.activity.CountActivitySince(ctx, userID, deviceID, since); err != nil {
		return nil, err
	}
	status.RecentCounts.Total = status.RecentCounts.HeartRate + status.RecentCounts.Sleep + status.RecentCounts.Activity

	status.Completeness = completeness(status.RecentCounts)
	return &status, nil
}

func completeness(counts domain.SyncCounts) domain.Completeness {
	hr := completenessScore(counts.HeartRate, expectedHeartRatePerDay)
	sl := completenessScore(counts.Sleep, expectedSleepPerDay)
	ac := completenessScore(counts.Activity, expectedActivityPerDay)
	return domain.Completeness{
		Overall:   int(math.Round((hr + sl + ac) / 3)),
		HeartRate: int(math.Round(hr)),
		Sleep:     int(math.Round(sl)),
		Activity:  int(math.Round(ac)),
	}
}

func completenessScore(actual, expectedPerDay int) float64 {
	expected := expectedPerDay * completenessWindowDays
	pct := float64(actual) / float64(expected) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
