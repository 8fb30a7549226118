package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthsync/internal/adapter/memory"
	"healthsync/internal/app"
	"healthsync/internal/domain"
)

type fakeAdapter struct {
	source  string
	class   domain.DeviceClass
	fetchFn func(ctx context.Context, userID, deviceID uuid.UUID, w domain.SyncWindow) (domain.SourceBatch, error)

	windows []domain.SyncWindow
}

func (a *fakeAdapter) Source() string                  { return a.source }
func (a *fakeAdapter) DeviceClass() domain.DeviceClass { return a.class }

func (a *fakeAdapter) Fetch(ctx context.Context, userID, deviceID uuid.UUID, w domain.SyncWindow) (domain.SourceBatch, error) {
	a.windows = append(a.windows, w)
	if a.fetchFn != nil {
		return a.fetchFn(ctx, userID, deviceID, w)
	}
	return domain.SourceBatch{}, nil
}

func newSyncFixture(t *testing.T) (*app.DeviceService, *app.HealthService) {
	t.Helper()

	db := memory.New()
	catalog := app.NewCatalogService(db)
	require.NoError(t, catalog.Seed(context.Background()))
	devices := app.NewDeviceService(db, db, db, db, catalog, nil)
	health := app.NewHealthService(catalog, db, db, db, nil)
	return devices, health
}

func TestSyncRunHappyPath(t *testing.T) {
	wearable := &fakeAdapter{
		source: "wearable_push",
		class:  domain.DeviceWearable,
		fetchFn: func(ctx context.Context, userID, deviceID uuid.UUID, w domain.SyncWindow) (domain.SourceBatch, error) {
			return domain.SourceBatch{
				Readings: []domain.Reading{{
					UserID: userID, DeviceID: deviceID, Metric: "heart_rate",
					Value: 68, RecordedAt: w.End.Add(-time.Minute),
				}},
			}, nil
		},
	}
	phone := &fakeAdapter{source: "screen_time", class: domain.DevicePhone}

	devices, health := newSyncFixture(t)
	userID := uuid.New()
	sess := app.NewSyncSession(userID, devices, health, []domain.SourceAdapter{wearable, phone}, nil)

	report, err := sess.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, app.StateDone, report.State)
	assert.Equal(t, app.StateDone, sess.State())
	assert.True(t, report.Backfilled)
	require.Len(t, report.Adapters, 4) // 2 adapters x backfill + steady-state

	// First run fetches the long backfill window, then the steady-state one.
	require.Len(t, wearable.windows, 2)
	assert.Greater(t, wearable.windows[0].End.Sub(wearable.windows[0].Start), 12*time.Hour)
	assert.LessOrEqual(t, wearable.windows[1].End.Sub(wearable.windows[1].Start), time.Hour)

	// Both device classes were registered and their last-sync touched.
	devs, err := devices.ListDevices(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, devs, 2)
	for _, d := range devs {
		assert.NotNil(t, d.LastSync, "device %s", d.Class)
	}
}

func TestSyncRunBackfillsOnlyOnce(t *testing.T) {
	adapter := &fakeAdapter{source: "historical_pull", class: domain.DevicePhone}
	devices, health := newSyncFixture(t)
	sess := app.NewSyncSession(uuid.New(), devices, health, []domain.SourceAdapter{adapter}, nil)

	first, err := sess.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, first.Backfilled)

	second, err := sess.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, second.Backfilled)
	assert.Len(t, second.Adapters, 1)
	assert.Len(t, adapter.windows, 3)
}

func TestSyncRunAbsorbsAdapterFailure(t *testing.T) {
	broken := &fakeAdapter{
		source: "wearable_push",
		class:  domain.DeviceWearable,
		fetchFn: func(ctx context.Context, userID, deviceID uuid.UUID, w domain.SyncWindow) (domain.SourceBatch, error) {
			return domain.SourceBatch{}, errors.New("vendor API timeout")
		},
	}
	healthy := &fakeAdapter{source: "screen_time", class: domain.DevicePhone}

	devices, health := newSyncFixture(t)
	sess := app.NewSyncSession(uuid.New(), devices, health, []domain.SourceAdapter{broken, healthy}, nil)

	report, err := sess.Run(context.Background())
	require.NoError(t, err, "one failing source must not abort the cycle")
	assert.Equal(t, app.StateDone, report.State)

	var failed, ok int
	for _, ar := range report.Adapters {
		if ar.Err != "" {
			failed++
			assert.Equal(t, "wearable_push", ar.Source)
		} else {
			ok++
		}
	}
	assert.Equal(t, 2, failed) // backfill + steady-state
	assert.Equal(t, 2, ok)
}

func TestSyncRunRequiresUser(t *testing.T) {
	devices, health := newSyncFixture(t)
	sess := app.NewSyncSession(uuid.Nil, devices, health, nil, nil)

	_, err := sess.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, app.StateErrored, sess.State())
}

func TestSyncRunNoAdapters(t *testing.T) {
	devices, health := newSyncFixture(t)
	userID := uuid.New()
	sess := app.NewSyncSession(userID, devices, health, nil, nil)

	report, err := sess.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, app.StateDone, report.State)
	assert.Empty(t, report.Adapters)

	// The phone device is still ensured and touched.
	devs, err := devices.ListDevices(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, devs, 1)
	assert.Equal(t, domain.DevicePhone, devs[0].Class)
	assert.NotNil(t, devs[0].LastSync)
}
