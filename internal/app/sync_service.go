package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"healthsync/internal/domain"
)

// SyncState names one step of a sync cycle's lifecycle.
type SyncState string

const (
	StateIdle             SyncState = "idle"
	StateDeviceEnsured    SyncState = "device_ensured"
	StateBackfilling      SyncState = "backfilling"
	StateSourceSyncing    SyncState = "source_syncing"
	StateSummaryRefreshed SyncState = "summary_refreshed"
	StateDone             SyncState = "done"
	StateErrored          SyncState = "errored"
)

// Look-back windows. Backfill runs once per session on first run; steady-state
// sync pulls the current window on every run.
const (
	backfillLookback = 24 * time.Hour
	syncLookback     = time.Hour
)

// AdapterResult reports one adapter's contribution to a sync cycle. Err is
// set when the source was unavailable, distinguishing "adapter failed" from
// "no data".
type AdapterResult struct {
	Source string      `json:"source"`
	Err    string      `json:"error,omitempty"`
	Result BatchResult `json:"result"`
}

// SyncReport is what a sync cycle returns to its caller: the terminal state
// and the per-adapter outcomes. Callers must inspect it for partial failures.
type SyncReport struct {
	State      SyncState       `json:"state"`
	Backfilled bool            `json:"backfilled"`
	Adapters   []AdapterResult `json:"adapters"`
}

// SyncSession sequences sync cycles for one user: device ensure, one-time
// historical backfill, per-source sync, and last-sync refresh. One session
// serves one user and must not be shared across users; its device cache is
// session-local.
type SyncSession struct {
	userID   uuid.UUID
	devices  *DeviceService
	health   *HealthService
	adapters []domain.SourceAdapter
	log      *zap.Logger

	mu          sync.Mutex
	state       SyncState
	deviceCache map[domain.DeviceClass]*domain.Device
	initialized bool
}

// NewSyncSession creates a session for the given user over the given source
// adapters.
func NewSyncSession(userID uuid.UUID, devices *DeviceService, health *HealthService, adapters []domain.SourceAdapter, log *zap.Logger) *SyncSession {
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncSession{
		userID:      userID,
		devices:     devices,
		health:      health,
		adapters:    adapters,
		log:         log,
		state:       StateIdle,
		deviceCache: make(map[domain.DeviceClass]*domain.Device),
	}
}

// State returns the state the session last reached.
func (s *SyncSession) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run executes one sync cycle. Adapter failures are absorbed into the report;
// only a missing user identity or a storage failure aborts the cycle and
// lands the session in the errored state.
func (s *SyncSession) Run(ctx context.Context) (*SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &SyncReport{State: StateErrored}

	if s.userID == uuid.Nil {
		s.state = StateErrored
		return report, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	if _, err := s.deviceFor(ctx, domain.DevicePhone); err != nil {
		s.state = StateErrored
		return report, err
	}
	s.state = StateDeviceEnsured

	now := time.Now().UTC()

	if !s.initialized {
		s.state = StateBackfilling
		window := domain.SyncWindow{Start: now.Add(-backfillLookback), End: now}
		if err := s.syncSources(ctx, window, report); err != nil {
			s.state = StateErrored
			return report, err
		}
		s.initialized = true
		report.Backfilled = true
	}

	s.state = StateSourceSyncing
	window := domain.SyncWindow{Start: now.Add(-syncLookback), End: now}
	if err := s.syncSources(ctx, window, report); err != nil {
		s.state = StateErrored
		return report, err
	}

	s.state = StateSummaryRefreshed
	for _, d := range s.deviceCache {
		if err := s.devices.TouchLastSync(ctx, d.ID, now); err != nil {
			s.state = StateErrored
			return report, err
		}
	}

	s.state = StateDone
	report.State = StateDone
	return report, nil
}

// syncSources fetches all adapters concurrently for the window, then applies
// each adapter's batch to the engine one adapter at a time so two sources
// never interleave writes to the same day record.
func (s *SyncSession) syncSources(ctx context.Context, w domain.SyncWindow, report *SyncReport) error {
	type fetched struct {
		device *domain.Device
		batch  domain.SourceBatch
		err    error
	}
	results := make([]fetched, len(s.adapters))

	// Devices are resolved up front; a registry failure here is fatal.
	for i, a := range s.adapters {
		d, err := s.deviceFor(ctx, a.DeviceClass())
		if err != nil {
			return err
		}
		results[i].device = d
	}

	var wg sync.WaitGroup
	for i, a := range s.adapters {
		wg.Add(1)
		go func(i int, a domain.SourceAdapter) {
			defer wg.Done()
			results[i].batch, results[i].err = a.Fetch(ctx, s.userID, results[i].device.ID, w)
		}(i, a)
	}
	wg.Wait()

	for i, a := range s.adapters {
		ar := AdapterResult{Source: a.Source()}
		if results[i].err != nil {
			ar.Err = results[i].err.Error()
			s.log.Warn("source adapter unavailable",
				zap.String("source", a.Source()),
				zap.String("userId", s.userID.String()),
				zap.Error(results[i].err))
			report.Adapters = append(report.Adapters, ar)
			continue
		}
		res, err := s.health.ApplySourceBatch(ctx, results[i].batch)
		if err != nil {
			return err
		}
		ar.Result = res
		if res.Failed > 0 {
			s.log.Warn("source batch partially rejected",
				zap.String("source", a.Source()),
				zap.Int("failed", res.Failed),
				zap.Strings("errors", res.Errors))
		}
		report.Adapters = append(report.Adapters, ar)
	}
	return nil
}

func (s *SyncSession) deviceFor(ctx context.Context, class domain.DeviceClass) (*domain.Device, error) {
	if d, ok := s.deviceCache[class]; ok {
		return d, nil
	}
	d, err := s.devices.EnsureDevice(ctx, s.userID, class)
	if err != nil {
		return nil, err
	}
	s.deviceCache[class] = d
	return d, nil
}
