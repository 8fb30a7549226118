// Package adapthttp is the driving HTTP adapter: it routes requests to the
// application services and owns the wire contract.
package adapthttp

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"healthsync/internal/app"
	"healthsync/internal/domain"
)

// Server routes requests to application services. It also keeps one sync
// session per user so repeated sync runs share backfill state.
type Server struct {
	catalog  *app.CatalogService
	devices  *app.DeviceService
	health   *app.HealthService
	adapters []domain.SourceAdapter
	log      *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*app.SyncSession
}

// New creates a Server wired to the given application services and source
// adapters.
func New(catalog *app.CatalogService, devices *app.DeviceService, health *app.HealthService, adapters []domain.SourceAdapter, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		catalog:  catalog,
		devices:  devices,
		health:   health,
		adapters: adapters,
		log:      log,
		sessions: make(map[uuid.UUID]*app.SyncSession),
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/metrics", s.handleMetricTypes)

	api.HandleFunc("/sync/heart-rate", s.handleSyncHeartRate)
	api.HandleFunc("/sync/sleep", s.handleSyncSleep)
	api.HandleFunc("/sync/activity", s.handleSyncActivity)
	api.HandleFunc("/sync/batch", s.handleSyncBatch)
	api.HandleFunc("/sync/run", s.handleSyncRun)

	api.HandleFunc("/devices", s.handleDevices)
	api.HandleFunc("/devices/status", s.handleDeviceStatus)

	api.HandleFunc("/summary/daily", s.handleDailySummary)
	api.HandleFunc("/history/readings", s.handleReadingHistory)
	api.HandleFunc("/history/sleep", s.handleSleepHistory)
	api.HandleFunc("/history/activity", s.handleActivityHistory)

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return s.withLogging(root)
}

// session returns the user's sync session, creating it on first use.
func (s *Server) session(userID uuid.UUID) *app.SyncSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = app.NewSyncSession(userID, s.devices, s.health, s.adapters, s.log)
		s.sessions[userID] = sess
	}
	return sess
}
