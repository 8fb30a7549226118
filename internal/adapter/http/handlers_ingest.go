package adapthttp

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"healthsync/internal/adapter/source"
	"healthsync/internal/domain"
)

func (s *Server) handleSyncHeartRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		UserID    uuid.UUID `json:"userId"`
		DeviceID  uuid.UUID `json:"deviceId"`
		HeartRate float64   `json:"heartRate"`
		Timestamp time.Time `json:"timestamp"`
		Accuracy  *int      `json:"accuracy"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	deviceID := body.DeviceID
	if deviceID == uuid.Nil {
		dev, err := s.devices.EnsureDevice(r.Context(), body.UserID, domain.DeviceWearable)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		deviceID = dev.ID
	}

	meta := map[string]any{domain.MetaSource: source.SourceWearablePush}
	if body.Accuracy != nil {
		meta[domain.MetaAccuracy] = *body.Accuracy
	}
	rec, err := s.health.RecordReading(r.Context(), domain.Reading{
		UserID:     body.UserID,
		DeviceID:   deviceID,
		Metric:     domain.MetricHeartRate,
		Value:      body.HeartRate,
		RecordedAt: body.Timestamp,
		Metadata:   meta,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleSyncSleep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var ev domain.SleepEvent
	if err := parseJSON(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if ev.DeviceID == uuid.Nil {
		dev, err := s.devices.EnsureDevice(r.Context(), ev.UserID, domain.DeviceWearable)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		ev.DeviceID = dev.ID
	}
	if ev.Source == "" {
		ev.Source = source.SourceWearablePush
	}

	sess, err := s.health.RecordSleepSession(r.Context(), ev)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSyncActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var delta domain.ActivityDelta
	if err := parseJSON(r, &delta); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if delta.DeviceID == uuid.Nil {
		dev, err := s.devices.EnsureDevice(r.Context(), delta.UserID, domain.DevicePhone)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		delta.DeviceID = dev.ID
	}

	rec, err := s.health.UpsertDailyActivity(r.Context(), delta)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleSyncBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var env source.BatchEnvelope
	if err := parseJSON(r, &env); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	batch, itemErrs, err := source.ParseBatchEnvelope(env)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := s.health.ApplySourceBatch(r.Context(), batch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	res.Failed += len(itemErrs)
	res.Errors = append(itemErrs, res.Errors...)

	status := http.StatusOK
	if res.Failed > 0 {
		status = http.StatusMultiStatus
		s.log.Warn("batch partially applied",
			zap.Int("succeeded", res.Succeeded),
			zap.Int("failed", res.Failed),
		)
	}
	writeJSON(w, status, res)
}
