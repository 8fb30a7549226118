package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"healthsync/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeDomainError maps domain sentinel errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnknownMetric):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func intQuery(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func uuidQuery(r *http.Request, key string) (uuid.UUID, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, key)
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", domain.ErrValidation, key)
	}
	return id, nil
}

// dayQuery returns the named day query parameter, defaulting to today (UTC).
func dayQuery(r *http.Request, key string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return domain.DayOf(time.Now().UTC())
}

func timeQuery(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid %s", domain.ErrValidation, key)
	}
	return t.UTC(), nil
}
