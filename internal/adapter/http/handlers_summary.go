package adapthttp

import (
	"net/http"
	"time"
)

func (s *Server) handleDailySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, err := uuidQuery(r, "userId")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	date := dayQuery(r, "date")

	summary, err := s.health.ComputeSummary(r.Context(), userID, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReadingHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, err := uuidQuery(r, "userId")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	end, err := timeQuery(r, "end", time.Now().UTC())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	start, err := timeQuery(r, "start", end.Add(-24*time.Hour))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	readings, err := s.health.ReadingsForRange(r.Context(), userID, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"readings": readings})
}

func (s *Server) handleSleepHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, err := uuidQuery(r, "userId")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	days := intQuery(r, "days", 7)

	sessions, err := s.health.SleepHistory(r.Context(), userID, days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleActivityHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, err := uuidQuery(r, "userId")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	days := intQuery(r, "days", 7)

	activity, err := s.health.ActivityHistory(r.Context(), userID, days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": activity})
}
