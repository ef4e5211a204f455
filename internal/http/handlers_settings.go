package http

import (
	"log/slog"
	"net/http"
)

type retentionPayload struct {
	RetentionDays int `json:"retention_days"`
}

// handleRetention reads or updates the history retention window. Zero
// disables automatic purging.
func (s *Server) handleRetention(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		days, err := s.svc.RetentionDays(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Read retention error", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to read retention")
			return
		}
		writeJSON(w, http.StatusOK, retentionPayload{RetentionDays: days})

	case http.MethodPut:
		var p retentionPayload
		if err := decodeJSON(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if p.RetentionDays < 0 {
			writeError(w, http.StatusUnprocessableEntity, "retention_days must be zero or positive")
			return
		}

		if err := s.svc.SetRetentionDays(r.Context(), p.RetentionDays); err != nil {
			slog.ErrorContext(r.Context(), "Set retention error", "error", err, "retention_days", p.RetentionDays)
			writeError(w, http.StatusInternalServerError, "failed to set retention")
			return
		}
		writeJSON(w, http.StatusOK, p)

	default:
		w.Header().Set("Allow", "GET, PUT")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
