package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"drinktrack/internal/catalog"
)

type importResponse struct {
	Mode          string `json:"mode"`
	DrinksUpdated int    `json:"drinks_updated"`
	DrinksAdded   int    `json:"drinks_added"`
	EventsSeeded  int    `json:"events_seeded"`
	Replaced      bool   `json:"replaced"`
}

// handleExport streams the catalog as a portable document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	data, err := s.svc.ExportCatalog(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Export error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export catalog")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="drinks.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImport applies an uploaded document. The mode query parameter picks
// merge, overwrite or cancel; cancel validates nothing and touches nothing.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	mode, err := catalog.ParseMode(strings.TrimSpace(r.URL.Query().Get("mode")))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	summary, err := s.svc.ImportCatalog(r.Context(), data, mode)
	if err != nil {
		if errors.Is(err, catalog.ErrMalformedDocument) {
			writeError(w, http.StatusUnprocessableEntity, "malformed catalog document")
			return
		}
		slog.ErrorContext(r.Context(), "Import error", "error", err, "mode", string(mode))
		writeError(w, http.StatusInternalServerError, "failed to import catalog")
		return
	}

	if summary.Mode != catalog.ModeCancel {
		s.invalidateStats()
	}
	writeJSON(w, http.StatusOK, importResponse{
		Mode:          string(summary.Mode),
		DrinksUpdated: summary.DrinksUpdated,
		DrinksAdded:   summary.DrinksAdded,
		EventsSeeded:  summary.EventsSeeded,
		Replaced:      summary.Replaced,
	})
}
