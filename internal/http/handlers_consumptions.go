package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"drinktrack/internal/core"
	"drinktrack/internal/storage"
)

type consumptionPayload struct {
	DrinkID   string       `json:"drink_id"`
	Quantity  int          `json:"quantity"`
	UnitPrice *priceAmount `json:"unit_price,omitempty"`
	Note      string       `json:"note,omitempty"`
}

func (s *Server) handleConsumptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listConsumptions(w, r)
	case http.MethodPost:
		s.logConsumption(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// listConsumptions returns events newest first. With ?day=YYYY-MM-DD it
// narrows to one calendar day, with ?days=N to a trailing window; otherwise
// everything is returned.
func (s *Server) listConsumptions(w http.ResponseWriter, r *http.Request) {
	filter := storage.AllEvents()
	if v := strings.TrimSpace(r.URL.Query().Get("day")); v != "" {
		day, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid day, want YYYY-MM-DD")
			return
		}
		filter = storage.EventsOn(day)
	} else if days := parseDays(r, 0); days > 0 {
		filter = storage.EventsLastDays(days)
	}

	events, err := s.svc.ListEvents(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List consumptions error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list consumptions")
		return
	}

	writeJSON(w, http.StatusOK, toEventResponses(events))
}

func (s *Server) logConsumption(w http.ResponseWriter, r *http.Request) {
	var p consumptionPayload
	if err := decodeJSON(r, &p); err != nil {
		if errors.Is(err, core.ErrInvalidPrice) {
			writeError(w, http.StatusUnprocessableEntity, core.ErrInvalidPrice.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if p.DrinkID == "" {
		writeError(w, http.StatusUnprocessableEntity, "drink_id is required")
		return
	}
	if p.Quantity == 0 {
		p.Quantity = 1
	}
	if p.Quantity < 0 {
		writeError(w, http.StatusUnprocessableEntity, core.ErrInvalidQuantity.Error())
		return
	}

	var price *core.Money
	if p.UnitPrice != nil {
		if p.UnitPrice.Cents < 0 {
			writeError(w, http.StatusUnprocessableEntity, core.ErrInvalidPrice.Error())
			return
		}
		price = &p.UnitPrice.Money
	}

	e, err := s.svc.LogConsumption(r.Context(), p.DrinkID, p.Quantity, price, p.Note)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "drink not found")
			return
		}
		slog.ErrorContext(r.Context(), "Log consumption error", "error", err, "drink_id", p.DrinkID)
		writeError(w, http.StatusInternalServerError, "failed to log consumption")
		return
	}

	s.invalidateStats()
	writeJSON(w, http.StatusCreated, toEventResponse(e))
}

// handleDecrement undoes the most recent of today's events for a drink.
func (s *Server) handleDecrement(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var p struct {
		DrinkID string `json:"drink_id"`
	}
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.DrinkID == "" {
		writeError(w, http.StatusUnprocessableEntity, "drink_id is required")
		return
	}

	changed, err := s.svc.DecrementConsumption(r.Context(), p.DrinkID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Decrement consumption error", "error", err, "drink_id", p.DrinkID)
		writeError(w, http.StatusInternalServerError, "failed to decrement consumption")
		return
	}

	if changed {
		s.invalidateStats()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

// handleConsumptionByID deletes one event by ID.
func (s *Server) handleConsumptionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/consumptions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "consumption not found")
		return
	}

	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", "DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	changed, err := s.svc.DeleteEvent(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete consumption error", "error", err, "event_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete consumption")
		return
	}
	if !changed {
		writeError(w, http.StatusNotFound, "consumption not found")
		return
	}

	s.invalidateStats()
	w.WriteHeader(http.StatusNoContent)
}

// handleResetToday deletes today's events, scoped to one drink when a
// drink_id query parameter is given.
func (s *Server) handleResetToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", "DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	drinkID := strings.TrimSpace(r.URL.Query().Get("drink_id"))
	deleted, err := s.svc.ResetToday(r.Context(), drinkID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Reset today error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset today")
		return
	}

	if deleted > 0 {
		s.invalidateStats()
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
