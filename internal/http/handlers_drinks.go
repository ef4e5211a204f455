package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"drinktrack/internal/core"
	"drinktrack/internal/storage"
)

type drinkPayload struct {
	Name     string      `json:"name"`
	Emoji    string      `json:"emoji"`
	Price    priceAmount `json:"price"`
	Category string      `json:"category"`
}

func (s *Server) handleDrinks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listDrinks(w, r)
	case http.MethodPost:
		s.createDrink(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listDrinks(w http.ResponseWriter, r *http.Request) {
	drinks, err := s.svc.ListDrinks(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List drinks error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list drinks")
		return
	}

	writeJSON(w, http.StatusOK, toDrinkResponses(drinks))
}

func (s *Server) createDrink(w http.ResponseWriter, r *http.Request) {
	var p drinkPayload
	if err := decodeJSON(r, &p); err != nil {
		if errors.Is(err, core.ErrInvalidPrice) {
			writeError(w, http.StatusUnprocessableEntity, core.ErrInvalidPrice.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidate := core.Drink{
		Name:     strings.TrimSpace(p.Name),
		Emoji:    p.Emoji,
		Price:    p.Price.Money,
		Category: core.Category(p.Category),
	}
	if err := candidate.Validate(); err != nil {
		writeError(w, validationStatus(err), err.Error())
		return
	}

	d, err := s.svc.CreateDrink(r.Context(), candidate.Name, candidate.Emoji, candidate.Price, candidate.Category)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create drink error", "error", err, "name", candidate.Name)
		writeError(w, http.StatusInternalServerError, "failed to create drink")
		return
	}

	s.invalidateStats()
	writeJSON(w, http.StatusCreated, toDrinkResponse(d))
}

func (s *Server) handleDrinkByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/drinks/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "drink not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getDrink(w, r, id)
	case http.MethodPut:
		s.updateDrink(w, r, id)
	case http.MethodDelete:
		s.deleteDrink(w, r, id)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) getDrink(w http.ResponseWriter, r *http.Request, id string) {
	d, err := s.svc.GetDrink(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "drink not found")
			return
		}
		slog.ErrorContext(r.Context(), "Get drink error", "error", err, "drink_id", id)
		writeError(w, http.StatusInternalServerError, "failed to get drink")
		return
	}

	writeJSON(w, http.StatusOK, toDrinkResponse(d))
}

func (s *Server) updateDrink(w http.ResponseWriter, r *http.Request, id string) {
	var p drinkPayload
	if err := decodeJSON(r, &p); err != nil {
		if errors.Is(err, core.ErrInvalidPrice) {
			writeError(w, http.StatusUnprocessableEntity, core.ErrInvalidPrice.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	candidate := core.Drink{
		Name:     strings.TrimSpace(p.Name),
		Emoji:    p.Emoji,
		Price:    p.Price.Money,
		Category: core.Category(p.Category),
	}
	if err := candidate.Validate(); err != nil {
		writeError(w, validationStatus(err), err.Error())
		return
	}

	changed, err := s.svc.UpdateDrink(r.Context(), id, candidate.Name, candidate.Emoji, candidate.Price, candidate.Category)
	if err != nil {
		slog.ErrorContext(r.Context(), "Update drink error", "error", err, "drink_id", id)
		writeError(w, http.StatusInternalServerError, "failed to update drink")
		return
	}
	if !changed {
		writeError(w, http.StatusNotFound, "drink not found")
		return
	}

	d, err := s.svc.GetDrink(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Reload drink error", "error", err, "drink_id", id)
		writeError(w, http.StatusInternalServerError, "failed to reload drink")
		return
	}

	s.invalidateStats()
	writeJSON(w, http.StatusOK, toDrinkResponse(d))
}

func (s *Server) deleteDrink(w http.ResponseWriter, r *http.Request, id string) {
	changed, err := s.svc.DeleteDrink(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Delete drink error", "error", err, "drink_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete drink")
		return
	}
	if !changed {
		writeError(w, http.StatusNotFound, "drink not found")
		return
	}

	s.invalidateStats()
	w.WriteHeader(http.StatusNoContent)
}
