package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"drinktrack/internal/core"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// priceAmount decodes a JSON price that arrives either as a decimal number
// or as a string ("3.50", "3,50"). It always encodes back as a number.
type priceAmount struct {
	core.Money
}

func (p *priceAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", core.ErrInvalidPrice, err)
		}
		cents, err := core.ParseDecimalToCents(s)
		if err != nil {
			return err
		}
		p.Cents = cents
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidPrice, err)
	}
	p.Money = core.MoneyFromFloat(f)
	return nil
}

func (p priceAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Float())
}

// drinkResponse is the wire form of a catalog entry. Prices travel as
// decimal amounts, not cents.
type drinkResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Emoji    string  `json:"emoji"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Order    int32   `json:"order"`
}

type eventResponse struct {
	ID        string  `json:"id"`
	DrinkID   string  `json:"drink_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Note      string  `json:"note,omitempty"`
	LoggedAt  string  `json:"logged_at"`
}

func toDrinkResponse(d core.Drink) drinkResponse {
	return drinkResponse{
		ID:       d.ID,
		Name:     d.Name,
		Emoji:    d.Emoji,
		Price:    d.Price.Float(),
		Category: string(d.Category),
		Order:    d.Order,
	}
}

func toDrinkResponses(drinks []core.Drink) []drinkResponse {
	out := make([]drinkResponse, 0, len(drinks))
	for _, d := range drinks {
		out = append(out, toDrinkResponse(d))
	}
	return out
}

func toEventResponse(e core.ConsumptionEvent) eventResponse {
	return eventResponse{
		ID:        e.ID,
		DrinkID:   e.DrinkID,
		Quantity:  e.Quantity,
		UnitPrice: e.UnitPrice.Float(),
		Note:      e.Note,
		LoggedAt:  e.LoggedAt.Format(time.RFC3339),
	}
}

func toEventResponses(events []core.ConsumptionEvent) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a size-limited JSON body into dst, rejecting unknown
// fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// validationStatus maps domain validation errors to HTTP status codes.
// Unknown errors are treated as internal.
func validationStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidPrice),
		errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrInvalidQuantity):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// parseDays extracts a positive "days" query parameter, falling back to def.
func parseDays(r *http.Request, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get("days"))
	if v == "" {
		return def
	}
	days, err := strconv.Atoi(v)
	if err != nil || days < 1 || days > 365 {
		return def
	}
	return days
}
