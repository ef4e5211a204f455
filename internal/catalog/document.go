// Package catalog implements the drink catalog exchange format: a versioned
// JSON document that can be exported, and imported back with merge or
// overwrite reconciliation against the local store.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"drinktrack/internal/core"
)

// FormatVersion is the envelope version written by the exporter.
const FormatVersion = "1.0"

// ErrMalformedDocument marks import payloads that no known decoding accepts.
// Nothing is mutated before parsing succeeds.
var ErrMalformedDocument = errors.New("malformed export document")

type (
	// ExportDocument is the versioned envelope. Field names follow the
	// historical wire format.
	ExportDocument struct {
		Version    string          `json:"version"`
		ExportDate time.Time       `json:"exportDate"`
		Drinks     []DrinkSnapshot `json:"bebidas"`
	}

	// DrinkSnapshot carries one drink's fields plus an optional embedded
	// quantity, used only during import to seed a consumption event.
	DrinkSnapshot struct {
		ID       string  `json:"id"`
		Name     string  `json:"nombre"`
		Emoji    string  `json:"emoji"`
		Price    float64 `json:"precioBase"`
		Category string  `json:"categoria"`
		Order    int32   `json:"orden"`
		Quantity int     `json:"cantidad,omitempty"`
	}
)

// Drink converts the snapshot to a domain drink. The embedded quantity is
// not part of the drink itself.
func (s DrinkSnapshot) Drink() core.Drink {
	return core.Drink{
		ID:       s.ID,
		Name:     s.Name,
		Emoji:    s.Emoji,
		Price:    core.MoneyFromFloat(s.Price),
		Category: core.Category(s.Category),
		Order:    s.Order,
	}
}

// Snapshot builds the export representation of a drink. Exports describe
// catalog state, not event history, so the quantity stays zero.
func Snapshot(d core.Drink) DrinkSnapshot {
	return DrinkSnapshot{
		ID:       d.ID,
		Name:     d.Name,
		Emoji:    d.Emoji,
		Price:    d.Price.Float(),
		Category: string(d.Category),
		Order:    d.Order,
	}
}

// appleEpoch is 2001-01-01T00:00:00Z, the reference date of the legacy
// numeric exportDate encoding.
var appleEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// Parse decodes raw bytes into an ExportDocument. The source tooling emitted
// at least two incompatible exportDate encodings over time, so the date is
// decoded by trying an ordered list of strategies:
//
//  1. ISO-8601 string
//  2. numeric seconds since 2001-01-01 UTC (legacy)
//  3. no date at all (the drink list alone is still a valid document)
//
// It fails with ErrMalformedDocument when the envelope cannot be decoded,
// the drink list is absent, or an exportDate is present but matches no known
// encoding.
func Parse(data []byte) (ExportDocument, error) {
	var raw struct {
		Version    string          `json:"version"`
		ExportDate json.RawMessage `json:"exportDate"`
		Drinks     []DrinkSnapshot `json:"bebidas"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ExportDocument{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if raw.Drinks == nil {
		return ExportDocument{}, fmt.Errorf("%w: missing bebidas list", ErrMalformedDocument)
	}

	exportDate, err := decodeExportDate(raw.ExportDate)
	if err != nil {
		return ExportDocument{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	doc := ExportDocument{
		Version:    raw.Version,
		ExportDate: exportDate,
		Drinks:     raw.Drinks,
	}
	return doc, nil
}

func decodeExportDate(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("undecodable exportDate %q", s)
	}

	if secs, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return appleEpoch.Add(time.Duration(secs * float64(time.Second))), nil
	}

	return time.Time{}, fmt.Errorf("undecodable exportDate %s", string(raw))
}

// Serialize produces the canonical JSON encoding with an ISO-8601 timestamp.
// The document itself is never mutated.
func Serialize(doc ExportDocument) ([]byte, error) {
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize export document: %w", err)
	}
	return out, nil
}
