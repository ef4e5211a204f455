package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"drinktrack/internal/core"
)

// CatalogStore is the slice of the persistence store the importer needs.
type CatalogStore interface {
	ListDrinks(ctx context.Context) ([]core.Drink, error)
	ApplyChangeSet(ctx context.Context, cs core.ChangeSet) error
}

// ImportSummary reports what an import commit changed.
type ImportSummary struct {
	Mode          Mode
	DrinksUpdated int
	DrinksAdded   int
	EventsSeeded  int
	Replaced      bool
}

// Importer reconciles an export document against the local catalog and
// commits the result in a single transaction.
type Importer struct {
	store CatalogStore
}

func NewImporter(store CatalogStore) *Importer {
	return &Importer{store: store}
}

// Import parses raw bytes and applies the chosen mode. Parsing failures
// abort before any mutation; storage failures roll the whole operation back,
// so partial application is never visible to subsequent reads.
func (i *Importer) Import(ctx context.Context, data []byte, mode Mode) (ImportSummary, error) {
	doc, err := Parse(data)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("import catalog: %w", err)
	}
	return i.ImportDocument(ctx, doc, mode)
}

// ImportDocument applies an already-parsed document.
func (i *Importer) ImportDocument(ctx context.Context, doc ExportDocument, mode Mode) (ImportSummary, error) {
	summary := ImportSummary{Mode: mode}
	if mode == ModeCancel {
		return summary, nil
	}

	existing, err := i.store.ListDrinks(ctx)
	if err != nil {
		return summary, fmt.Errorf("import catalog: list existing drinks: %w", err)
	}

	cs := Reconcile(existing, doc, mode, time.Now(), uuid.NewString)
	if err := i.store.ApplyChangeSet(ctx, cs); err != nil {
		return summary, fmt.Errorf("import catalog: %w", err)
	}

	summary.DrinksUpdated = len(cs.Updates)
	summary.DrinksAdded = len(cs.Inserts)
	summary.EventsSeeded = len(cs.SeedEvents)
	summary.Replaced = cs.ReplaceAll

	slog.InfoContext(ctx, "Catalog import committed",
		"mode", string(mode),
		"updated", summary.DrinksUpdated,
		"added", summary.DrinksAdded,
		"seeded_events", summary.EventsSeeded,
		"replaced", summary.Replaced)
	return summary, nil
}
