package catalog

import (
	"errors"
	"fmt"
	"time"

	"drinktrack/internal/core"
)

// Mode selects the terminal action of an import.
type Mode string

const (
	// ModeMerge updates matching drinks in place and inserts the rest;
	// nothing pre-existing is deleted.
	ModeMerge Mode = "merge"
	// ModeOverwrite replaces the entire catalog and event log. Destructive;
	// confirmation is the caller's responsibility.
	ModeOverwrite Mode = "overwrite"
	// ModeCancel is a no-op terminal state.
	ModeCancel Mode = "cancel"
)

var ErrUnknownMode = errors.New("unknown import mode")

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeMerge, ModeOverwrite, ModeCancel:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Reconcile plans the change set for importing doc against the existing
// catalog. It is pure: the document and the existing list are never mutated,
// and all effects are expressed in the returned core.ChangeSet.
//
// Snapshots without an ID get a fresh one from newID and always take the
// insert path. A snapshot with an embedded quantity > 0 additionally seeds
// one consumption event at `now`, priced at the snapshot price.
func Reconcile(existing []core.Drink, doc ExportDocument, mode Mode, now time.Time, newID func() string) core.ChangeSet {
	var cs core.ChangeSet

	switch mode {
	case ModeCancel:
		return cs
	case ModeOverwrite:
		cs.ReplaceAll = true
	}

	existingIDs := make(map[string]struct{}, len(existing))
	if mode == ModeMerge {
		for _, d := range existing {
			existingIDs[d.ID] = struct{}{}
		}
	}

	for _, snap := range doc.Drinks {
		drink := snap.Drink()
		if drink.ID == "" {
			drink.ID = newID()
		}

		if _, ok := existingIDs[drink.ID]; ok {
			cs.Updates = append(cs.Updates, drink)
		} else {
			cs.Inserts = append(cs.Inserts, drink)
		}

		if snap.Quantity > 0 {
			cs.SeedEvents = append(cs.SeedEvents, core.ConsumptionEvent{
				ID:        newID(),
				DrinkID:   drink.ID,
				Quantity:  snap.Quantity,
				UnitPrice: drink.Price,
				LoggedAt:  now,
			})
		}
	}

	return cs
}
