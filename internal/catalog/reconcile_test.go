package catalog

import (
	"fmt"
	"testing"
	"time"

	"drinktrack/internal/core"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("generated-%d", n)
	}
}

var reconcileNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestParseMode(t *testing.T) {
	for _, s := range []string{"merge", "overwrite", "cancel"} {
		if _, err := ParseMode(s); err != nil {
			t.Fatalf("%q should parse: %v", s, err)
		}
	}
	if _, err := ParseMode("append"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestReconcileMerge(t *testing.T) {
	existing := []core.Drink{
		{ID: "id-1", Name: "A", Price: core.Money{Cents: 200}, Category: core.CategoryAlcohol, Order: 1},
	}
	doc := ExportDocument{
		Version: FormatVersion,
		Drinks: []DrinkSnapshot{
			{ID: "id-1", Name: "A", Emoji: "🍺", Price: 5, Category: "Alcohol", Order: 1},
			{ID: "id-2", Name: "B", Emoji: "🍷", Price: 3, Category: "Alcohol", Order: 2, Quantity: 4},
		},
	}

	cs := Reconcile(existing, doc, ModeMerge, reconcileNow, sequentialIDs())

	if cs.ReplaceAll {
		t.Fatal("merge must not replace the catalog")
	}
	if len(cs.Updates) != 1 || cs.Updates[0].ID != "id-1" {
		t.Fatalf("expected one update for id-1, got %+v", cs.Updates)
	}
	if cs.Updates[0].Price.Cents != 500 {
		t.Fatalf("update must carry the imported price, got %d", cs.Updates[0].Price.Cents)
	}
	if len(cs.Inserts) != 1 || cs.Inserts[0].ID != "id-2" {
		t.Fatalf("expected one insert for id-2, got %+v", cs.Inserts)
	}
	if len(cs.SeedEvents) != 1 {
		t.Fatalf("expected one seed event, got %d", len(cs.SeedEvents))
	}
	seed := cs.SeedEvents[0]
	if seed.DrinkID != "id-2" || seed.Quantity != 4 || seed.UnitPrice.Cents != 300 {
		t.Fatalf("seed event wrong: %+v", seed)
	}
	if !seed.LoggedAt.Equal(reconcileNow) {
		t.Fatalf("seed event must be stamped with import time, got %v", seed.LoggedAt)
	}
}

func TestReconcileMergeSeedsMatchedDrinks(t *testing.T) {
	existing := []core.Drink{{ID: "id-1", Name: "A", Order: 1}}
	doc := ExportDocument{Drinks: []DrinkSnapshot{
		{ID: "id-1", Name: "A", Price: 2, Category: "Alcohol", Order: 1, Quantity: 2},
	}}

	cs := Reconcile(existing, doc, ModeMerge, reconcileNow, sequentialIDs())

	if len(cs.Updates) != 1 || len(cs.Inserts) != 0 {
		t.Fatalf("expected only an update, got %+v", cs)
	}
	if len(cs.SeedEvents) != 1 || cs.SeedEvents[0].DrinkID != "id-1" {
		t.Fatalf("matched drink with cantidad must seed an event, got %+v", cs.SeedEvents)
	}
}

func TestReconcileOverwrite(t *testing.T) {
	existing := []core.Drink{
		{ID: "old-1", Name: "Old", Order: 1},
		{ID: "old-2", Name: "Older", Order: 2},
	}
	doc := ExportDocument{Drinks: []DrinkSnapshot{
		{ID: "new-1", Name: "New", Price: 1.5, Category: "Sin Alcohol", Order: 1, Quantity: 2},
	}}

	cs := Reconcile(existing, doc, ModeOverwrite, reconcileNow, sequentialIDs())

	if !cs.ReplaceAll {
		t.Fatal("overwrite must clear the existing catalog and events")
	}
	if len(cs.Updates) != 0 {
		t.Fatalf("overwrite never updates in place, got %+v", cs.Updates)
	}
	if len(cs.Inserts) != 1 || cs.Inserts[0].ID != "new-1" {
		t.Fatalf("expected insert of new-1, got %+v", cs.Inserts)
	}
	if len(cs.SeedEvents) != 1 || cs.SeedEvents[0].Quantity != 2 {
		t.Fatalf("expected one seed event, got %+v", cs.SeedEvents)
	}
}

func TestReconcileCancel(t *testing.T) {
	doc := ExportDocument{Drinks: []DrinkSnapshot{{ID: "x", Name: "X"}}}
	cs := Reconcile(nil, doc, ModeCancel, reconcileNow, sequentialIDs())
	if !cs.Empty() {
		t.Fatalf("cancel must plan nothing, got %+v", cs)
	}
}

func TestReconcileAssignsMissingIDs(t *testing.T) {
	doc := ExportDocument{Drinks: []DrinkSnapshot{
		{Name: "NoID", Price: 2, Category: "Alcohol", Order: 1, Quantity: 1},
	}}

	cs := Reconcile(nil, doc, ModeMerge, reconcileNow, sequentialIDs())

	if len(cs.Inserts) != 1 || cs.Inserts[0].ID != "generated-1" {
		t.Fatalf("snapshot without ID must get a generated one, got %+v", cs.Inserts)
	}
	if cs.SeedEvents[0].DrinkID != "generated-1" {
		t.Fatalf("seed event must reference the generated ID, got %+v", cs.SeedEvents[0])
	}
}
