package core

// ChangeSet is a planned catalog mutation, produced by import reconciliation
// and applied by the store in a single transaction. Either every operation in
// the set becomes visible or none do.
type ChangeSet struct {
	// ReplaceAll deletes every existing consumption event and drink before
	// the inserts are applied (overwrite mode).
	ReplaceAll bool

	// Updates replace the mutable fields (name, emoji, price, category,
	// order) of existing drinks in place; identity and historical events are
	// preserved.
	Updates []Drink

	// Inserts add new drinks with their imported IDs preserved.
	Inserts []Drink

	// SeedEvents are consumption events created from embedded import
	// quantities.
	SeedEvents []ConsumptionEvent
}

// Empty reports whether applying the set would change nothing.
func (cs ChangeSet) Empty() bool {
	return !cs.ReplaceAll && len(cs.Updates) == 0 && len(cs.Inserts) == 0 && len(cs.SeedEvents) == 0
}
