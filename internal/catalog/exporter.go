package catalog

import (
	"time"

	"drinktrack/internal/core"
)

// Export builds the versioned envelope for the current catalog state. One
// snapshot per drink, order and fields preserved, no embedded quantities.
func Export(drinks []core.Drink, now time.Time) ExportDocument {
	snapshots := make([]DrinkSnapshot, 0, len(drinks))
	for _, d := range drinks {
		snapshots = append(snapshots, Snapshot(d))
	}
	return ExportDocument{
		Version:    FormatVersion,
		ExportDate: now.Truncate(time.Second),
		Drinks:     snapshots,
	}
}
