package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CategoryAlcohol    Category = "Alcohol"
	CategoryNonAlcohol Category = "Sin Alcohol"
)

type (
	// Category is the drink category as it appears on the wire.
	Category string

	Money struct {
		Cents int64
	}

	// Drink is a catalog entry: something the user can log a consumption against.
	Drink struct {
		ID       string // UUID
		Name     string
		Emoji    string
		Price    Money // base unit price
		Category Category
		Order    int32 // display order, ascending
	}

	// ConsumptionEvent is one logged serving. DrinkID is a weak reference:
	// deleting a Drink leaves its events in place so spend history survives
	// catalog edits. UnitPrice is captured at logging time and never follows
	// later price edits.
	ConsumptionEvent struct {
		ID        string // UUID
		DrinkID   string
		Quantity  int
		UnitPrice Money
		Note      string
		LoggedAt  time.Time
	}
)

var (
	ErrEmptyName       = errors.New("empty drink name")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// UnknownDrinkName is the display fallback for events whose drink no longer
// resolves.
const UnknownDrinkName = "unknown drink"

func (c Category) Valid() bool {
	return c == CategoryAlcohol || c == CategoryNonAlcohol
}

// Validate checks the constraints for user-facing drink creation. Existing
// records may be edited independently of these rules.
func (d Drink) Validate() error {
	if len(strings.TrimSpace(d.Name)) == 0 {
		return ErrEmptyName
	}
	if d.Price.Cents <= 0 {
		return ErrInvalidPrice
	}
	if !d.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

func (e ConsumptionEvent) Validate() error {
	if e.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if e.UnitPrice.Cents < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// Cost is the total cost of the event: quantity times the captured unit price.
func (e ConsumptionEvent) Cost() Money {
	return Money{Cents: int64(e.Quantity) * e.UnitPrice.Cents}
}

// DefaultDrink describes one entry of the fixed seed set.
type DefaultDrink struct {
	Name     string
	Emoji    string
	Price    Money
	Category Category
}

// DefaultDrinks returns the fixed set inserted on first launch, in display
// order.
func DefaultDrinks() []DefaultDrink {
	return []DefaultDrink{
		{Name: "Cerveza", Emoji: "🍺", Price: Money{Cents: 350}, Category: CategoryAlcohol},
		{Name: "Refresco", Emoji: "🥤", Price: Money{Cents: 200}, Category: CategoryNonAlcohol},
		{Name: "Agua", Emoji: "💧", Price: Money{Cents: 150}, Category: CategoryNonAlcohol},
		{Name: "Vino", Emoji: "🍷", Price: Money{Cents: 400}, Category: CategoryAlcohol},
		{Name: "Copa", Emoji: "🍸", Price: Money{Cents: 600}, Category: CategoryAlcohol},
		{Name: "Café", Emoji: "☕", Price: Money{Cents: 180}, Category: CategoryNonAlcohol},
	}
}

// IsDefaultDrink reports whether name belongs to the fixed seed set.
func IsDefaultDrink(name string) bool {
	for _, d := range DefaultDrinks() {
		if d.Name == name {
			return true
		}
	}
	return false
}

// IndexDrinks builds an ID lookup over a drink list.
func IndexDrinks(drinks []Drink) map[string]Drink {
	idx := make(map[string]Drink, len(drinks))
	for _, d := range drinks {
		idx[d.ID] = d
	}
	return idx
}

// DisplayName resolves an event's drink name, falling back to
// UnknownDrinkName for orphaned references.
func DisplayName(idx map[string]Drink, drinkID string) string {
	if d, ok := idx[drinkID]; ok {
		return d.Name
	}
	return UnknownDrinkName
}
