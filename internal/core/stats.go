package core

import (
	"sort"
	"time"
)

// Statistics are pure reductions over an event list (plus the drink list for
// category lookups). They hold no state and are safe to recompute after any
// mutation.

type (
	// DailyConsumption is one dense bucket of the trailing-week series.
	DailyConsumption struct {
		Date       time.Time // start of day, local time
		Count      int
		HasAlcohol bool
	}

	// DailySpend is one dense bucket of the trailing-week spend series.
	DailySpend struct {
		Date  time.Time
		Total Money
	}

	// TypeCount pairs a drink with its consumption count over a window.
	TypeCount struct {
		Drink Drink
		Count int
	}
)

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(t, day time.Time) bool {
	start := StartOfDay(day)
	end := start.AddDate(0, 0, 1)
	return !t.Before(start) && t.Before(end)
}

// TotalsForToday sums quantity and cost over events logged within
// [start-of-today, start-of-tomorrow) relative to now. Empty input yields
// (0, Money{}).
func TotalsForToday(events []ConsumptionEvent, now time.Time) (int, Money) {
	var count int
	var cost Money
	for _, e := range events {
		if !sameDay(e.LoggedAt, now) {
			continue
		}
		count += e.Quantity
		cost.Cents += e.Cost().Cents
	}
	return count, cost
}

// CountForDrink sums quantities of the given drink over the event list.
func CountForDrink(events []ConsumptionEvent, drinkID string) int {
	var count int
	for _, e := range events {
		if e.DrinkID == drinkID {
			count += e.Quantity
		}
	}
	return count
}

// CostForDrink sums quantity times captured unit price for the given drink.
func CostForDrink(events []ConsumptionEvent, drinkID string) Money {
	var cost Money
	for _, e := range events {
		if e.DrinkID == drinkID {
			cost.Cents += e.Cost().Cents
		}
	}
	return cost
}

// DailySeries buckets events per calendar day across a trailing window of
// `days` days ending today, oldest first. Every day appears even with zero
// events, so charts get a dense series. A day has alcohol if any of its
// events resolves to a drink in the alcohol category; orphaned events never
// mark a day.
func DailySeries(events []ConsumptionEvent, drinks []Drink, days int, now time.Time) []DailyConsumption {
	idx := IndexDrinks(drinks)
	today := StartOfDay(now)

	series := make([]DailyConsumption, 0, days)
	for offset := days - 1; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)
		bucket := DailyConsumption{Date: day}
		for _, e := range events {
			if !sameDay(e.LoggedAt, day) {
				continue
			}
			bucket.Count += e.Quantity
			if d, ok := idx[e.DrinkID]; ok && d.Category == CategoryAlcohol {
				bucket.HasAlcohol = true
			}
		}
		series = append(series, bucket)
	}
	return series
}

// DailySpendSeries is the cost-summed counterpart of DailySeries, with the
// same dense bucketing.
func DailySpendSeries(events []ConsumptionEvent, days int, now time.Time) []DailySpend {
	today := StartOfDay(now)

	series := make([]DailySpend, 0, days)
	for offset := days - 1; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)
		bucket := DailySpend{Date: day}
		for _, e := range events {
			if sameDay(e.LoggedAt, day) {
				bucket.Total.Cents += e.Cost().Cents
			}
		}
		series = append(series, bucket)
	}
	return series
}

// ByTypeLastWeek counts consumptions per drink over the trailing 7 days,
// sorted by count descending. Drinks with no matching events are omitted, so
// the result is a sparse list meant for direct display.
func ByTypeLastWeek(events []ConsumptionEvent, drinks []Drink, now time.Time) []TypeCount {
	weekStart := now.AddDate(0, 0, -7)

	var result []TypeCount
	for _, d := range drinks {
		var count int
		for _, e := range events {
			if e.DrinkID == d.ID && !e.LoggedAt.Before(weekStart) {
				count += e.Quantity
			}
		}
		if count > 0 {
			result = append(result, TypeCount{Drink: d, Count: count})
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	return result
}
