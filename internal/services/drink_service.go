package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"drinktrack/internal/amqp"
	"drinktrack/internal/catalog"
	"drinktrack/internal/core"
	"drinktrack/internal/storage"
)

// DrinkService orchestrates catalog and consumption operations across SQLite
// and AMQP
type DrinkService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewDrinkService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *DrinkService {
	return &DrinkService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// ListDrinks returns the catalog ordered by display position
func (s *DrinkService) ListDrinks(ctx context.Context) ([]core.Drink, error) {
	return s.storage.ListDrinks(ctx)
}

func (s *DrinkService) GetDrink(ctx context.Context, id string) (core.Drink, error) {
	return s.storage.GetDrink(ctx, id)
}

// CreateDrink adds a drink to the catalog and publishes a change notification
func (s *DrinkService) CreateDrink(ctx context.Context, name, emoji string, price core.Money, category core.Category) (core.Drink, error) {
	d, err := s.storage.CreateDrink(ctx, name, emoji, price, category)
	if err != nil {
		return core.Drink{}, fmt.Errorf("create drink: %w", err)
	}

	s.publishChange(ctx, amqp.KindCatalogChanged, d.ID)
	return d, nil
}

// UpdateDrink rewrites a drink in place. Returns false when the drink does
// not exist.
func (s *DrinkService) UpdateDrink(ctx context.Context, id, name, emoji string, price core.Money, category core.Category) (bool, error) {
	changed, err := s.storage.UpdateDrink(ctx, id, name, emoji, price, category)
	if err != nil {
		return false, fmt.Errorf("update drink: %w", err)
	}

	if changed {
		s.publishChange(ctx, amqp.KindCatalogChanged, id)
	}
	return changed, nil
}

// DeleteDrink removes a drink from the catalog. Consumption history for the
// drink is kept.
func (s *DrinkService) DeleteDrink(ctx context.Context, id string) (bool, error) {
	changed, err := s.storage.DeleteDrink(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete drink: %w", err)
	}

	if changed {
		s.publishChange(ctx, amqp.KindCatalogChanged, id)
	}
	return changed, nil
}

// LogConsumption records one consumption event, pricing it at the drink's
// current price unless an explicit unit price is given.
func (s *DrinkService) LogConsumption(ctx context.Context, drinkID string, quantity int, unitPrice *core.Money, note string) (core.ConsumptionEvent, error) {
	price := core.Money{}
	if unitPrice != nil {
		price = *unitPrice
	} else {
		d, err := s.storage.GetDrink(ctx, drinkID)
		if err != nil {
			return core.ConsumptionEvent{}, fmt.Errorf("resolve drink price: %w", err)
		}
		price = d.Price
	}

	e, err := s.storage.AddConsumption(ctx, drinkID, quantity, price, note, time.Now())
	if err != nil {
		return core.ConsumptionEvent{}, fmt.Errorf("log consumption: %w", err)
	}

	s.publishChange(ctx, amqp.KindConsumptionLogged, drinkID)
	return e, nil
}

// DecrementConsumption undoes the most recent of today's events for a drink:
// quantities above one are decremented in place, a quantity of one removes
// the event. Returns false when the drink has no event today.
func (s *DrinkService) DecrementConsumption(ctx context.Context, drinkID string) (bool, error) {
	events, err := s.storage.ListEvents(ctx, storage.EventsOn(time.Now()))
	if err != nil {
		return false, fmt.Errorf("list today's events: %w", err)
	}

	// Events come back newest first.
	for _, e := range events {
		if e.DrinkID != drinkID {
			continue
		}
		if e.Quantity > 1 {
			return s.storage.UpdateEventQuantity(ctx, e.ID, e.Quantity-1)
		}
		return s.storage.DeleteEvent(ctx, e.ID)
	}

	return false, nil
}

// ResetToday removes today's events for one drink, or for every drink when
// drinkID is empty, and returns how many were deleted.
func (s *DrinkService) ResetToday(ctx context.Context, drinkID string) (int, error) {
	events, err := s.storage.ListEvents(ctx, storage.EventsOn(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("list today's events: %w", err)
	}

	deleted := 0
	for _, e := range events {
		if drinkID != "" && e.DrinkID != drinkID {
			continue
		}
		changed, err := s.storage.DeleteEvent(ctx, e.ID)
		if err != nil {
			return deleted, fmt.Errorf("delete event %s: %w", e.ID, err)
		}
		if changed {
			deleted++
		}
	}

	return deleted, nil
}

func (s *DrinkService) ListEvents(ctx context.Context, filter storage.EventFilter) ([]core.ConsumptionEvent, error) {
	return s.storage.ListEvents(ctx, filter)
}

// DeleteEvent removes one event. Returns false when the ID matches nothing.
func (s *DrinkService) DeleteEvent(ctx context.Context, id string) (bool, error) {
	return s.storage.DeleteEvent(ctx, id)
}

// TodayTotals returns the total quantity and cost of everything logged today
func (s *DrinkService) TodayTotals(ctx context.Context) (int, core.Money, error) {
	events, err := s.storage.ListEvents(ctx, storage.EventsOn(time.Now()))
	if err != nil {
		return 0, core.Money{}, fmt.Errorf("list today's events: %w", err)
	}

	count, total := core.TotalsForToday(events, time.Now())
	return count, total, nil
}

// DailySeries returns one per-drink consumption bucket per calendar day for
// the trailing window, oldest first.
func (s *DrinkService) DailySeries(ctx context.Context, days int) ([]core.DailyConsumption, error) {
	events, err := s.storage.ListEvents(ctx, storage.EventsLastDays(days))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	drinks, err := s.storage.ListDrinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}

	return core.DailySeries(events, drinks, days, time.Now()), nil
}

// DailySpendSeries returns one spend bucket per calendar day for the
// trailing window, oldest first.
func (s *DrinkService) DailySpendSeries(ctx context.Context, days int) ([]core.DailySpend, error) {
	events, err := s.storage.ListEvents(ctx, storage.EventsLastDays(days))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return core.DailySpendSeries(events, days, time.Now()), nil
}

// ConsumptionByType aggregates the trailing week's events per drink, most
// consumed first.
func (s *DrinkService) ConsumptionByType(ctx context.Context) ([]core.TypeCount, error) {
	events, err := s.storage.ListEvents(ctx, storage.EventsLastDays(7))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	drinks, err := s.storage.ListDrinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}

	return core.ByTypeLastWeek(events, drinks, time.Now()), nil
}

// ImportCatalog applies a previously exported document to the catalog and
// publishes a change notification when anything was applied.
func (s *DrinkService) ImportCatalog(ctx context.Context, data []byte, mode catalog.Mode) (catalog.ImportSummary, error) {
	summary, err := catalog.NewImporter(s.storage).Import(ctx, data, mode)
	if err != nil {
		return catalog.ImportSummary{}, err
	}

	if summary.Mode != catalog.ModeCancel {
		s.publishChange(ctx, amqp.KindCatalogChanged, "")
	}
	return summary, nil
}

// ExportCatalog serializes the current catalog into the portable document
// format.
func (s *DrinkService) ExportCatalog(ctx context.Context) ([]byte, error) {
	drinks, err := s.storage.ListDrinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}

	return catalog.Serialize(catalog.Export(drinks, time.Now()))
}

// PurgeExpired deletes events older than the persisted retention window.
// A retention of zero disables purging.
func (s *DrinkService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	days, err := s.storage.RetentionDays(ctx)
	if err != nil {
		return 0, fmt.Errorf("read retention: %w", err)
	}
	if days <= 0 {
		return 0, nil
	}

	cutoff := core.StartOfDay(now).AddDate(0, 0, -days)
	purged, err := s.storage.PurgeEventsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge events: %w", err)
	}

	if purged > 0 {
		slog.InfoContext(ctx, "Purged expired consumption events",
			"purged", purged, "retention_days", days)
	}
	return purged, nil
}

func (s *DrinkService) RetentionDays(ctx context.Context) (int, error) {
	return s.storage.RetentionDays(ctx)
}

func (s *DrinkService) SetRetentionDays(ctx context.Context, days int) error {
	if days < 0 {
		return fmt.Errorf("retention days must be zero or positive, got %d", days)
	}
	return s.storage.SetRetentionDays(ctx, days)
}

// SeedDefaults installs the built-in catalog on first run
func (s *DrinkService) SeedDefaults(ctx context.Context) error {
	return s.storage.SeedDefaultDrinks(ctx)
}

func (s *DrinkService) publishChange(ctx context.Context, kind, drinkID string) {
	if s.amqpClient == nil {
		return
	}

	if err := s.amqpClient.PublishChange(ctx, kind, drinkID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"kind", kind, "drink_id", drinkID, "error", err)
		// Don't fail the request - the local write succeeded
	}
}

// Close closes both storage and AMQP connections
func (s *DrinkService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close drink service: %v", errs)
	}

	return nil
}
