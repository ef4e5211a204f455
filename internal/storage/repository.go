// Package storage provides the durable SQLite store for drinks and
// consumption events. A single repository instance owns the database handle
// for the lifetime of the process; callers receive it by injection.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"drinktrack/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound marks lookups whose ID matched nothing. Read paths surface it
// to the caller; update/delete paths report "nothing changed" instead.
var ErrNotFound = errors.New("not found")

const retentionKey = "retention_days"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- Drinks ---

// ListDrinks returns the catalog sorted by display order ascending.
func (r *SQLiteRepository) ListDrinks(ctx context.Context) ([]core.Drink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, emoji, price_cents, category, sort_order
		 FROM drinks ORDER BY sort_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}
	defer rows.Close()

	var drinks []core.Drink
	for rows.Next() {
		d, err := scanDrink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan drink: %w", err)
		}
		drinks = append(drinks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drinks: %w", err)
	}
	return drinks, nil
}

func (r *SQLiteRepository) GetDrink(ctx context.Context, id string) (core.Drink, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, emoji, price_cents, category, sort_order
		 FROM drinks WHERE id = ?`, id)
	d, err := scanDrink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Drink{}, fmt.Errorf("get drink %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Drink{}, fmt.Errorf("get drink %s: %w", id, err)
	}
	return d, nil
}

// CreateDrink inserts a new drink with a fresh UUID and an order value of
// current max order + 1.
func (r *SQLiteRepository) CreateDrink(ctx context.Context, name, emoji string, price core.Money, category core.Category) (core.Drink, error) {
	var maxOrder sql.NullInt32
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM drinks`).Scan(&maxOrder); err != nil {
		return core.Drink{}, fmt.Errorf("max drink order: %w", err)
	}

	d := core.Drink{
		ID:       uuid.NewString(),
		Name:     name,
		Emoji:    emoji,
		Price:    price,
		Category: category,
		Order:    maxOrder.Int32 + 1,
	}
	if err := insertDrink(ctx, r.db, d); err != nil {
		return core.Drink{}, fmt.Errorf("create drink: %w", err)
	}

	slog.InfoContext(ctx, "Drink created",
		"drink_id", d.ID, "name", d.Name, "price_cents", d.Price.Cents, "order", d.Order)
	return d, nil
}

// UpdateDrink replaces the mutable fields in place, leaving the display
// order untouched. Returns false when the ID matches nothing.
func (r *SQLiteRepository) UpdateDrink(ctx context.Context, id, name, emoji string, price core.Money, category core.Category) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE drinks SET name = ?, emoji = ?, price_cents = ?, category = ? WHERE id = ?`,
		name, emoji, price.Cents, string(category), id)
	if err != nil {
		return false, fmt.Errorf("update drink %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update drink rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteDrink removes the drink record only. Its consumption events keep
// their drink_id reference and stay in place.
func (r *SQLiteRepository) DeleteDrink(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drinks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete drink %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete drink rows affected: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Drink deleted", "drink_id", id)
	}
	return n > 0, nil
}

// --- Consumption events ---

// AddConsumption logs one consumption event. The unit price is captured now
// and never follows later catalog edits.
func (r *SQLiteRepository) AddConsumption(ctx context.Context, drinkID string, quantity int, unitPrice core.Money, note string, at time.Time) (core.ConsumptionEvent, error) {
	e := core.ConsumptionEvent{
		ID:        uuid.NewString(),
		DrinkID:   drinkID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Note:      note,
		LoggedAt:  at,
	}
	if err := e.Validate(); err != nil {
		return core.ConsumptionEvent{}, fmt.Errorf("add consumption: %w", err)
	}
	if err := insertEvent(ctx, r.db, e); err != nil {
		return core.ConsumptionEvent{}, fmt.Errorf("add consumption: %w", err)
	}

	slog.InfoContext(ctx, "Consumption logged",
		"event_id", e.ID, "drink_id", drinkID, "quantity", quantity, "unit_price_cents", unitPrice.Cents)
	return e, nil
}

// EventFilter selects which events ListEvents returns. The zero value means
// all events.
type EventFilter struct {
	// Day restricts to [start-of-day, start-of-next-day) in the day's
	// location.
	Day *time.Time
	// LastDays restricts to a rolling window of N days ending now.
	LastDays int
}

func AllEvents() EventFilter              { return EventFilter{} }
func EventsOn(day time.Time) EventFilter  { return EventFilter{Day: &day} }
func EventsLastDays(days int) EventFilter { return EventFilter{LastDays: days} }

// ListEvents returns events matching the filter, newest first.
func (r *SQLiteRepository) ListEvents(ctx context.Context, filter EventFilter) ([]core.ConsumptionEvent, error) {
	query := `SELECT id, drink_id, quantity, unit_price_cents, note, logged_at
	          FROM consumption_events`
	var args []any

	switch {
	case filter.Day != nil:
		start := core.StartOfDay(*filter.Day)
		end := start.AddDate(0, 0, 1)
		query += ` WHERE logged_at >= ? AND logged_at < ?`
		args = append(args, start.Unix(), end.Unix())
	case filter.LastDays > 0:
		start := time.Now().AddDate(0, 0, -filter.LastDays)
		query += ` WHERE logged_at >= ?`
		args = append(args, start.Unix())
	}
	query += ` ORDER BY logged_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []core.ConsumptionEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// UpdateEventQuantity sets the quantity of an existing event in place; the
// event keeps its ID, captured price and timestamp.
func (r *SQLiteRepository) UpdateEventQuantity(ctx context.Context, id string, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, fmt.Errorf("update event quantity: %w", core.ErrInvalidQuantity)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE consumption_events SET quantity = ? WHERE id = ?`, quantity, id)
	if err != nil {
		return false, fmt.Errorf("update event %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update event rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM consumption_events WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete event %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete event rows affected: %w", err)
	}
	return n > 0, nil
}

// PurgeEventsOlderThan bulk-deletes events logged before cutoff and returns
// the number removed.
func (r *SQLiteRepository) PurgeEventsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM consumption_events WHERE logged_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge events rows affected: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Old consumption events purged", "removed", n, "cutoff", cutoff)
	}
	return n, nil
}

// --- Seeding ---

// SeedDefaultDrinks inserts the fixed default set on first launch. Each
// insert is guarded by a per-name existence check, so re-running after a
// partial seed completes it without duplicating names. A catalog that
// already contains non-default drinks is left untouched.
func (r *SQLiteRepository) SeedDefaultDrinks(ctx context.Context) error {
	var custom int
	defaults := core.DefaultDrinks()
	names := make([]any, len(defaults))
	placeholders := ""
	for i, d := range defaults {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		names[i] = d.Name
	}
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM drinks WHERE name NOT IN (`+placeholders+`)`, names...).Scan(&custom)
	if err != nil {
		return fmt.Errorf("count custom drinks: %w", err)
	}
	if custom > 0 {
		return nil
	}

	seeded := 0
	for i, d := range defaults {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM drinks WHERE name = ?`, d.Name).Scan(&exists); err != nil {
			return fmt.Errorf("check default drink %s: %w", d.Name, err)
		}
		if exists > 0 {
			continue
		}
		drink := core.Drink{
			ID:       uuid.NewString(),
			Name:     d.Name,
			Emoji:    d.Emoji,
			Price:    d.Price,
			Category: d.Category,
			Order:    int32(i + 1),
		}
		if err := insertDrink(ctx, r.db, drink); err != nil {
			return fmt.Errorf("seed default drink %s: %w", d.Name, err)
		}
		seeded++
	}
	if seeded > 0 {
		slog.InfoContext(ctx, "Default drinks seeded", "count", seeded)
	}
	return nil
}

// --- Catalog change sets ---

// ApplyChangeSet commits a planned catalog mutation in one transaction.
// Partial application is never visible: on any failure the transaction rolls
// back and the error is surfaced.
func (r *SQLiteRepository) ApplyChangeSet(ctx context.Context, cs core.ChangeSet) error {
	if cs.Empty() {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog transaction: %w", err)
	}
	defer tx.Rollback()

	if cs.ReplaceAll {
		if _, err := tx.ExecContext(ctx, `DELETE FROM consumption_events`); err != nil {
			return fmt.Errorf("clear events: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM drinks`); err != nil {
			return fmt.Errorf("clear drinks: %w", err)
		}
	}

	for _, d := range cs.Updates {
		if _, err := tx.ExecContext(ctx,
			`UPDATE drinks SET name = ?, emoji = ?, price_cents = ?, category = ?, sort_order = ? WHERE id = ?`,
			d.Name, d.Emoji, d.Price.Cents, string(d.Category), d.Order, d.ID); err != nil {
			return fmt.Errorf("apply drink update %s: %w", d.ID, err)
		}
	}
	for _, d := range cs.Inserts {
		if err := insertDrink(ctx, tx, d); err != nil {
			return fmt.Errorf("apply drink insert %s: %w", d.ID, err)
		}
	}
	for _, e := range cs.SeedEvents {
		if err := insertEvent(ctx, tx, e); err != nil {
			return fmt.Errorf("apply seed event %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog transaction: %w", err)
	}

	slog.InfoContext(ctx, "Catalog change set applied",
		"replace_all", cs.ReplaceAll,
		"updates", len(cs.Updates),
		"inserts", len(cs.Inserts),
		"seed_events", len(cs.SeedEvents))
	return nil
}

// --- Settings ---

// RetentionDays returns the persisted retention setting; 0 means purging is
// disabled.
func (r *SQLiteRepository) RetentionDays(ctx context.Context) (int, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, retentionKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read retention setting: %w", err)
	}
	days, err := strconv.Atoi(value)
	if err != nil || days < 0 {
		return 0, nil
	}
	return days, nil
}

func (r *SQLiteRepository) SetRetentionDays(ctx context.Context, days int) error {
	if days < 0 {
		days = 0
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		retentionKey, strconv.Itoa(days))
	if err != nil {
		return fmt.Errorf("write retention setting: %w", err)
	}
	slog.InfoContext(ctx, "Retention setting updated", "retention_days", days)
	return nil
}

// --- scanning helpers ---

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertDrink(ctx context.Context, db execer, d core.Drink) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO drinks (id, name, emoji, price_cents, category, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Emoji, d.Price.Cents, string(d.Category), d.Order)
	return err
}

func insertEvent(ctx context.Context, db execer, e core.ConsumptionEvent) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO consumption_events (id, drink_id, quantity, unit_price_cents, note, logged_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.DrinkID, e.Quantity, e.UnitPrice.Cents, e.Note, e.LoggedAt.Unix())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDrink(row rowScanner) (core.Drink, error) {
	var d core.Drink
	var cents int64
	var category string
	if err := row.Scan(&d.ID, &d.Name, &d.Emoji, &cents, &category, &d.Order); err != nil {
		return core.Drink{}, err
	}
	d.Price = core.Money{Cents: cents}
	d.Category = core.Category(category)
	return d, nil
}

func scanEvent(row rowScanner) (core.ConsumptionEvent, error) {
	var e core.ConsumptionEvent
	var cents, loggedAt int64
	if err := row.Scan(&e.ID, &e.DrinkID, &e.Quantity, &cents, &e.Note, &loggedAt); err != nil {
		return core.ConsumptionEvent{}, err
	}
	e.UnitPrice = core.Money{Cents: cents}
	e.LoggedAt = time.Unix(loggedAt, 0)
	return e, nil
}
