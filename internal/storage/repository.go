package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"gasolina/internal/core"
	"gasolina/internal/ports"

	_ "modernc.org/sqlite"
)

const budgetSettingKey = "monthly_budget"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
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

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Append implements ports.EntryWriter
func (r *SQLiteRepository) Append(ctx context.Context, e core.Entry) (core.Entry, error) {
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}
	row, err := r.queries.CreateEntry(ctx, CreateEntryParams{
		ID:            e.ID,
		VehicleID:     e.VehicleID,
		Date:          e.Date.String(),
		Liters:        e.Liters,
		PricePerLiter: e.PricePerLiter,
		TotalCost:     e.TotalCost,
		Odometer:      e.Odometer,
		Notes:         e.Notes,
	})
	if err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", row.ID,
		"date", row.Date,
		"total_cost", row.TotalCost,
		"liters", row.Liters,
		"odometer", row.Odometer)

	return toCore(row)
}

// ListEntries implements ports.EntryLister
func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.queries.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	entries := make([]core.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := toCore(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// DeleteEntry implements ports.EntryDeleter
func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}

	slog.InfoContext(ctx, "Entry deleted from SQLite", "id", id)
	return nil
}

// MaxEntryID returns the highest stored id, or 0 for an empty table.
func (r *SQLiteRepository) MaxEntryID(ctx context.Context) (int64, error) {
	id, err := r.queries.GetMaxEntryID(ctx)
	if err != nil {
		return 0, fmt.Errorf("get max entry id: %w", err)
	}
	return id, nil
}

// Budget implements ports.BudgetStore. A missing setting is an unset budget.
func (r *SQLiteRepository) Budget(ctx context.Context) (float64, error) {
	s, err := r.queries.GetSetting(ctx, budgetSettingKey)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get budget: %w", err)
	}
	d, err := decimal.NewFromString(s.Value)
	if err != nil {
		return 0, fmt.Errorf("parse stored budget %q: %w", s.Value, err)
	}
	return d.InexactFloat64(), nil
}

// SetBudget implements ports.BudgetStore. The amount is stored as a decimal string.
func (r *SQLiteRepository) SetBudget(ctx context.Context, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %v", core.ErrNegativeBudget, amount)
	}
	value := decimal.NewFromFloat(amount).String()
	if err := r.queries.UpsertSetting(ctx, UpsertSettingParams{Key: budgetSettingKey, Value: value}); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget updated", "budget", value)
	return nil
}

// ImportEntries stores entries with their existing ids in one transaction.
// Entries whose id already exists are skipped. It returns how many were inserted.
func (r *SQLiteRepository) ImportEntries(ctx context.Context, entries []core.Entry) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	inserted := 0
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("entry %d: %w", e.ID, err)
		}
		n, err := q.CountEntryByID(ctx, e.ID)
		if err != nil {
			return 0, fmt.Errorf("check entry %d: %w", e.ID, err)
		}
		if n > 0 {
			continue
		}
		if _, err := q.CreateEntry(ctx, CreateEntryParams{
			ID:            e.ID,
			VehicleID:     e.VehicleID,
			Date:          e.Date.String(),
			Liters:        e.Liters,
			PricePerLiter: e.PricePerLiter,
			TotalCost:     e.TotalCost,
			Odometer:      e.Odometer,
			Notes:         e.Notes,
		}); err != nil {
			return 0, fmt.Errorf("import entry %d: %w", e.ID, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Entries imported", "inserted", inserted, "skipped", len(entries)-inserted)
	return inserted, nil
}

func toCore(row Entry) (core.Entry, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %d: %w", row.ID, err)
	}
	return core.Entry{
		ID:            row.ID,
		VehicleID:     row.VehicleID,
		Date:          date,
		Liters:        row.Liters,
		PricePerLiter: row.PricePerLiter,
		TotalCost:     row.TotalCost,
		Odometer:      row.Odometer,
		Notes:         row.Notes,
	}, nil
}
