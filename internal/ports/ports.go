package ports

import (
	"context"
	"errors"

	"gasolina/internal/core"
)

// ErrNotFound is returned when an entry id does not exist.
var ErrNotFound = errors.New("entry not found")

// Ports for outbound adapters.
type (
	EntryWriter interface {
		// Append stores a new entry. The id is already assigned by the caller.
		Append(ctx context.Context, e core.Entry) (core.Entry, error)
	}

	// EntryLister returns the stored entries, newest first (date desc, then id desc).
	EntryLister interface {
		ListEntries(ctx context.Context) ([]core.Entry, error)
	}

	// EntryDeleter removes a single entry by id.
	EntryDeleter interface {
		// DeleteEntry returns ErrNotFound when no entry has the given id.
		DeleteEntry(ctx context.Context, id int64) error
	}

	// BudgetStore keeps the monthly budget. Zero means unset.
	BudgetStore interface {
		Budget(ctx context.Context) (float64, error)
		SetBudget(ctx context.Context, amount float64) error
	}
)
