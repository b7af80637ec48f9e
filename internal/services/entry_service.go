package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"gasolina/internal/core"
	"gasolina/internal/ports"
)

// EventType names a change notification.
type EventType string

const (
	EventEntryCreated  EventType = "entry.created"
	EventEntryDeleted  EventType = "entry.deleted"
	EventBudgetUpdated EventType = "budget.updated"
)

type (
	// EntryStore is everything the services need from a backend.
	EntryStore interface {
		ports.EntryWriter
		ports.EntryLister
		ports.EntryDeleter
		ports.BudgetStore
	}

	// Event describes a completed change.
	Event struct {
		Type   EventType
		Entry  core.Entry
		Budget float64
	}

	// EventPublisher delivers change events to other processes.
	EventPublisher interface {
		Publish(ctx context.Context, ev Event) error
	}

	// Invalidator drops derived data after a change.
	Invalidator interface {
		Invalidate()
	}
)

// EntryService orchestrates entry operations across the store and the event bus
type EntryService struct {
	store     EntryStore
	ids       *core.IDSource
	publisher EventPublisher
	observers []Invalidator
}

// NewEntryService wires the service. publisher may be nil.
func NewEntryService(store EntryStore, ids *core.IDSource, publisher EventPublisher) *EntryService {
	if ids == nil {
		ids = core.NewIDSource(nil)
	}
	return &EntryService{
		store:     store,
		ids:       ids,
		publisher: publisher,
	}
}

// OnChange registers i to be invalidated after every successful mutation.
func (s *EntryService) OnChange(i Invalidator) {
	s.observers = append(s.observers, i)
}

// CreateEntry assigns an id, derives a missing total cost, validates and stores the entry.
func (s *EntryService) CreateEntry(ctx context.Context, in core.EntryInput) (core.Entry, error) {
	e, err := in.Build(s.ids.Next())
	if err != nil {
		return core.Entry{}, err
	}

	saved, err := s.store.Append(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("save entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry created",
		"id", saved.ID,
		"date", saved.Date.String(),
		"total_cost", saved.TotalCost,
		"liters", saved.Liters,
		"odometer", saved.Odometer)

	s.changed(ctx, Event{Type: EventEntryCreated, Entry: saved})
	return saved, nil
}

// DeleteEntry removes an entry. Unknown ids yield ports.ErrNotFound.
func (s *EntryService) DeleteEntry(ctx context.Context, id int64) error {
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry deleted", "id", id)
	s.changed(ctx, Event{Type: EventEntryDeleted, Entry: core.Entry{ID: id}})
	return nil
}

// SetBudget stores the monthly budget. Zero clears it.
func (s *EntryService) SetBudget(ctx context.Context, amount float64) error {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: %v", core.ErrNegativeBudget, amount)
	}
	if err := s.store.SetBudget(ctx, amount); err != nil {
		return fmt.Errorf("save budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget updated", "budget", amount)
	s.changed(ctx, Event{Type: EventBudgetUpdated, Budget: amount})
	return nil
}

// ListEntries returns every entry, newest first.
func (s *EntryService) ListEntries(ctx context.Context) ([]core.Entry, error) {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// Budget returns the stored monthly budget.
func (s *EntryService) Budget(ctx context.Context) (float64, error) {
	b, err := s.store.Budget(ctx)
	if err != nil {
		return 0, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *EntryService) changed(ctx context.Context, ev Event) {
	for _, o := range s.observers {
		o.Invalidate()
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event", "type", ev.Type)
		return
	}
	// The change is already stored; a failed publish must not fail the request.
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event",
			"type", ev.Type, "id", ev.Entry.ID, "error", err)
	}
}

// Close closes the store and publisher when they hold resources.
func (s *EntryService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close entry service: %w", err)
	}
	return nil
}
