package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gasolina/internal/core"
	"gasolina/internal/ports"
	"gasolina/internal/ports/memory"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func newTestService(pub EventPublisher) (*EntryService, *memory.Store) {
	store := memory.New()
	ids := core.NewIDSource(core.FixedClock(time.UnixMilli(1_700_000_000_000)))
	return NewEntryService(store, ids, pub), store
}

func TestEntryService_CreateEntry(t *testing.T) {
	pub := &fakePublisher{}
	svc, store := newTestService(pub)
	inv := &countingInvalidator{}
	svc.OnChange(inv)

	e, err := svc.CreateEntry(context.Background(), core.EntryInput{
		Date:          core.NewDate(2024, 3, 1),
		Liters:        40,
		PricePerLiter: 1.559,
		Odometer:      12000,
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if e.ID != 1_700_000_000_000 {
		t.Errorf("unexpected id %d", e.ID)
	}
	if e.VehicleID != core.DefaultVehicleID {
		t.Errorf("vehicle id should default, got %d", e.VehicleID)
	}
	if e.TotalCost != 62.36 {
		t.Errorf("expected derived cost 62.36, got %v", e.TotalCost)
	}

	list, _ := store.ListEntries(context.Background())
	if len(list) != 1 || list[0] != e {
		t.Fatalf("entry not stored: %+v", list)
	}
	if len(pub.events) != 1 || pub.events[0].Type != EventEntryCreated || pub.events[0].Entry.ID != e.ID {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
	if inv.n != 1 {
		t.Errorf("expected one invalidation, got %d", inv.n)
	}

	second, err := svc.CreateEntry(context.Background(), core.EntryInput{Date: core.NewDate(2024, 3, 2), TotalCost: 20})
	if err != nil {
		t.Fatalf("second CreateEntry: %v", err)
	}
	if second.ID <= e.ID {
		t.Errorf("ids must increase: %d then %d", e.ID, second.ID)
	}
}

func TestEntryService_CreateEntryValidation(t *testing.T) {
	cases := []struct {
		name string
		in   core.EntryInput
		want error
	}{
		{"missing date", core.EntryInput{TotalCost: 10}, core.ErrInvalidDate},
		{"negative liters", core.EntryInput{Date: core.NewDate(2024, 1, 1), Liters: -1, TotalCost: 10}, core.ErrNegativeLiters},
		{"no cost", core.EntryInput{Date: core.NewDate(2024, 1, 1), Liters: 20}, core.ErrMissingCost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pub := &fakePublisher{}
			svc, store := newTestService(pub)
			_, err := svc.CreateEntry(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !core.IsValidationError(err) {
				t.Errorf("%v should be a validation error", err)
			}
			if len(pub.events) != 0 {
				t.Errorf("no event expected on failure")
			}
			if list, _ := store.ListEntries(context.Background()); len(list) != 0 {
				t.Errorf("nothing should be stored")
			}
		})
	}
}

func TestEntryService_PublishFailureIsNotFatal(t *testing.T) {
	svc, _ := newTestService(&fakePublisher{err: errors.New("broker down")})
	if _, err := svc.CreateEntry(context.Background(), core.EntryInput{Date: core.NewDate(2024, 1, 1), TotalCost: 30}); err != nil {
		t.Fatalf("publish failure should not fail the create: %v", err)
	}
}

func TestEntryService_NilPublisher(t *testing.T) {
	svc, _ := newTestService(nil)
	if _, err := svc.CreateEntry(context.Background(), core.EntryInput{Date: core.NewDate(2024, 1, 1), TotalCost: 30}); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
}

func TestEntryService_DeleteEntry(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestService(pub)
	ctx := context.Background()

	e, err := svc.CreateEntry(ctx, core.EntryInput{Date: core.NewDate(2024, 1, 1), TotalCost: 30})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if err := svc.DeleteEntry(ctx, e.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if err := svc.DeleteEntry(ctx, e.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.events) != 2 || pub.events[1].Type != EventEntryDeleted || pub.events[1].Entry.ID != e.ID {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestEntryService_SetBudget(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestService(pub)
	ctx := context.Background()

	if err := svc.SetBudget(ctx, -10); !errors.Is(err, core.ErrNegativeBudget) {
		t.Fatalf("expected ErrNegativeBudget, got %v", err)
	}
	if err := svc.SetBudget(ctx, 250); err != nil {
		t.Fatalf("SetBudget: %v", err)
	}
	if b, _ := svc.Budget(ctx); b != 250 {
		t.Fatalf("expected 250, got %v", b)
	}
	if len(pub.events) != 1 || pub.events[0].Type != EventBudgetUpdated || pub.events[0].Budget != 250 {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestEntryService_Close(t *testing.T) {
	svc, _ := newTestService(nil)
	if err := svc.Close(); err != nil {
		t.Fatalf("Close should not fail for stores without resources: %v", err)
	}
}
