package core

import (
	"slices"
	"time"
)

type (
	// Summary is the aggregate of an entry collection.
	Summary struct {
		EntryCount       int     `json:"entryCount"`
		TotalSpent       float64 `json:"totalSpent"`
		TotalLiters      float64 `json:"totalLiters"`
		AvgPricePerLiter float64 `json:"avgPricePerLiter"`
		AvgConsumption   float64 `json:"avgConsumption"`
		TotalDistance    int64   `json:"totalDistance"`
		SpentThisMonth   float64 `json:"spentThisMonth"`
	}

	// Statistics is everything the dashboard needs for one collection and budget.
	Statistics struct {
		Summary
		Budget BudgetStatus `json:"budget"`
		// Month is the calendar month spentThisMonth refers to, as YYYY-MM.
		Month string `json:"month"`
	}

	// Clock supplies the evaluation instant.
	Clock interface {
		Now() time.Time
	}

	// ClockFunc adapts a function to Clock.
	ClockFunc func() time.Time

	// Engine computes Statistics against an injected clock.
	Engine struct {
		clock Clock
	}
)

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// NewEngine creates an engine. A nil clock means the system clock.
func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock
	}
	return &Engine{clock: clock}
}

// Now returns the engine's evaluation instant.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// Compute evaluates entries and budget at the engine clock's current instant.
func (e *Engine) Compute(entries []Entry, budget float64) Statistics {
	return ComputeAt(entries, budget, e.clock.Now())
}

// ComputeAt is Compute with an explicit instant.
func ComputeAt(entries []Entry, budget float64, now time.Time) Statistics {
	s := Summarize(entries, now)
	return Statistics{
		Summary: s,
		Budget:  EvaluateBudget(s.SpentThisMonth, budget),
		Month:   now.Format("2006-01"),
	}
}

// Summarize aggregates entries. The input order never matters and the input is not modified.
//
// AvgPricePerLiter is the mean of each qualifying entry's own unit price
// (totalCost/liters), so every fill-up weighs the same regardless of volume.
func Summarize(entries []Entry, now time.Time) Summary {
	s := Summary{EntryCount: len(entries)}
	if len(entries) == 0 {
		return s
	}

	// Float sums depend on addition order; a canonical order keeps results
	// identical under any permutation of the input.
	entries = canonical(entries)

	var priceSum float64
	var priced int
	for _, e := range entries {
		s.TotalSpent += e.TotalCost
		s.TotalLiters += e.Liters
		if e.HasLiters() && e.TotalCost > 0 {
			priceSum += e.TotalCost / e.Liters
			priced++
		}
	}
	if priced > 0 {
		s.AvgPricePerLiter = priceSum / float64(priced)
	}

	d := ResolveDistance(entries)
	s.TotalDistance = d.Total
	s.AvgConsumption = d.AvgConsumption
	s.SpentThisMonth = spentInMonth(entries, now)
	return s
}

func canonical(entries []Entry) []Entry {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, chronological)
	return sorted
}

// HasLiterData reports whether liter-based metrics are meaningful.
func (s Summary) HasLiterData() bool { return s.TotalLiters > 0 }

// HasDistanceData reports whether a distance could be inferred.
func (s Summary) HasDistanceData() bool { return s.TotalDistance > 0 }

// HasConsumption reports whether an average consumption could be computed.
func (s Summary) HasConsumption() bool { return s.AvgConsumption > 0 }
