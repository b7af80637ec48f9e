package core

import (
	"math"
	"time"
)

// BudgetStatus is the current month's spend measured against the monthly budget.
// When Set is false no limit was defined and the remaining fields are zero.
type BudgetStatus struct {
	Set        bool    `json:"set"`
	Limit      float64 `json:"limit"`
	Spent      float64 `json:"spent"`
	Percentage float64 `json:"percentage"` // capped at 100
	Remaining  float64 `json:"remaining"`
	Overage    float64 `json:"overage"`
	OverBudget bool    `json:"overBudget"`
}

// SpentInMonth sums the total cost of entries dated in the calendar month of now.
func SpentInMonth(entries []Entry, now time.Time) float64 {
	return spentInMonth(canonical(entries), now)
}

func spentInMonth(entries []Entry, now time.Time) float64 {
	var spent float64
	for _, e := range entries {
		if e.Date.InMonth(now) {
			spent += e.TotalCost
		}
	}
	return spent
}

// EvaluateBudget compares spent with budget. A budget of zero or less is "unset".
func EvaluateBudget(spent, budget float64) BudgetStatus {
	if budget <= 0 || !finite(budget) {
		return BudgetStatus{Spent: spent}
	}
	return BudgetStatus{
		Set:        true,
		Limit:      budget,
		Spent:      spent,
		Percentage: math.Min(spent/budget, 1) * 100,
		Remaining:  math.Max(budget-spent, 0),
		Overage:    math.Max(spent-budget, 0),
		OverBudget: spent > budget,
	}
}

// RawPercentage is spent/limit*100 without the 100 cap, or 0 when unset.
func (b BudgetStatus) RawPercentage() float64 {
	if !b.Set {
		return 0
	}
	return b.Spent / b.Limit * 100
}
