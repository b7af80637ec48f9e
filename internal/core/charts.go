package core

import "slices"

// minChartEntries is the number of entries below which the charts are hidden.
const minChartEntries = 2

type (
	// ChartPoint is one plotted value.
	ChartPoint struct {
		Date  Date    `json:"date"`
		Value float64 `json:"value"`
	}

	// ChartSeries holds the dashboard's cost and unit price history.
	ChartSeries struct {
		Cost   []ChartPoint `json:"cost"`
		Price  []ChartPoint `json:"price"`
		Enough bool         `json:"enough"`
	}
)

// BuildChartSeries orders entries chronologically and extracts the cost of every
// fill-up and the unit price of those that recorded one.
func BuildChartSeries(entries []Entry) ChartSeries {
	sorted := canonical(entries)
	cs := ChartSeries{
		Cost:   make([]ChartPoint, 0, len(sorted)),
		Price:  make([]ChartPoint, 0, len(sorted)),
		Enough: len(sorted) >= minChartEntries,
	}
	for _, e := range sorted {
		cs.Cost = append(cs.Cost, ChartPoint{Date: e.Date, Value: e.TotalCost})
		if e.PricePerLiter > 0 {
			cs.Price = append(cs.Price, ChartPoint{Date: e.Date, Value: e.PricePerLiter})
		}
	}
	return cs
}

// SortNewestFirst returns a copy of entries ordered by date descending, then id descending.
func SortNewestFirst(entries []Entry) []Entry {
	sorted := canonical(entries)
	slices.Reverse(sorted)
	return sorted
}

// SortOldestFirst returns a copy of entries ordered by date ascending, then id ascending.
func SortOldestFirst(entries []Entry) []Entry {
	return canonical(entries)
}
