// Package export renders the fill-up history as downloadable reports.
package export

import (
	"errors"
	"strconv"
	"time"

	"gasolina/internal/core"
)

// ErrNothingToExport is returned for an empty collection; an empty report is never written.
var ErrNothingToExport = errors.New("no entries to export")

// Headers are the column titles shared by every format.
var Headers = []string{
	"ID",
	"Fecha",
	"Litros",
	"Precio por Litro (€)",
	"Coste Total (€)",
	"Odómetro (km)",
}

// Report is a chronologically ordered snapshot of the history plus its summary.
type Report struct {
	Entries     []core.Entry
	Summary     core.Summary
	GeneratedAt time.Time
}

// NewReport orders entries oldest first and summarizes them as of now.
func NewReport(entries []core.Entry, now time.Time) (Report, error) {
	if len(entries) == 0 {
		return Report{}, ErrNothingToExport
	}
	return Report{
		Entries:     core.SortOldestFirst(entries),
		Summary:     core.Summarize(entries, now),
		GeneratedAt: now,
	}, nil
}

// Rows renders each entry as text with a decimal comma. Unrecorded values stay 0.
func (r Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Date.String(),
			core.FormatPlain(e.Liters),
			core.FormatPlain(e.PricePerLiter),
			core.FormatPlain(e.TotalCost),
			strconv.FormatInt(e.Odometer, 10),
		})
	}
	return rows
}

// SummaryLine is one labelled figure of the summary block.
type SummaryLine struct {
	Label string
	Value float64
	// Places is the number of decimals the value is shown with.
	Places int32
}

// SummaryLines lists the summary block. Liter and distance lines only appear
// when the history carries that data.
func (r Report) SummaryLines() []SummaryLine {
	s := r.Summary
	lines := []SummaryLine{
		{Label: "Registros", Value: float64(s.EntryCount)},
		{Label: "Gasto Total (€)", Value: s.TotalSpent, Places: 2},
		{Label: "Gasto Este Mes (€)", Value: s.SpentThisMonth, Places: 2},
	}
	if s.HasLiterData() {
		lines = append(lines,
			SummaryLine{Label: "Litros Totales", Value: s.TotalLiters, Places: 2},
			SummaryLine{Label: "Precio Medio (€/L)", Value: s.AvgPricePerLiter, Places: 3},
		)
	}
	if s.HasDistanceData() {
		lines = append(lines, SummaryLine{Label: "Distancia (km)", Value: float64(s.TotalDistance)})
		if s.HasConsumption() {
			lines = append(lines, SummaryLine{Label: "Consumo Medio (L/100km)", Value: s.AvgConsumption, Places: 2})
		}
	}
	return lines
}
