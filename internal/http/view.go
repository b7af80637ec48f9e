package http

import (
	"math"
	"strconv"
	"strings"
	"time"

	"gasolina/internal/core"
	"gasolina/internal/format"
	"gasolina/internal/services"
)

type (
	// card is one summary tile.
	card struct {
		Title   string
		Value   string
		Subtext string
	}

	budgetView struct {
		Set        bool
		Limit      string
		Spent      string
		Remaining  string
		Overage    string
		Percentage string
		Width      int
		Over       bool
		// Input prefills the budget field with a decimal comma.
		Input string
	}

	chartView struct {
		Title  string
		Points string
		Labels []chartLabel
		Min    string
		Max    string
	}

	chartLabel struct {
		X    float64
		Text string
	}

	entryRow struct {
		ID       int64
		Date     string
		Cost     string
		Liters   string
		Price    string
		Odometer string
		Notes    string
	}

	dashboardView struct {
		Today       string
		Month       string
		Cards       []card
		Budget      budgetView
		Enough      bool
		CostChart   chartView
		PriceChart  chartView
		HasPrices   bool
		Entries     []entryRow
		IconEnabled bool
	}
)

// Chart canvas in SVG user units.
const (
	chartWidth   = 600.0
	chartHeight  = 200.0
	chartPadding = 12.0
	maxAxisTicks = 6
)

func newDashboardView(snap services.Snapshot, now time.Time, iconEnabled bool) dashboardView {
	st := snap.Statistics
	v := dashboardView{
		Today:       now.Format("2006-01-02"),
		Month:       st.Month,
		Cards:       summaryCards(st, len(snap.Entries)),
		Budget:      newBudgetView(st.Budget),
		Enough:      snap.Charts.Enough,
		IconEnabled: iconEnabled,
	}

	if v.Enough {
		v.CostChart = newChartView("Coste Total por Registro (€)", snap.Charts.Cost, 5, 0)
		v.HasPrices = len(snap.Charts.Price) >= 2
		if v.HasPrices {
			v.PriceChart = newChartView("Precio por Litro (€/L)", snap.Charts.Price, 0.05, 2)
		}
	}

	for _, e := range core.SortNewestFirst(snap.Entries) {
		v.Entries = append(v.Entries, entryRow{
			ID:       e.ID,
			Date:     format.Date(e.Date),
			Cost:     format.Euros(e.TotalCost),
			Liters:   format.OptionalLiters(e.Liters),
			Price:    format.OptionalPrice(e.PricePerLiter),
			Odometer: format.OptionalKilometers(e.Odometer),
			Notes:    e.Notes,
		})
	}
	return v
}

// summaryCards shows liter based cards only when liters were recorded and
// the consumption card only when a distance could be inferred.
func summaryCards(st core.Statistics, count int) []card {
	cards := []card{
		{Title: "Gasto Total", Value: format.Euros(st.TotalSpent)},
		{Title: "Gasto Este Mes", Value: format.Euros(st.SpentThisMonth)},
	}
	if st.HasLiterData() {
		cards = append(cards,
			card{Title: "Litros Totales", Value: format.Liters(st.TotalLiters)},
			card{Title: "Precio Medio Est.", Value: format.PricePerLiter(st.AvgPricePerLiter)},
		)
	} else {
		cards = append(cards, card{Title: "Registros", Value: strconv.Itoa(count), Subtext: "Total entradas"})
	}
	if st.HasDistanceData() {
		sub := "Necesita más datos"
		if st.HasConsumption() {
			sub = "L / 100km"
		}
		cards = append(cards,
			card{Title: "Consumo Medio", Value: format.Consumption(st.AvgConsumption), Subtext: sub},
			card{Title: "Distancia", Value: format.Kilometers(st.TotalDistance)},
		)
	}
	return cards
}

func newBudgetView(b core.BudgetStatus) budgetView {
	if !b.Set {
		return budgetView{}
	}
	return budgetView{
		Set:        true,
		Limit:      format.Euros(b.Limit),
		Spent:      format.Euros(b.Spent),
		Remaining:  format.Euros(b.Remaining),
		Overage:    format.Euros(b.Overage),
		Percentage: format.Percent(b.RawPercentage()),
		Width:      int(math.Round(b.Percentage)),
		Over:       b.OverBudget,
		Input:      core.FormatPlain(b.Limit),
	}
}

// newChartView scales points into the SVG canvas. margin widens the value
// range so flat series do not sit on the border.
func newChartView(title string, points []core.ChartPoint, margin float64, places int) chartView {
	cv := chartView{Title: title}
	if len(points) == 0 {
		return cv
	}

	lo, hi := points[0].Value, points[0].Value
	for _, p := range points[1:] {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	lo -= margin
	hi += margin
	if hi <= lo {
		hi = lo + 1
	}
	cv.Min = strconv.FormatFloat(lo, 'f', places, 64)
	cv.Max = strconv.FormatFloat(hi, 'f', places, 64)

	span := chartWidth - 2*chartPadding
	step := 0.0
	if len(points) > 1 {
		step = span / float64(len(points)-1)
	}
	every := (len(points) + maxAxisTicks - 1) / maxAxisTicks

	var b strings.Builder
	for i, p := range points {
		x := chartPadding + step*float64(i)
		y := chartHeight - chartPadding - (p.Value-lo)/(hi-lo)*(chartHeight-2*chartPadding)
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(x, 'f', 1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(y, 'f', 1, 64))
		if i%every == 0 {
			cv.Labels = append(cv.Labels, chartLabel{X: x, Text: format.ShortDate(p.Date)})
		}
	}
	cv.Points = b.String()
	return cv
}
