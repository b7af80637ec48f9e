// Package format renders dashboard figures the way a Spanish-locale reader expects them.
package format

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"gasolina/internal/core"
)

// Placeholder is shown for values that were not recorded.
const Placeholder = "-"

var printer = message.NewPrinter(language.Spanish)

var shortMonths = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}

// Euros formats an amount such as 1234.5 as "1.234,50 €".
func Euros(amount float64) string {
	return printer.Sprintf("%.2f €", amount)
}

// Liters formats a volume with two decimals, e.g. "40,00 L".
func Liters(l float64) string {
	return printer.Sprintf("%.2f L", l)
}

// PricePerLiter keeps the three decimals stations post, e.g. "1,549 €/L".
func PricePerLiter(p float64) string {
	return printer.Sprintf("%.3f €/L", p)
}

// Kilometers formats a whole distance with thousands grouping.
func Kilometers(km int64) string {
	return printer.Sprintf("%d km", km)
}

// Consumption formats liters per 100 km, or "N/A" when it could not be computed.
func Consumption(c float64) string {
	if c <= 0 {
		return "N/A"
	}
	return printer.Sprintf("%.2f", c)
}

// Percent formats a budget percentage without decimals.
func Percent(p float64) string {
	return printer.Sprintf("%.0f%%", p)
}

// Date renders a date like "15 mar 2024".
func Date(d core.Date) string {
	return ShortDate(d) + " " + strconv.Itoa(d.Year())
}

// ShortDate renders a chart axis label like "15 mar".
func ShortDate(d core.Date) string {
	return strconv.Itoa(d.Day()) + " " + shortMonths[d.Month()-1]
}

// OptionalLiters, OptionalPrice and OptionalKilometers print Placeholder for zero.
func OptionalLiters(l float64) string {
	if l <= 0 {
		return Placeholder
	}
	return Liters(l)
}

func OptionalPrice(p float64) string {
	if p <= 0 {
		return Placeholder
	}
	return PricePerLiter(p)
}

func OptionalKilometers(km int64) string {
	if km <= 0 {
		return Placeholder
	}
	return Kilometers(km)
}
