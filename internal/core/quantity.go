// Package core provides quantity parsing utilities.
//
// This file contains functions for parsing user-entered liters, prices,
// costs and odometer readings from form strings.
package core

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

// ParseQuantity converts a decimal string to a non-negative float.
//
// It accepts both dot (1.549) and comma (1,549) decimal separators. An empty
// string means "not recorded" and yields 0. Negative values and anything that
// is not a plain decimal number are rejected.
//
// Examples:
//
//	ParseQuantity("40")     -> 40, nil
//	ParseQuantity("1,549")  -> 1.549, nil
//	ParseQuantity("")       -> 0, nil
//	ParseQuantity("-3")     -> 0, ErrInvalidQuantity
func ParseQuantity(s string) (float64, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// groupedThousands matches readings such as "120.500" or "1 204 300".
var groupedThousands = regexp.MustCompile(`^\d{1,3}([. _]\d{3})+$`)

// ParseOdometer converts an odometer reading to whole distance units.
// Dots, spaces and underscores are accepted only as thousands separators;
// a fractional reading such as "1000.5" is rejected.
func ParseOdometer(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if groupedThousands.MatchString(s) {
		s = strings.NewReplacer(".", "", " ", "", "_", "").Replace(s)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, ErrInvalidQuantity
	}
	return v, nil
}

// FormatDecimalComma renders f with the given number of decimals, using a
// comma as decimal separator. Trailing zeros are kept.
func FormatDecimalComma(f float64, places int32) string {
	return strings.Replace(decimal.NewFromFloat(f).StringFixed(places), ".", ",", 1)
}

// FormatPlain renders f in its shortest exact decimal form with a comma separator,
// e.g. 1.5 -> "1,5", 60 -> "60".
func FormatPlain(f float64) string {
	return strings.Replace(decimal.NewFromFloat(f).String(), ".", ",", 1)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Count(s, ",") > 1 || (strings.Contains(s, ",") && strings.Contains(s, ".")) {
		return decimal.Zero, ErrInvalidQuantity
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidQuantity
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, ErrInvalidQuantity
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidQuantity
	}
	return d, nil
}
