// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Entry and budget payloads arrive either as HTMX form posts or as JSON.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gasolina/internal/core"
)

// maxBodyBytes bounds request bodies; an entry is well under 1 KiB.
const maxBodyBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Number returns a value that arrived as a JSON number. Form fields and
// JSON strings report ok == false.
func (p *RequestBodyParser) Number(key string) (float64, bool) {
	if p.jsonData == nil {
		return 0, false
	}
	v, ok := p.jsonData[key].(float64)
	return v, ok
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// FieldError names the input that failed to parse.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }
func (e *FieldError) Unwrap() error { return e.Err }

// ParseEntryInput reads the entry form. Liters, price and odometer may be
// blank; the date is required. A blank total cost is derived later from
// liters and price.
func ParseEntryInput(p *RequestBodyParser) (core.EntryInput, error) {
	var in core.EntryInput

	date, err := core.ParseDate(p.Get("date"))
	if err != nil {
		return in, &FieldError{Field: "date", Err: err}
	}
	in.Date = date

	quantities := []struct {
		field string
		dst   *float64
	}{
		{"liters", &in.Liters},
		{"pricePerLiter", &in.PricePerLiter},
		{"totalCost", &in.TotalCost},
	}
	for _, q := range quantities {
		v, err := core.ParseQuantity(p.Get(q.field))
		if err != nil {
			return in, &FieldError{Field: q.field, Err: err}
		}
		*q.dst = v
	}

	if in.Odometer, err = parseOdometer(p); err != nil {
		return in, &FieldError{Field: "odometer", Err: err}
	}

	if v := p.Get("vehicleId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return in, &FieldError{Field: "vehicleId", Err: core.ErrInvalidQuantity}
		}
		in.VehicleID = id
	}
	in.Notes = p.Get("notes")
	return in, nil
}

// parseOdometer takes a JSON number as is, so 1.234 is never read as a
// grouped 1234, and parses text through core.ParseOdometer.
func parseOdometer(p *RequestBodyParser) (int64, error) {
	if v, ok := p.Number("odometer"); ok {
		if v < 0 || v != math.Trunc(v) || v > math.MaxInt64/2 {
			return 0, core.ErrInvalidQuantity
		}
		return int64(v), nil
	}
	return core.ParseOdometer(p.Get("odometer"))
}

// ParseBudget reads the "budget" field. A blank value clears the budget.
func ParseBudget(p *RequestBodyParser) (float64, error) {
	v, err := core.ParseQuantity(p.Get("budget"))
	if err != nil {
		return 0, &FieldError{Field: "budget", Err: err}
	}
	return v, nil
}

// ParseEntryID reads a positive entry id.
func ParseEntryID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, &FieldError{Field: "id", Err: fmt.Errorf("invalid id %q", s)}
	}
	return id, nil
}

// sanitizeInput removes control characters except tab and newlines, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
