package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gasolina/internal/core"
)

func parserFor(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestParseEntryInput(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        core.EntryInput
		wantField   string
	}{
		{
			name:        "form with comma decimals",
			contentType: "application/x-www-form-urlencoded",
			body:        "date=2024-03-10&liters=40%2C5&pricePerLiter=1%2C549&totalCost=62%2C73&odometer=120.500&notes=+A-6+",
			want: core.EntryInput{
				Date: core.NewDate(2024, 3, 10), Liters: 40.5, PricePerLiter: 1.549, TotalCost: 62.73,
				Odometer: 120500, Notes: "A-6",
			},
		},
		{
			name:        "json numbers",
			contentType: "application/json",
			body:        `{"date":"2024-03-10","liters":40,"pricePerLiter":1.5,"vehicleId":2}`,
			want:        core.EntryInput{Date: core.NewDate(2024, 3, 10), Liters: 40, PricePerLiter: 1.5, VehicleID: 2},
		},
		{
			name: "simple entry without content type",
			body: `{"date":"2024-03-10","totalCost":"50"}`,
			want: core.EntryInput{Date: core.NewDate(2024, 3, 10), TotalCost: 50},
		},
		{name: "missing date", body: `{"totalCost":"50"}`, wantField: "date"},
		{name: "bad liters", body: `{"date":"2024-03-10","liters":"cuarenta"}`, wantField: "liters"},
		{name: "negative price", body: `{"date":"2024-03-10","pricePerLiter":"-1"}`, wantField: "pricePerLiter"},
		{name: "bad odometer", body: `{"date":"2024-03-10","odometer":"1,5"}`, wantField: "odometer"},
		{name: "fractional json odometer", body: `{"date":"2024-03-10","totalCost":50,"odometer":1000.5}`, wantField: "odometer"},
		{name: "small fractional json odometer", body: `{"date":"2024-03-10","totalCost":50,"odometer":1.234}`, wantField: "odometer"},
		{name: "fractional form odometer", contentType: "application/x-www-form-urlencoded", body: "date=2024-03-10&totalCost=50&odometer=1000.5", wantField: "odometer"},
		{
			name: "integral json odometer",
			body: `{"date":"2024-03-10","totalCost":50,"odometer":120500}`,
			want: core.EntryInput{Date: core.NewDate(2024, 3, 10), TotalCost: 50, Odometer: 120500},
		},
		{name: "bad vehicle", body: `{"date":"2024-03-10","vehicleId":"0"}`, wantField: "vehicleId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntryInput(parserFor(t, tt.contentType, tt.body))
			if tt.wantField != "" {
				var fe *FieldError
				if !errors.As(err, &fe) || fe.Field != tt.wantField {
					t.Fatalf("err = %v, want field %s", err, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEntryInput: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseBudget(t *testing.T) {
	if v, err := ParseBudget(parserFor(t, "", "budget=150%2C50")); err != nil || v != 150.5 {
		t.Fatalf("got %v, %v", v, err)
	}
	if v, err := ParseBudget(parserFor(t, "", "budget=")); err != nil || v != 0 {
		t.Fatalf("blank budget should clear: %v, %v", v, err)
	}
	if _, err := ParseBudget(parserFor(t, "", "budget=-3")); err == nil {
		t.Fatal("negative budget accepted")
	}
}

func TestParseEntryID(t *testing.T) {
	if id, err := ParseEntryID(" 1710064800000 "); err != nil || id != 1710064800000 {
		t.Fatalf("got %d, %v", id, err)
	}
	for _, bad := range []string{"", "0", "-2", "abc"} {
		if _, err := ParseEntryID(bad); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
}

func TestRequestBodyParser_MalformedJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"date":`))
	if err := NewRequestBodyParser(r).Parse(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  repostaje\x00 en\tA-6 "); got != "repostaje en\tA-6" {
		t.Fatalf("got %q", got)
	}
}
