package services

import (
	"testing"
	"time"

	"gasolina/internal/core"
)

func TestFingerprint(t *testing.T) {
	a := core.Entry{ID: 1, VehicleID: 1, Date: core.NewDate(2024, 1, 1), Liters: 40, PricePerLiter: 1.5, TotalCost: 60, Odometer: 1000}
	b := core.Entry{ID: 2, VehicleID: 1, Date: core.NewDate(2024, 2, 1), TotalCost: 50}
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	base := Fingerprint([]core.Entry{a, b}, 100, now)
	if got := Fingerprint([]core.Entry{b, a}, 100, now); got != base {
		t.Error("order must not change the fingerprint")
	}
	if got := Fingerprint([]core.Entry{a, b}, 100, now.AddDate(0, 0, 10)); got != base {
		t.Error("days within the same month must share a fingerprint")
	}

	changed := map[string]uint64{
		"budget": Fingerprint([]core.Entry{a, b}, 120, now),
		"month":  Fingerprint([]core.Entry{a, b}, 100, now.AddDate(0, 1, 0)),
		"subset": Fingerprint([]core.Entry{a}, 100, now),
		"empty":  Fingerprint(nil, 100, now),
	}
	b.Notes = "peaje"
	changed["notes"] = Fingerprint([]core.Entry{a, b}, 100, now)

	for name, fp := range changed {
		if fp == base {
			t.Errorf("%s change should alter the fingerprint", name)
		}
	}
}
