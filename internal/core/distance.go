package core

import (
	"cmp"
	"slices"
)

// Distance is the single-window odometer estimate over all entries that
// carry a reading. It does not compute per-segment consumption.
type Distance struct {
	Total             int64   // newest.Odometer - oldest.Odometer, never negative
	LitersForDistance float64 // liters of every odometer entry except the newest
	AvgConsumption    float64 // liters per 100 distance units
}

// ResolveDistance infers distance and consumption from odometer readings.
//
// Entries are ordered by date; entries sharing a date are ordered by id, so a
// later-created entry counts as newer. Fewer than two readings, or a newest
// reading that is not above the oldest one, yield a zero Distance.
func ResolveDistance(entries []Entry) Distance {
	readings := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.HasOdometer() {
			readings = append(readings, e)
		}
	}
	if len(readings) < 2 {
		return Distance{}
	}

	slices.SortFunc(readings, chronological)
	oldest, newest := readings[0], readings[len(readings)-1]

	total := newest.Odometer - oldest.Odometer
	if total <= 0 {
		return Distance{}
	}

	// Fuel bought at the newest reading has not been driven yet.
	var liters float64
	for _, e := range readings[:len(readings)-1] {
		liters += e.Liters
	}

	d := Distance{Total: total, LitersForDistance: liters}
	if liters > 0 {
		d.AvgConsumption = liters / float64(total) * 100
	}
	return d
}

// chronological orders by date ascending, then id ascending.
func chronological(a, b Entry) int {
	if c := a.Date.Compare(b.Date.Time); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
