package services

import (
	"cmp"
	"encoding/binary"
	"math"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"

	"gasolina/internal/core"
)

// Fingerprint identifies an entry collection, budget and evaluation month.
// Two collections holding the same entries in any order hash the same.
func Fingerprint(entries []core.Entry, budget float64, now time.Time) uint64 {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b core.Entry) int { return cmp.Compare(a.ID, b.ID) })

	h := xxhash.New()
	var buf [8]byte
	putInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	putFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		h.Write(buf[:])
	}

	putInt(int64(now.Year())*100 + int64(now.Month()))
	putFloat(budget)
	putInt(int64(len(sorted)))
	for _, e := range sorted {
		putInt(e.ID)
		putInt(e.VehicleID)
		h.WriteString(e.Date.String())
		putFloat(e.Liters)
		putFloat(e.PricePerLiter)
		putFloat(e.TotalCost)
		putInt(e.Odometer)
		h.WriteString(e.Notes)
		h.Write([]byte{0})
	}
	return h.Sum64()
}
