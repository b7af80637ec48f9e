package core

import (
	"encoding/json"
	"fmt"
)

// legacyEntry mirrors the browser storage layout. vehicleId was added later,
// so older records lack it.
type legacyEntry struct {
	ID            int64   `json:"id"`
	VehicleID     *int64  `json:"vehicleId"`
	Date          Date    `json:"date"`
	Liters        float64 `json:"liters"`
	PricePerLiter float64 `json:"pricePerLiter"`
	TotalCost     float64 `json:"totalCost"`
	Odometer      int64   `json:"odometer"`
	Notes         string  `json:"notes"`
}

// DecodeLegacyEntries reads a JSON array of stored entries, defaulting a
// missing vehicleId to DefaultVehicleID. Invalid records fail the whole decode.
func DecodeLegacyEntries(data []byte) ([]Entry, error) {
	var raw []legacyEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for i, r := range raw {
		e := Entry{
			ID:            r.ID,
			VehicleID:     DefaultVehicleID,
			Date:          r.Date,
			Liters:        r.Liters,
			PricePerLiter: r.PricePerLiter,
			TotalCost:     r.TotalCost,
			Odometer:      r.Odometer,
			Notes:         r.Notes,
		}
		// Zero is what untouched numeric inputs serialize to; treat it as unset.
		if r.VehicleID != nil && *r.VehicleID != 0 {
			e.VehicleID = *r.VehicleID
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d (id %d): %w", i, r.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// EncodeEntries writes entries in the same layout DecodeLegacyEntries reads.
func EncodeEntries(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	return json.MarshalIndent(entries, "", "  ")
}
