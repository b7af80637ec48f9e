package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultVehicleID is assigned to entries that carry no vehicle tag.
const DefaultVehicleID int64 = 1

const (
	dateLayout    = "2006-01-02"
	maxNotesChars = 200
)

type (
	// Date is a calendar date. The time part is always midnight UTC.
	Date struct {
		time.Time
	}

	// Entry is one logged fuel purchase. Zero quantities mean "not recorded".
	Entry struct {
		ID            int64   `json:"id"`
		VehicleID     int64   `json:"vehicleId"`
		Date          Date    `json:"date"`
		Liters        float64 `json:"liters"`
		PricePerLiter float64 `json:"pricePerLiter"`
		TotalCost     float64 `json:"totalCost"`
		Odometer      int64   `json:"odometer"`
		Notes         string  `json:"notes,omitempty"`
	}

	// EntryInput is what the form collaborator supplies before an id exists.
	EntryInput struct {
		VehicleID     int64
		Date          Date
		Liters        float64
		PricePerLiter float64
		TotalCost     float64
		Odometer      int64
		Notes         string
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrNegativeLiters   = errors.New("liters cannot be negative")
	ErrNegativePrice    = errors.New("price per liter cannot be negative")
	ErrInvalidCost      = errors.New("invalid total cost")
	ErrMissingCost      = errors.New("total cost is required when liters and price are unknown")
	ErrNegativeOdometer = errors.New("odometer cannot be negative")
	ErrNotesTooLong     = fmt.Errorf("notes too long (max %d characters)", maxNotesChars)
	ErrNegativeBudget   = errors.New("budget cannot be negative")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts a plain YYYY-MM-DD date or a full ISO timestamp, keeping only the calendar day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

// InMonth reports whether the date falls in the calendar month of t.
func (d Date) InMonth(t time.Time) bool {
	return d.Year() == t.Year() && d.Month() == t.Month()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// HasLiters reports whether the fill-up volume was recorded.
func (e Entry) HasLiters() bool { return e.Liters > 0 }

// HasOdometer reports whether an odometer reading was recorded.
func (e Entry) HasOdometer() bool { return e.Odometer > 0 }

func (e Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Liters < 0 || !finite(e.Liters) {
		return ErrNegativeLiters
	}
	if e.PricePerLiter < 0 || !finite(e.PricePerLiter) {
		return ErrNegativePrice
	}
	if e.TotalCost < 0 || !finite(e.TotalCost) {
		return ErrInvalidCost
	}
	if e.Odometer < 0 {
		return ErrNegativeOdometer
	}
	if len([]rune(e.Notes)) > maxNotesChars {
		return ErrNotesTooLong
	}
	return nil
}

// Build turns the input into an entry with the given id. The total cost is
// derived from liters and price when it was not entered directly.
func (in EntryInput) Build(id int64) (Entry, error) {
	e := Entry{
		ID:            id,
		VehicleID:     in.VehicleID,
		Date:          in.Date,
		Liters:        in.Liters,
		PricePerLiter: in.PricePerLiter,
		TotalCost:     in.TotalCost,
		Odometer:      in.Odometer,
		Notes:         strings.TrimSpace(in.Notes),
	}
	if e.VehicleID == 0 {
		e.VehicleID = DefaultVehicleID
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	if e.TotalCost == 0 {
		if e.Liters == 0 || e.PricePerLiter == 0 {
			return Entry{}, ErrMissingCost
		}
		e.TotalCost = DeriveTotalCost(e.Liters, e.PricePerLiter)
	}
	return e, nil
}

// DeriveTotalCost multiplies liters by unit price, rounded to cents.
func DeriveTotalCost(liters, pricePerLiter float64) float64 {
	cost, _ := decimal.NewFromFloat(liters).
		Mul(decimal.NewFromFloat(pricePerLiter)).
		Round(2).
		Float64()
	return cost
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsValidationError reports whether err was caused by bad user input rather
// than a storage or transport failure.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidDate, ErrNegativeLiters, ErrNegativePrice, ErrInvalidCost,
		ErrMissingCost, ErrNegativeOdometer, ErrNotesTooLong, ErrInvalidQuantity,
		ErrNegativeBudget,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
