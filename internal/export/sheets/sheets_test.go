package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"gasolina/internal/core"
	"gasolina/internal/export"
)

type fakeValues struct {
	cleared []string
	updated map[string][][]any
	err     error
}

func (f *fakeValues) Clear(_ context.Context, id, rng string) error {
	if f.err != nil {
		return f.err
	}
	f.cleared = append(f.cleared, id+"/"+rng)
	return nil
}

func (f *fakeValues) Update(_ context.Context, id, rng string, rows [][]any) error {
	if f.updated == nil {
		f.updated = map[string][][]any{}
	}
	f.updated[id+"/"+rng] = rows
	return nil
}

func report(t *testing.T) export.Report {
	t.Helper()
	r, err := export.NewReport([]core.Entry{
		{ID: 2, Date: core.NewDate(2024, 3, 10), Liters: 40, PricePerLiter: 1.5, TotalCost: 60, Odometer: 1400},
		{ID: 1, Date: core.NewDate(2024, 3, 1), Liters: 30, PricePerLiter: 1.6, TotalCost: 48, Odometer: 1000},
	}, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestExportOverwritesSheet(t *testing.T) {
	api := &fakeValues{}
	e := NewWithAPI(api, "sheet-id", "")

	n, err := e.Export(context.Background(), report(t))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	if len(api.cleared) != 1 || api.cleared[0] != "sheet-id/'Gasolina'!A:F" {
		t.Fatalf("unexpected clear calls %v", api.cleared)
	}

	rows := api.updated["sheet-id/'Gasolina'!A1"]
	if len(rows) < 3 {
		t.Fatalf("expected header and entries, got %v", rows)
	}
	if rows[0][0] != "ID" || rows[1][0] != int64(1) || rows[2][0] != int64(2) {
		t.Fatalf("entries must be oldest first: %v", rows[:3])
	}
	if rows[4][0] != "Resumen" {
		t.Fatalf("expected summary block after a blank row, got %v", rows[3:5])
	}
}

func TestExportStopsOnClearError(t *testing.T) {
	boom := errors.New("quota")
	api := &fakeValues{err: boom}
	_, err := NewWithAPI(api, "id", "Fuel").Export(context.Background(), report(t))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if api.updated != nil {
		t.Fatal("nothing must be written after a failed clear")
	}
}

func TestExportEmpty(t *testing.T) {
	_, err := NewWithAPI(&fakeValues{}, "id", "").Export(context.Background(), export.Report{})
	if !errors.Is(err, export.ErrNothingToExport) {
		t.Fatalf("expected ErrNothingToExport, got %v", err)
	}
}

func TestNewRequiresSpreadsheet(t *testing.T) {
	if _, err := New(context.Background(), " ", "", Credentials{}); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}
