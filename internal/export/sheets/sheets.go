// Package sheets publishes an export.Report to a Google spreadsheet.
//
// The target sheet is overwritten on every run; it is a report, the local
// store stays the source of truth.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"gasolina/internal/export"
)

// ValuesAPI is the slice of the Sheets values API the exporter needs.
type ValuesAPI interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
}

// Credentials selects the service account. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

// Exporter writes reports to one sheet of one spreadsheet.
type Exporter struct {
	api           ValuesAPI
	spreadsheetID string
	sheet         string
}

// New authenticates with a service account and returns an exporter.
func New(ctx context.Context, spreadsheetID, sheet string, creds Credentials) (*Exporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithAPI(serviceValues{svc: svc}, spreadsheetID, sheet), nil
}

// NewWithAPI builds an exporter on any ValuesAPI implementation.
func NewWithAPI(api ValuesAPI, spreadsheetID, sheet string) *Exporter {
	if sheet == "" {
		sheet = export.SheetName
	}
	return &Exporter{api: api, spreadsheetID: spreadsheetID, sheet: sheet}
}

// Export replaces the sheet contents with the report and returns the number
// of entry rows written.
func (e *Exporter) Export(ctx context.Context, r export.Report) (int, error) {
	if len(r.Entries) == 0 {
		return 0, export.ErrNothingToExport
	}

	all := fmt.Sprintf("'%s'!A:F", e.sheet)
	if err := e.api.Clear(ctx, e.spreadsheetID, all); err != nil {
		return 0, fmt.Errorf("clear %s: %w", all, err)
	}

	start := fmt.Sprintf("'%s'!A1", e.sheet)
	if err := e.api.Update(ctx, e.spreadsheetID, start, Values(r)); err != nil {
		return 0, fmt.Errorf("update %s: %w", start, err)
	}

	slog.InfoContext(ctx, "Exported history to Google Sheets",
		"spreadsheet_id", e.spreadsheetID,
		"sheet", e.sheet,
		"rows", len(r.Entries))
	return len(r.Entries), nil
}

// Values lays the report out as the sheet grid: header, entries, a blank row,
// then the summary block. Numbers stay numeric so the sheet can chart them.
func Values(r export.Report) [][]any {
	out := make([][]any, 0, len(r.Entries)+len(r.SummaryLines())+3)

	header := make([]any, len(export.Headers))
	for i, h := range export.Headers {
		header[i] = h
	}
	out = append(out, header)

	for _, e := range r.Entries {
		out = append(out, []any{e.ID, e.Date.String(), e.Liters, e.PricePerLiter, e.TotalCost, e.Odometer})
	}

	out = append(out, []any{}, []any{"Resumen"})
	for _, l := range r.SummaryLines() {
		out = append(out, []any{l.Label, l.Value})
	}
	return out
}

type serviceValues struct {
	svc *gsheet.Service
}

func (s serviceValues) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}

func (s serviceValues) Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when neither source is configured.
func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(creds.JSON)
	credsFile := strings.TrimSpace(creds.File)
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var raw []byte
	switch {
	case credsJSON != "":
		raw = []byte(credsJSON)
	case credsFile != "":
		b, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.DebugContext(ctx, "Creating Google Sheets service", "credentials_size", len(raw))
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}
