package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"gasolina/internal/cli"
	"gasolina/internal/export"
	"gasolina/internal/export/sheets"
	"gasolina/internal/log"
)

func main() {
	cli.LoadEnvFile()

	format := flag.String("format", "csv", "Output format: csv, xlsx or sheets")
	out := flag.String("out", "", "Output file (csv and xlsx; defaults to the download filename)")
	flag.Parse()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentExport)
	cfg := cli.LoadAndValidateConfig(logger)

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	be := cli.InitBackend(ctx, logger, cfg, false)
	if be.Cleanup != nil {
		defer be.Cleanup()
	}

	entries, err := be.Store.ListEntries(ctx)
	if err != nil {
		logger.Error("Failed to load entries", log.FieldError, err.Error())
		os.Exit(1)
	}
	report, err := export.NewReport(entries, time.Now())
	if err != nil {
		logger.Error("Nothing exported", log.FieldError, err.Error())
		os.Exit(1)
	}

	switch *format {
	case "csv":
		err = writeFile(orDefault(*out, export.CSVFilename), func(b *bytes.Buffer) error { return export.WriteCSV(b, report) })
	case "xlsx":
		err = writeFile(orDefault(*out, export.XLSXFilename), func(b *bytes.Buffer) error { return export.WriteXLSX(b, report) })
	case "sheets":
		err = toSheets(ctx, logger, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, sheets.Credentials{
			JSON: cfg.GoogleServiceAccountJSON,
			File: cfg.GoogleServiceAccountFile,
		}, report, cfg.ValidateSheetsExport)
	default:
		err = fmt.Errorf("unknown format %q: must be csv, xlsx or sheets", *format)
	}
	if err != nil {
		logger.Error("Export failed", log.FieldError, err.Error(), "format", *format)
		os.Exit(1)
	}
	logger.Info("Export complete", "format", *format, "entries", len(report.Entries))
}

func toSheets(ctx context.Context, logger *log.Logger, spreadsheetID, sheet string, creds sheets.Credentials, report export.Report, validate func() error) error {
	if err := validate(); err != nil {
		return err
	}
	exporter, err := sheets.New(ctx, spreadsheetID, sheet, creds)
	if err != nil {
		return err
	}
	rows, err := exporter.Export(ctx, report)
	if err != nil {
		return err
	}
	logger.Info("Report written to Google Sheets", "spreadsheet_id", spreadsheetID, "sheet", sheet, "rows", rows)
	return nil
}

func writeFile(path string, render func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
