package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gasolina/internal/cli"
	"gasolina/internal/core"
	"gasolina/internal/log"
	"gasolina/internal/ports/memory"
	"gasolina/internal/services"
)

// bulkImporter is implemented by the SQLite repository.
type bulkImporter interface {
	ImportEntries(ctx context.Context, entries []core.Entry) (int, error)
}

func main() {
	cli.LoadEnvFile()

	file := flag.String("file", "", "JSON array of entries exported from the browser app (required)")
	flag.Parse()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentStorage)
	if *file == "" {
		logger.Error("Error: --file is required")
		os.Exit(2)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Error("Failed to read import file", log.FieldError, err.Error(), "file", *file)
		os.Exit(1)
	}
	entries, err := core.DecodeLegacyEntries(data)
	if err != nil {
		logger.Error("Invalid import file", log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeValidation)
		os.Exit(1)
	}

	cfg := cli.LoadAndValidateConfig(logger)

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	be := cli.InitBackend(ctx, logger, cfg, false)
	if be.Cleanup != nil {
		defer be.Cleanup()
	}

	inserted, err := importEntries(ctx, be.Store, entries)
	if err != nil {
		logger.Error("Import failed", log.FieldError, err.Error(), log.FieldOperation, log.OpImport)
		os.Exit(1)
	}
	logger.Info("Import complete", "file", *file, "inserted", inserted, "skipped", len(entries)-inserted)
}

// importEntries keeps the original ids. Entries already stored are skipped.
func importEntries(ctx context.Context, store services.EntryStore, entries []core.Entry) (int, error) {
	if bulk, ok := store.(bulkImporter); ok {
		return bulk.ImportEntries(ctx, entries)
	}

	inserted := 0
	for _, e := range entries {
		if _, err := store.Append(ctx, e); err != nil {
			if errors.Is(err, memory.ErrDuplicateID) {
				continue
			}
			return inserted, fmt.Errorf("import entry %d: %w", e.ID, err)
		}
		inserted++
	}
	return inserted, nil
}
