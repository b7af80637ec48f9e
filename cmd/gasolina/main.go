package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"gasolina/internal/cache"
	"gasolina/internal/cli"
	"gasolina/internal/core"
	apphttp "gasolina/internal/http"
	"gasolina/internal/icon"
	"gasolina/internal/log"
	"gasolina/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	be := cli.InitBackend(ctx, logger, cfg, true)

	engine := core.NewEngine(core.SystemClock)
	entries := services.NewEntryService(be.Store, be.IDs, be.Publisher)
	stats := services.NewStatsService(be.Store, be.Store, engine, cfg.StatsCacheSize, cfg.StatsCacheTTL)
	entries.OnChange(stats)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	janitor := cache.NewJanitor(logger.Logger)
	janitor.Watch("statistics", stats.Sweeper())
	go janitor.Run(janitorCtx, time.Minute)

	deps := apphttp.Deps{
		Entries: entries,
		Stats:   stats,
		Clock:   core.SystemClock,
		Logger:  logger,
	}
	if be.Pinger != nil {
		deps.Store = be.Pinger
	}
	if cfg.IconEnabled() {
		gen, err := icon.New(ctx, cfg.GeminiAPIKey, cfg.IconModel)
		if err != nil {
			logger.Warn("Icon generation disabled", log.FieldError, err.Error(), log.FieldComponent, log.ComponentIcon)
		} else {
			deps.Icons = gen
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		stopJanitor()
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err.Error())
			}
		}
	})

	logger.Info("Starting gasolina server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", be.Publisher != nil,
		"icons", deps.Icons != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
