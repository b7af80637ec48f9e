package main

import (
	"context"
	"errors"
	"os"
	"time"

	"gasolina/internal/amqp"
	"gasolina/internal/cli"
	"gasolina/internal/core"
	"gasolina/internal/log"
	"gasolina/internal/services"
	"gasolina/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting gasolina-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker", log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	// The worker only reads; it never publishes.
	be := cli.InitBackend(context.Background(), logger, cfg, false)
	stats := services.NewStatsService(be.Store, be.Store, core.NewEngine(core.SystemClock), cfg.StatsCacheSize, cfg.StatsCacheTTL)

	budgetWorker := worker.NewBudgetWorker(stats, worker.NewLogNotifier(logger), cfg.BudgetAlertThreshold)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeNetwork)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		logger.Info("Shutting down worker...")
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err.Error())
		}
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err.Error())
			}
		}
	})

	// Catch up on anything spent while the worker was down.
	if level, err := budgetWorker.Check(ctx); err != nil {
		logger.Error("Startup budget check failed", log.FieldError, err.Error())
	} else {
		logger.Info("Startup budget check complete", "level", level.String())
	}

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// A new month resets the alert state without any event.
				if _, err := budgetWorker.Check(ctx); err != nil {
					logger.Error("Periodic budget check failed", log.FieldError, err.Error())
				}
			}
		}
	}()

	if err := amqpClient.ConsumeEntryEvents(ctx, budgetWorker.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
