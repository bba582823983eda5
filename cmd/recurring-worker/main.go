package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"budget/internal/backend"
	"budget/internal/cli"
	applog "budget/internal/log"
	"budget/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentRecurring)
	logger.Info("Starting recurring-worker")

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	// Recurring expenses are not exported, so the worker never publishes.
	backendCfg.AMQPURL = ""
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err)
		os.Exit(1)
	}

	processor := services.NewRecurringProcessor(res.Store, services.NewExpenseService(res.Store))
	process := func(ctx context.Context, now time.Time) {
		count, err := processor.ProcessDue(ctx, now)
		if err != nil {
			logger.Error("Recurring processing failed", applog.FieldError, err, "expenses_created", count)
			return
		}
		logger.Info("Recurring processing complete", "expenses_created", count)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RecurringSchedule, func() {
		process(context.Background(), time.Now())
	}); err != nil {
		logger.Error("Failed to schedule recurring processing", applog.FieldError, err, "schedule", cfg.RecurringSchedule)
		_ = res.Cleanup()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		<-scheduler.Stop().Done()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Running initial recurring expense processing")
	process(ctx, time.Now())
	scheduler.Start()
	logger.Info("Recurring processor scheduled", "schedule", cfg.RecurringSchedule, "sqlite_db", cfg.SQLiteDBPath)

	cli.WaitForShutdown(ctx, done)
}
