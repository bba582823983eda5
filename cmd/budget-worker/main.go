package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"budget/internal/backend"
	"budget/internal/cli"
	applog "budget/internal/log"
	gsheet "budget/internal/sheets/google"
	"budget/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentWorker)
	logger.Info("Starting budget-worker")

	if !cfg.SheetsEnabled() {
		logger.Error("Google Sheets export is not configured, set GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err)
		os.Exit(1)
	}

	sheets, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	syncWorker := worker.NewSyncWorker(res.Store, sheets)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ExportSchedule, func() {
		exportAll(context.Background(), logger, syncWorker)
	}); err != nil {
		logger.Error("Failed to schedule export", applog.FieldError, err, "schedule", cfg.ExportSchedule)
		_ = res.Cleanup()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		<-scheduler.Stop().Done()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	// Catch up on anything published while the worker was down.
	exportAll(ctx, logger, syncWorker)
	scheduler.Start()
	logger.Info("Export scheduled", "schedule", cfg.ExportSchedule)

	if res.Publisher != nil {
		go func() {
			err := res.Publisher.ConsumeInstallmentSync(ctx, syncWorker.HandleSyncMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", applog.FieldError, err)
			}
		}()
	} else {
		logger.Info("AMQP disabled, relying on scheduled export only")
	}

	cli.WaitForShutdown(ctx, done)
}

func exportAll(ctx context.Context, logger *applog.Logger, w *worker.SyncWorker) {
	n, err := w.ExportAll(ctx)
	if err != nil {
		logger.Error("Progress export failed", applog.FieldError, err, "exported", n)
		return
	}
	logger.Info("Progress export complete", "exported", n)
}
