package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/backend"
	"budget/internal/cache"
	"budget/internal/cli"
	"budget/internal/config"
	apphttp "budget/internal/http"
	applog "budget/internal/log"
	"budget/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentApp)
	logger.Info("Starting budget server")

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	totals, closeTotals := newTotalsCache(cfg, logger)
	manager := cache.NewManager()
	manager.Register(totals)
	manager.StartCleanup(time.Minute)

	opts := []services.InstallmentOption{
		services.WithTotalsCache(totals),
		services.WithWorkers(cfg.ProgressWorkers),
	}
	if res.Publisher != nil {
		opts = append(opts, services.WithPublisher(res.Publisher))
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Installments: services.NewInstallmentService(res.Store, opts...),
		Expenses:     services.NewExpenseService(res.Store),
		Recurring:    services.NewRecurringService(res.Store),
		Overview:     services.NewOverviewService(res.Store),
		Health:       res.Store,
	},
		apphttp.WithLogger(logger.WithComponent(applog.ComponentHTTP)),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
	)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		manager.Stop()
		closeTotals()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	go func() {
		logger.Info("Listening", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}

// newTotalsCache returns the monthly totals cache: Redis when REDIS_ADDR is
// set and reachable, an in-process LRU otherwise.
func newTotalsCache(cfg *config.Config, logger *applog.Logger) (cache.Cache[decimal.Decimal], func()) {
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rc, err := cache.NewRedisCache[decimal.Decimal](ctx, cfg.RedisAddr, "budget:totals:", cfg.CacheTTL)
		if err == nil {
			logger.Info("Using Redis totals cache", "addr", cfg.RedisAddr)
			return rc, func() { _ = rc.Close() }
		}
		logger.Warn("Redis unavailable, falling back to in-process cache", applog.FieldError, err)
	}
	return cache.NewLRUCache[decimal.Decimal](cfg.CacheSize, cfg.CacheTTL), func() {}
}
