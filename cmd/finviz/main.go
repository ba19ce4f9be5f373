package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finviz/internal/amqp"
	"finviz/internal/backend"
	"finviz/internal/cache"
	"finviz/internal/cli"
	apphttp "finviz/internal/http"
	applog "finviz/internal/log"
	"finviz/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	result, err := backend.NewFactory(logger).CreateBackend(startupCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	opts := services.Options{
		Logger:    logger,
		CacheSize: cfg.SearchCacheSize,
		CacheTTL:  cfg.SearchCacheTTL,
	}

	// Change events are optional; without AMQP the worker relies on its schedule.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, change events disabled", applog.FieldError, err)
		} else {
			opts.Publisher = amqpClient
		}
	}

	svc, err := services.NewTransactionService(startupCtx, result.Store, cfg.LedgerKey, opts)
	if err != nil {
		logger.Error("Failed to load ledger", applog.FieldError, err, applog.FieldLedgerKey, cfg.LedgerKey)
		_ = result.Close()
		os.Exit(1)
	}

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(svc.SearchCache())
	cacheManager.StartCleanup(10 * time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		AllowedOrigins:     cfg.AllowedOrigins(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustProxy:         cfg.TrustProxyHeaders,
		Ready:              result.Ping,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
		if err := result.Close(); err != nil {
			logger.Warn("Backend close error", applog.FieldError, err)
		}
	})

	logger.Info("Starting finviz server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		applog.FieldLedgerKey, cfg.LedgerKey,
		"change_events", amqpClient != nil,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
