package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finview/internal/amqp"
	"finview/internal/app"
	"finview/internal/backend"
	"finview/internal/cache"
	"finview/internal/cli"
	"finview/internal/format"
	apphttp "finview/internal/http"
	"finview/internal/log"
	"finview/internal/middleware/ratelimit"
	"finview/internal/notify"
	"finview/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSessionStore(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sess := session.New(repo, session.DefaultKey)
	if err := sess.Restore(context.Background()); err != nil {
		logger.Warn("Failed to restore session, starting logged out", log.FieldError, err)
	}

	caches := cache.NewManager(logger)
	caches.StartCleanup(time.Minute)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	backendCfg.CacheManager = caches

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg, sess)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	opts := []app.Option{
		app.WithLogger(logger),
		app.WithFormatter(format.New(cfg.Locale, cfg.CurrencySymbol)),
		app.WithConfig(app.Config{
			TopGoalsPageSize:    cfg.TopGoalsPageSize,
			ProjectionPeriod:    cfg.ProjectionPeriod,
			ProjectionIsYear:    cfg.ProjectionIsYear,
			BalanceWindowMonths: cfg.BalanceWindowMonths,
		}),
	}
	if result.Invalidate != nil {
		opts = append(opts, app.WithInvalidate(result.Invalidate))
	}

	// Mutation events are optional; the views work without a broker.
	var events *amqp.Client
	if cfg.EventsEnabled() {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, mutation events disabled", log.FieldError, err)
		} else {
			opts = append(opts, app.WithPublisher(events))
		}
	}

	ctrl := app.New(result.Backend, sess, notify.NewSlot(cfg.MessageTTL), opts...)

	rateLimit := ratelimit.DefaultConfig()
	rateLimit.RequestsPerMinute = cfg.RateLimitPerMinute
	srv := apphttp.NewServer(":"+cfg.Port, ctrl,
		apphttp.WithLogger(logger),
		apphttp.WithRateLimit(rateLimit),
		apphttp.WithNotificationDuration(cfg.MessageTTL),
		apphttp.WithCacheManager(caches),
		apphttp.WithReadiness(repo.Ping),
	)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
		if events != nil {
			_ = events.Close()
		}
	})

	logger.Info("Starting finview server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
