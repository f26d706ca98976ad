package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finview/internal/amqp"
	"finview/internal/backend"
	"finview/internal/cli"
	"finview/internal/export"
	"finview/internal/export/google"
	"finview/internal/format"
	"finview/internal/log"
	"finview/internal/session"
	"finview/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting finview-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	// The session database is shared with the view server; the worker
	// exports whatever environment the user has open there.
	repo := cli.InitSessionStore(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sess := session.New(repo, session.DefaultKey)
	if err := sess.Restore(context.Background()); err != nil {
		logger.Warn("Failed to restore session", log.FieldError, err)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	// exports must never read stale responses
	backendCfg.APICacheTTL = 0

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg, sess)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	var writer export.Writer
	if cfg.ExportEnabled() {
		opts := google.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
		}
		if cfg.GoogleOAuthTokenFile != "" {
			if opts.OAuthClientJSON, err = google.ReadClientJSON(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile); err != nil {
				logger.Error("Failed to read Google OAuth client", log.FieldError, err)
				os.Exit(1)
			}
		}
		writer, err = google.New(context.Background(), opts, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = export.NewMemoryWriter()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting to memory")
	}

	exporter, err := export.NewExporter(result.Backend, writer, cfg.GoogleSheetName,
		format.New(cfg.Locale, cfg.CurrencySymbol), format.SystemClock{}, logger)
	if err != nil {
		logger.Error("Failed to initialize exporter", log.FieldError, err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(exporter, repo, sess, worker.Config{Interval: cfg.ExportInterval}, logger)

	var events *amqp.Client
	if cfg.EventsEnabled() {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, exporting on interval only", log.FieldError, err)
			events = nil
		}
	} else {
		logger.Info("Skipping AMQP consumption - no AMQP_URL provided")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down worker...")
		if err := exportWorker.Stop(ctx); err != nil {
			logger.Error("Worker stop error", log.FieldError, err)
		}
		if events != nil {
			_ = events.Close()
		}
		_ = result.Cleanup()
	})

	if err := exportWorker.Start(ctx); err != nil {
		logger.Error("Failed to start export worker", log.FieldError, err)
		os.Exit(1)
	}

	if events != nil {
		go func() {
			err := events.ConsumeMutations(ctx, exportWorker.HandleMutation)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Mutation consumption failed", log.FieldError, err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
