package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"prispevky/internal/amqp"
	"prispevky/internal/config"
	applog "prispevky/internal/log"
	gsheet "prispevky/internal/sheets/google"
	"prispevky/internal/storage"
	"prispevky/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logCfg := applog.DefaultConfig()
	logCfg.Component = applog.ComponentWorker
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	logger.Info("Starting prispevky-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	// The worker reads the ledger straight from SQLite. Events only tell it
	// which school year to rebuild.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var sheetsClient *gsheet.Client
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err = gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err.Error())
			os.Exit(1)
		}
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var syncWorker *worker.SyncWorker
	if sheetsClient != nil {
		syncWorker = worker.NewSyncWorker(repo, sheetsClient)

		// Push the current school year once so the sheet catches up on
		// anything that happened while the worker was down.
		logger.Info("Performing startup sync...")
		if err := syncWorker.StartupSync(ctx); err != nil {
			logger.Error("Startup sync failed", applog.FieldError, err.Error())
			// Don't exit - continue with normal operation
		}
	} else {
		logger.Info("Skipping sheet sync operations - no client available")
	}

	if syncWorker != nil {
		go func() {
			handler := func(msg *amqp.LedgerEventMessage) error {
				return syncWorker.HandleLedgerEvent(ctx, msg)
			}
			if err := amqpClient.ConsumeLedgerEvents(ctx, handler); err != nil {
				if err != context.Canceled {
					logger.Error("Event consumption failed", applog.FieldError, err.Error())
				}
				cancel()
			}
		}()

		// Periodic full resync covers events lost between broker and worker.
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := syncWorker.StartupSync(ctx); err != nil {
						logger.Error("Periodic sync failed", applog.FieldError, err.Error())
					}
				}
			}
		}()
	} else {
		logger.Info("Skipping AMQP event consumption - no sync worker available")
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give in-flight sync a moment to finish before the process exits.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
