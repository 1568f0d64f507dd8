package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/cli"
	"ledger/internal/events"
	"ledger/internal/mirror"
	"ledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting ledger-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	kvStore := cli.OpenKV(logger, cfg)
	defer kvStore.Close()

	var dests []mirror.Destination
	if cfg.MirrorFilePath != "" {
		fileDest, err := mirror.NewFileDestination(cfg.MirrorFilePath)
		if err != nil {
			logger.Error("Failed to initialize file destination", "error", err, "path", cfg.MirrorFilePath)
			os.Exit(1)
		}
		dests = append(dests, fileDest)
		logger.Info("File mirror enabled", "path", cfg.MirrorFilePath)
	}
	if cfg.GoogleSpreadsheetID != "" {
		sheets, err := mirror.NewSheetsFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets destination", "error", err)
			os.Exit(1)
		}
		dests = append(dests, sheets)
		logger.Info("Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}
	if len(dests) == 0 {
		logger.Error("No mirror destinations configured - set MIRROR_FILE_PATH or GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	mirrorWorker := worker.NewMirrorWorker(kvStore, dests)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	// Initial sync so a fresh worker catches up before any event arrives.
	if err := mirrorWorker.Sync(ctx); err != nil {
		logger.Error("Startup sync failed", "error", err)
	}

	// Event-driven syncs, if AMQP is configured.
	if cfg.AMQPURL != "" {
		amqpClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeLedgerChanged(ctx, func(msg *events.LedgerChangedMessage) error {
				return mirrorWorker.HandleChange(ctx, msg)
			})
		})
	} else {
		logger.Info("Change events disabled - relying on periodic resync only")
	}

	// Periodic resync covers lost events and runs standalone when AMQP
	// is disabled.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ResyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := mirrorWorker.Sync(ctx); err != nil {
					logger.Error("Periodic resync failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
