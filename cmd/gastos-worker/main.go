package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"gastos/internal/amqp"
	"gastos/internal/cli"
	"gastos/internal/core"
	applog "gastos/internal/log"
	"gastos/internal/mirror"
	mirrorgoogle "gastos/internal/mirror/google"
	mirrormemory "gastos/internal/mirror/memory"
	"gastos/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting gastos-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m mirror.Mirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := mirrorgoogle.NewClient(ctx, mirrorgoogle.Options{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets mirror", "error", err)
			os.Exit(1)
		}
		m = client
		logger.Info("Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		// Local runs without credentials keep the pipeline exercisable.
		m = mirrormemory.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID set, mirroring to memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(repo, m, cfg.MirrorBatchSize)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Recover rows whose events were lost while the worker was down.
		if err := mirrorWorker.StartupBackfill(gctx, core.Today()); err != nil {
			logger.Error("Startup backfill failed", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		return amqpClient.ConsumeExpenseEvents(gctx, func(event *amqp.ExpenseEvent) error {
			return mirrorWorker.HandleEvent(gctx, event)
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
