// Command carteira-worker consumes ledger events and mirrors monthly
// reports into Google Sheets.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"carteira/internal/cli"
	"carteira/internal/services"
	"carteira/internal/sheets"
	"carteira/internal/sheets/google"
	"carteira/internal/sheets/memory"
	"carteira/internal/worker"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	events := cli.InitAMQP(logger, cfg)
	if events == nil {
		logger.Error("Failed to connect to AMQP broker")
		os.Exit(1)
	}
	defer events.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var writer sheets.ReportWriter
	if cfg.GoogleSpreadsheetID == "" {
		writer = memory.New()
		logger.Warn("No spreadsheet configured, reports go to the in-memory writer")
	} else {
		client, err := google.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ledger := services.NewLedgerService(repo, nil)

	logger.Info("Worker starting", "queue", cfg.AMQPQueue)
	if err := worker.NewEventWorker(events, ledger, writer).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
