// Command carteira-export publishes one month's overview to Google Sheets.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"carteira/internal/cli"
	"carteira/internal/services"
	"carteira/internal/sheets"
	"carteira/internal/sheets/google"
	"carteira/internal/sheets/memory"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	now := time.Now()
	year := flag.Int("year", now.Year(), "report year")
	month := flag.Int("month", int(now.Month()), "report month (1-12)")
	dryRun := flag.Bool("dry-run", false, "compute the report without writing to the spreadsheet")
	flag.Parse()

	if *month < 1 || *month > 12 {
		logger.Error("Invalid month", "month", *month)
		os.Exit(1)
	}

	ctx := context.Background()

	var writer sheets.ReportWriter
	if *dryRun || cfg.GoogleSpreadsheetID == "" {
		writer = memory.New()
		logger.Info("Using in-memory writer", "dry_run", *dryRun)
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
	overview, err := ledger.MonthOverview(ctx, *year, *month)
	if err != nil {
		logger.Error("Failed to build month overview", "error", err, "year", *year, "month", *month)
		os.Exit(1)
	}

	ref, err := writer.WriteMonthOverview(ctx, overview)
	if err != nil {
		logger.Error("Failed to export report", "error", err)
		os.Exit(1)
	}
	logger.Info("Report exported", "year", *year, "month", *month, "sheets_ref", ref)
}
