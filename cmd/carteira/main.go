package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"carteira/internal/auth"
	"carteira/internal/cli"
	apphttp "carteira/internal/http"
	"carteira/internal/services"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	events := cli.InitAMQP(logger, cfg)

	ledger := services.NewLedgerService(repo, events)
	statements := services.NewStatementService(repo, events)

	var creds auth.Verifier
	if cfg.AuthEnabled() {
		c, err := auth.NewStaticCredentials(cfg.AuthUsername, cfg.AuthPasswordHash)
		if err != nil {
			logger.Error("Invalid auth configuration", "error", err)
			os.Exit(1)
		}
		creds = c
	}

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        apphttp.NewServer(ledger, statements, creds).Routes(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting", "port", cfg.Port, "auth", cfg.AuthEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
	}

	if err := ledger.Close(); err != nil {
		logger.Error("Cleanup error", "error", err)
	}
	logger.Info("Server stopped")
}
