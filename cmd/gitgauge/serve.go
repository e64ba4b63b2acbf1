package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gitgauge/gitgauge/internal/ai"
	"github.com/gitgauge/gitgauge/internal/config"
	"github.com/gitgauge/gitgauge/internal/gitfetch"
	"github.com/gitgauge/gitgauge/internal/interfaces"
	"github.com/gitgauge/gitgauge/internal/logging"
	"github.com/gitgauge/gitgauge/internal/quota"
	"github.com/gitgauge/gitgauge/internal/scan"
	"github.com/gitgauge/gitgauge/internal/server"
	"github.com/gitgauge/gitgauge/internal/store"
	"github.com/gitgauge/gitgauge/internal/survey"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// openStore builds the configured document store. Both backends serve scans
// and quota windows.
func openStore(cfg *config.Config, logger logging.Logger) (interfaces.ScanStore, interfaces.QuotaStore, error) {
	switch cfg.StoreBackend {
	case "memory":
		s := store.NewMemoryStore()
		return s, s, nil
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.StorePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func runServe() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logger := logging.NewStdoutLogger("GitGauge")

	scans, quotas, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	tracker := quota.New(cfg.Quota, quotas, logger)
	fetcher := gitfetch.New(cfg.Fetcher, logger)
	surveyor := survey.New(logger)
	generator := ai.NewGeminiGenerator(cfg.Gemini)
	client := ai.New(cfg.AI, generator, logger)

	orch := scan.NewOrchestrator(scans, tracker, fetcher, surveyor, client, logger)
	svc := scan.NewService(scans, tracker, fetcher, orch, logger)

	var verifier interfaces.AuthVerifier
	if cfg.AuthToken != "" {
		verifier = &server.StaticVerifier{Token: cfg.AuthToken}
	}

	srv := server.NewServer(server.Config{
		ListenAddr: cfg.ListenAddr,
		Verifier:   verifier,
		Logger:     logger,
	}, svc, orch, scans, tracker)
	defer srv.Close()

	httpSrv := srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigCh:
		logger.Info("shutting down", logging.Field{Key: "signal", Value: sig.String()})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.Warn("shutdown incomplete", logging.Field{Key: "error", Value: err.Error()})
		}
	}
	return nil
}
