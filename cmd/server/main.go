package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"logautofill/internal/config"
	"logautofill/internal/core"
	"logautofill/internal/logging"
	"logautofill/internal/sheet"
	"logautofill/internal/vision"
	"logautofill/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"model", cfg.Gemini.Model,
		"history_limit", cfg.Sync.HistoryLimit,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Wire the pipeline: vision extractor and spreadsheet store feed
	// the sync orchestrator.
	extractor := vision.New(cfg.Gemini.APIKey, cfg.Gemini.Model)
	store := sheet.NewClient(cfg.Sheet.CSVURL, cfg.Sheet.ScriptURL, cfg.Sheet.Timeout)
	service := core.NewService(extractor, store, cfg.Sync.RefreshDelay, cfg.Sync.HistoryLimit)

	// Warm the history cache. A cold start with no history is usable,
	// so a failed fetch only warns.
	warmCtx, cancelWarm := context.WithTimeout(context.Background(), cfg.Sheet.Timeout)
	if err := service.RefreshHistory(warmCtx); err != nil {
		slog.Warn("initial history fetch failed", "error", err)
	} else {
		slog.Info("history loaded", "records", service.State().HistorySize)
	}
	cancelWarm()

	// Create server with config
	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
