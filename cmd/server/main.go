package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/app"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/config"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/logging"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/metrics"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/web"
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
		"rate_limit_enabled", cfg.Rate.Enabled,
		"api_key_required", cfg.Security.RequireAPIKey,
		"metrics_enabled", cfg.Metrics.Enabled,
	)

	var m *metrics.Collector
	if cfg.Metrics.Enabled {
		m = metrics.NewCollector(cfg.Metrics.Namespace)
	}

	service, err := app.NewService(cfg, m)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	// Log registered sources
	slog.Info("sources registered",
		"count", core.SourceCount(),
		"statistics", len(core.ByKind(core.KindStatistics)),
		"deposits", len(core.ByKind(core.KindDeposits)),
	)

	// Warm in the background so the listener comes up immediately
	warmCtx, cancelWarm := context.WithCancel(context.Background())
	if cfg.Sources.WarmOnStart {
		go app.Warm(warmCtx, cfg, service)
	}

	server := web.NewServer(service, cfg, m)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelWarm()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
