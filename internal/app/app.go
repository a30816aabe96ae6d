// Package app wires configuration into a ready core.Service. It is shared by
// the HTTP server and the command line tool.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/config"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/core/sources"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/metrics"
)

// NewService builds the alias table, store and engine from cfg. m may be nil.
func NewService(cfg *config.Config, m *metrics.Collector) (*core.Service, error) {
	aliases, err := sources.Aliases(cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("load country aliases: %w", err)
	}

	bindings := sources.Bindings(cfg.Sources)
	for _, b := range bindings {
		slog.Debug("source bound",
			"source", b.Definition.Key,
			"kind", b.Definition.Kind,
			"configured", b.Fetcher != nil,
		)
	}

	store := core.NewStore(bindings, core.WithMetrics(m))
	return core.NewService(store, core.NewEngine(aliases), m), nil
}

// Warm loads every configured source within cfg.Sources.WarmTimeout.
// Failures are logged; the failing sources are retried on first use.
func Warm(ctx context.Context, cfg *config.Config, svc *core.Service) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Sources.WarmTimeout)
	defer cancel()

	if err := svc.Store().Warm(ctx); err != nil {
		slog.Warn("some sources failed to load", "error", err)
		return
	}
	slog.Info("sources warmed", "count", len(svc.Sources()))
}
