// Package web provides the HTTP API over the mineral statistics service.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/config"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/metrics"
	weblog "github.com/Jimmy-INL/critical-minerals-data-tools/internal/web/middleware"
)

// Server is the HTTP server for the statistics API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	metrics *metrics.Collector
	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
}

// NewServer creates a new Server instance. m may be nil.
func NewServer(service *core.Service, cfg *config.Config, m *metrics.Collector) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		metrics: m,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(weblog.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(weblog.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(weblog.Metrics(s.metrics))

	// Security hardening
	s.router.Use(s.securityHeaders)

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst)
		s.router.Use(s.limiter.middleware(s.respondError))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	if s.cfg.Metrics.Enabled && s.metrics != nil {
		s.router.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(weblog.APIKeyAuth(&s.cfg.Security))

		// Source listing
		r.Get("/sources", s.handleSources)

		// Deposit inventory
		r.Get("/deposits/search", s.handleDepositSearch)

		// Statistics sources
		r.Route("/{source}", func(r chi.Router) {
			r.Get("/commodities", s.handleCommodities)
			r.Get("/countries", s.handleCountries)
			r.Get("/countries/{country}/profile", s.handleProfile)

			r.Get("/production/search", s.handleRecords)
			r.Get("/production/ranking", s.handleRanking)
			r.Get("/production/timeseries", s.handleTimeSeries)
			r.Get("/production/compare", s.handleCompare)
		})
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, errRouteNotFound)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// The API serves data only
		if s.cfg.Security.EnableCSP {
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		}

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "path", r.URL.Path, "error", err)
	}
}
