// Package metrics exposes Prometheus metrics for source ingestion and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector provides application metrics collection.
//
// Every Collector owns its registry so that tests and multiple binaries never
// collide on the global default registerer. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registry *prometheus.Registry

	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrorsTotal     *prometheus.CounterVec

	// Ingestion Metrics
	IngestionDuration    *prometheus.HistogramVec
	IngestionRowsTotal   *prometheus.CounterVec
	IngestionErrorsTotal *prometheus.CounterVec
	RelationRows         *prometheus.GaugeVec

	// Query Metrics
	QueryDuration *prometheus.HistogramVec
}

// NewCollector creates a collector whose metrics live under namespace.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by route, method, and status",
			},
			[]string{"route", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"route"},
		),

		APIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors by error code and route",
			},
			[]string{"code", "route"},
		),

		IngestionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ingestion_duration_seconds",
				Help:      "Duration of source fetch and normalization in seconds",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"source"},
		),

		IngestionRowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingestion_rows_total",
				Help:      "Raw rows seen during ingestion by outcome (kept, dropped)",
			},
			[]string{"source", "outcome"},
		),

		IngestionErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingestion_errors_total",
				Help:      "Total number of ingestion failures by type (fetch, schema)",
			},
			[]string{"source", "error_type"},
		),

		RelationRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "relation_rows",
				Help:      "Rows held in memory per loaded source",
			},
			[]string{"source"},
		),

		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query engine operation duration in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.5},
			},
			[]string{"operation"},
		),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Timer provides timing functionality for operations.
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer.
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation.
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordAPIRequest counts a request and observes its latency.
func (c *Collector) RecordAPIRequest(route, method string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.APIRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.APIRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordAPIError increments the API error counter.
func (c *Collector) RecordAPIError(code, route string) {
	if c == nil {
		return
	}
	c.APIErrorsTotal.WithLabelValues(code, route).Inc()
}

// RecordIngestion records a successful source build.
func (c *Collector) RecordIngestion(source string, kept, dropped int, d time.Duration) {
	if c == nil {
		return
	}
	c.IngestionDuration.WithLabelValues(source).Observe(d.Seconds())
	c.IngestionRowsTotal.WithLabelValues(source, "kept").Add(float64(kept))
	c.IngestionRowsTotal.WithLabelValues(source, "dropped").Add(float64(dropped))
	c.RelationRows.WithLabelValues(source).Set(float64(kept))
}

// RecordIngestionError increments the ingestion error counter.
func (c *Collector) RecordIngestionError(source, errorType string) {
	if c == nil {
		return
	}
	c.IngestionErrorsTotal.WithLabelValues(source, errorType).Inc()
}

// QueryTimer starts timing a query engine operation. A nil collector
// returns a timer that only measures.
func (c *Collector) QueryTimer(operation string) *Timer {
	if c == nil {
		return c.NewTimer(nil)
	}
	return c.NewTimer(c.QueryDuration.WithLabelValues(operation))
}
