package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/metrics"
)

// unmatchedRoute labels requests that did not hit a registered route, so
// arbitrary paths cannot inflate metric cardinality.
const unmatchedRoute = "unmatched"

// Metrics records request count and latency per route pattern.
// A nil collector disables recording.
func Metrics(c *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if c == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r)

			c.RecordAPIRequest(RoutePattern(r), r.Method, ww.status, time.Since(start))
		})
	}
}

// RoutePattern returns the chi route pattern matched by r, such as
// /api/{source}/production/ranking.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}
