// Package middleware provides HTTP middleware for the statistics API.
package middleware

import (
	"net/http"
	"time"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/logging"
)

// Logger logs one line per request using the request-scoped logger, so the
// entry carries the chi request ID.
//
// Log fields:
//   - method, path and route (the matched chi pattern)
//   - status and bytes written
//   - duration_ms
//   - ip (RemoteAddr, already resolved by TrustedRealIP)
//   - user_agent
//
// Server errors log at Error, client errors at Warn.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"route", RoutePattern(r),
			"status", ww.status,
			"bytes", ww.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		}

		logger := logging.FromContext(r.Context())
		switch {
		case ww.status >= http.StatusInternalServerError:
			logger.Error("request", attrs...)
		case ww.status >= http.StatusBadRequest:
			logger.Warn("request", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap exposes the underlying ResponseWriter to http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
