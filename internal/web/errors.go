package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as caller-facing messages with action suggestions
//   - Formatted as JSON, or Markdown when the client asked for it
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Status is derived from the error kind; message via core.MapError
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered in the format the client asked for

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/logging"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/render"
	weblog "github.com/Jimmy-INL/critical-minerals-data-tools/internal/web/middleware"
)

var (
	errRateLimited   = errors.New("rate limit exceeded")
	errRouteNotFound = fmt.Errorf("%w: no such route", core.ErrInvalidParameter)
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	// Missing lists the unresolved column roles of a schema error.
	Missing []string `json:"missing,omitempty"`
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errRouteNotFound):
		return http.StatusNotFound
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrUnknownSource), errors.Is(err, core.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSchema), errors.Is(err, core.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError handles error responses with caller-facing messages.
// It logs the technical error server-side and returns a JSON or Markdown body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	s.metrics.RecordAPIError(userMsg.Code, weblog.RoutePattern(r))

	var missing []string
	var schemaErr *core.SchemaError
	if errors.As(err, &schemaErr) {
		missing = schemaErr.MissingNames()
	}

	if wantsMarkdown(r) {
		w.Header().Set("Content-Type", render.ContentType)
		w.WriteHeader(status)
		fmt.Fprint(w, render.Error(userMsg, missing...))
		return
	}
	respondErrorJSON(w, userMsg, missing, status)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, missing []string, statusCode int) {
	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	if len(missing) > 0 {
		resp.Error = msg.Message + ": " + strings.Join(missing, ", ")
		resp.Missing = missing
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}
