package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/config"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/logging"
)

// Auth error codes returned in the JSON body.
const (
	CodeMissingKey = "AUTH001"
	CodeInvalidKey = "AUTH002"
)

// APIKeyAuth returns middleware that validates the caller's API key against
// the configured keys. The key is read from X-API-Key or from an
// "Authorization: Bearer" header.
// If RequireAPIKey is false, all requests pass through.
// If RequireAPIKey is true but no keys are configured, all requests are rejected.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			logger := logging.FromContext(r.Context())
			apiKey := requestKey(r)
			if apiKey == "" {
				logger.Warn("auth: missing API key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				writeAuthError(w, http.StatusUnauthorized, CodeMissingKey, "missing API key")
				return
			}

			if !isValidAPIKey(apiKey, cfg.APIKeys) {
				logger.Warn("auth: invalid API key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				writeAuthError(w, http.StatusForbidden, CodeInvalidKey, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestKey returns the API key presented by r, or "".
func requestKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="minerals"`)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   msg,
		"message": msg,
		"action":  "Provide a valid key in the X-API-Key header.",
		"code":    code,
	})
}

// isValidAPIKey checks if the provided key matches any configured key.
// Every key is compared so timing does not reveal which one matched.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
