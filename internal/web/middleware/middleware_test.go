package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/config"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/metrics"
)

func echoRemoteAddr() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.RemoteAddr))
	})
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		header  [2]string
		want    string
	}{
		{"no trusted proxies", nil, "10.0.0.1:5000", [2]string{"X-Real-IP", "1.2.3.4"}, "10.0.0.1:5000"},
		{"untrusted peer", []string{"192.168.0.0/16"}, "10.0.0.1:5000", [2]string{"X-Real-IP", "1.2.3.4"}, "10.0.0.1:5000"},
		{"trusted real ip", []string{"10.0.0.0/8"}, "10.0.0.1:5000", [2]string{"X-Real-IP", "1.2.3.4"}, "1.2.3.4"},
		{"trusted forwarded for", []string{"10.0.0.1"}, "10.0.0.1:5000", [2]string{"X-Forwarded-For", "5.6.7.8, 10.0.0.1"}, "5.6.7.8"},
		{"invalid header ignored", []string{"10.0.0.0/8"}, "10.0.0.1:5000", [2]string{"X-Real-IP", "not-an-ip"}, "10.0.0.1:5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			req.Header.Set(tt.header[0], tt.header[1])
			rec := httptest.NewRecorder()

			TrustedRealIP(tt.trusted)(echoRemoteAddr()).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes := ParseTrustedProxies([]string{"10.0.0.0/8", " 127.0.0.1 ", "", "garbage", "::1"})
	require.Len(t, prefixes, 3)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "127.0.0.1/32", prefixes[1].String())
	assert.Equal(t, "::1/128", prefixes[2].String())
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	t.Run("disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		APIKeyAuth(&config.SecurityConfig{})(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no keys configured rejects everything", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-API-Key", "anything")
		rec := httptest.NewRecorder()
		APIKeyAuth(&config.SecurityConfig{RequireAPIKey: true})(ok).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), CodeInvalidKey)
	})

	t.Run("missing key", func(t *testing.T) {
		rec := httptest.NewRecorder()
		APIKeyAuth(&config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k"}})(ok).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), CodeMissingKey)
	})
}

func TestRequestKey(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"x-api-key", "X-API-Key", " k1 ", "k1"},
		{"bearer", "Authorization", "Bearer k2", "k2"},
		{"bearer lowercase", "Authorization", "bearer k3", "k3"},
		{"basic ignored", "Authorization", "Basic abc", ""},
		{"none", "X-Other", "x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(tt.header, tt.value)
			assert.Equal(t, tt.want, requestKey(req))
		})
	}
}

func TestLogger_LevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("gone"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"bytes":4`)
	assert.Contains(t, out, `"route":"unmatched"`)
}

func TestMetrics_RoutePattern(t *testing.T) {
	c := metrics.NewCollector("mw")
	r := chi.NewRouter()
	r.Use(Metrics(c))
	r.Get("/api/{source}/commodities", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/usgs-mcs/commodities", nil))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `mw_api_requests_total{method="GET",route="/api/{source}/commodities",status="200"} 1`)
}

func TestMetrics_NilCollector(t *testing.T) {
	next := echoRemoteAddr()
	rec := httptest.NewRecorder()
	Metrics(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
