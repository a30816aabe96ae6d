package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/config"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/metrics"
)

const statsCSV = `commodity,country,year,value,unit,statistic
Lithium,Australia,2022,61000,kt,Production
Lithium,Chile,2022,39000,kt,Production
Lithium,World total,2022,100000,kt,Production
Lithium,Chile,2021,26000,kt,Production
`

const sitesCSV = `site_name,latitude,longitude,country,commod1,commod2
Greenbushes,-33.86,116.06,Australia,"Lithium, Tantalum",Tin
Salar de Atacama,-23.5,-68.25,Chile,Lithium,Potash
Broken Hill,-31.95,141.47,Australia,"Lead, Zinc",Silver
`

func staticFile(name, data string) core.Fetcher {
	return core.FetcherFunc(func(ctx context.Context) (core.RawFile, error) {
		return core.RawFile{Name: name, Data: []byte(data)}, nil
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Query: config.QueryConfig{
			DefaultTopN:      10,
			ProfileLimit:     20,
			RecordLimit:      500,
			DepositLimit:     200,
			MaxDepositLimit:  5000,
			DefaultStatistic: "Production",
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	m := metrics.NewCollector("test")
	store := core.NewStore([]core.Binding{
		{
			Definition: core.SourceDefinition{Key: "stats", Label: "Test statistics", Kind: core.KindStatistics},
			Fetcher:    staticFile("stats.csv", statsCSV),
		},
		{
			Definition: core.SourceDefinition{Key: "broken", Kind: core.KindStatistics},
			Fetcher:    staticFile("broken.csv", "commodity,country,value\nLithium,Chile,1\n"),
		},
		{
			Definition: core.SourceDefinition{Key: "sites", Kind: core.KindDeposits, Deposits: core.DefaultDepositKeywords},
			Fetcher:    staticFile("sites.csv", sitesCSV),
		},
	}, core.WithMetrics(m))

	s := NewServer(core.NewService(store, nil, m), cfg, m)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func get(t *testing.T, s *Server, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestSources(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/sources")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sources []core.SourceInfo `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Sources, 3)
}

func TestRanking_JSON(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/stats/production/ranking?commodity=Lithium&top_n=2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res core.RankingResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2022, res.Year)
	require.Len(t, res.Rankings, 2)
	assert.Equal(t, "Australia", res.Rankings[0].Country)
	assert.Equal(t, 1, res.Rankings[0].Rank)
}

func TestRanking_Markdown(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		target string
		header []string
	}{
		{"format parameter", "/api/stats/production/ranking?commodity=Lithium&format=markdown", nil},
		{"accept header", "/api/stats/production/ranking?commodity=Lithium", []string{"Accept", "text/markdown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target, tt.header...)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/markdown"))
			assert.Contains(t, rec.Body.String(), "Australia")
		})
	}
}

func TestRanking_Errors(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"unknown source", "/api/nope/production/ranking?commodity=Lithium", http.StatusNotFound, "SRC002"},
		{"missing commodity", "/api/stats/production/ranking", http.StatusBadRequest, "QRY002"},
		{"malformed year", "/api/stats/production/ranking?commodity=Lithium&year=20x2", http.StatusBadRequest, "QRY002"},
		{"negative top_n", "/api/stats/production/ranking?commodity=Lithium&top_n=-1", http.StatusBadRequest, "QRY002"},
		{"schema error", "/api/broken/production/ranking?commodity=Lithium", http.StatusServiceUnavailable, "SCH001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			if tt.code == "SCH001" {
				assert.Contains(t, rec.Body.String(), "year")
			} else {
				assert.Empty(t, resp.Missing)
			}
		})
	}
}

func TestSchemaErrorNamesMissingRoles(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/broken/production/ranking?commodity=Lithium")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "SCH001", resp.Code)
	assert.Contains(t, resp.Missing, "year")
	assert.Contains(t, resp.Error, "year")

	rec = get(t, s, "/api/broken/production/ranking?commodity=Lithium&format=md")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing columns:")
	assert.Contains(t, rec.Body.String(), "year")
}

func TestErrorMarkdown(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/nope/commodities?format=md")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/markdown"))
	assert.Contains(t, rec.Body.String(), "SRC002")
}

func TestTimeSeriesAndCompare(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/stats/production/timeseries?commodity=Lithium&country=Chile")
	require.Equal(t, http.StatusOK, rec.Code)
	var ts core.TimeSeriesResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ts))
	require.Len(t, ts.Series, 2)
	assert.Equal(t, 2021, ts.Series[0].Year)
	assert.Nil(t, ts.Series[0].YoYChangePercent)
	require.NotNil(t, ts.Series[1].YoYChangePercent)
	assert.Equal(t, 50.0, *ts.Series[1].YoYChangePercent)

	rec = get(t, s, "/api/stats/production/timeseries?commodity=Lithium&year_from=2023&year_to=2021")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, s, "/api/stats/production/compare?commodity=Lithium&countries=Chile,Atlantis")
	require.Equal(t, http.StatusOK, rec.Code)
	var cmp core.CompareResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
	assert.Contains(t, cmp.Countries, "Chile")
	assert.NotContains(t, cmp.Countries, "Atlantis")

	rec = get(t, s, "/api/stats/production/compare?commodity=Lithium&countries=Atlantis")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "QRY001", decodeError(t, rec).Code)
}

func TestProfile(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/stats/countries/Chile/profile")
	require.Equal(t, http.StatusOK, rec.Code)

	var res core.ProfileResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2022, res.Year)
	require.Len(t, res.Commodities, 1)
	assert.Equal(t, 39000.0, res.Commodities[0].Quantity)
}

func TestCommoditiesCountriesRecords(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/api/stats/commodities?categorize=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"battery"`)

	rec = get(t, s, "/api/stats/commodities?categorize=maybe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, s, "/api/stats/countries?commodity=lithium")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chile")

	rec = get(t, s, "/api/stats/production/search?country=Chile&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var list core.RecordList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
}

func TestDepositSearch(t *testing.T) {
	s := newTestServer(t, testConfig())

	t.Run("first commodity only", func(t *testing.T) {
		rec := get(t, s, "/api/deposits/search?source=sites&commodity=tin,potash")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp core.DepositList
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.CommodityIgnored)
		require.Equal(t, 1, resp.Total)
		assert.Equal(t, "Greenbushes", resp.Deposits[0].Name)
	})

	t.Run("falls back without commodity", func(t *testing.T) {
		rec := get(t, s, "/api/deposits/search?source=sites&commodity=unobtainium&country=Australia")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp core.DepositList
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.CommodityIgnored)
		assert.Equal(t, 2, resp.Total)
	})

	t.Run("limit", func(t *testing.T) {
		rec := get(t, s, "/api/deposits/search?source=sites&limit=1")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp core.DepositList
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Total)
	})

	t.Run("default source is unbound", func(t *testing.T) {
		rec := get(t, s, "/api/deposits/search?commodity=lithium")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRouteNotFound(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/api/sources").Code)
	assert.Equal(t, http.StatusForbidden, get(t, s, "/api/sources", "X-API-Key", "wrong").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/api/sources", "X-API-Key", "k1").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/api/sources", "Authorization", "Bearer k1").Code)

	// health stays public
	assert.Equal(t, http.StatusOK, get(t, s, "/health").Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	s := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, get(t, s, "/health").Code)

	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig())

	get(t, s, "/api/stats/production/ranking?commodity=Lithium")
	get(t, s, "/api/nope/commodities")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `test_api_requests_total{method="GET",route="/api/{source}/production/ranking",status="200"} 1`)
	assert.Contains(t, body, `test_api_errors_total{code="SRC002",route="/api/{source}/commodities"} 1`)
	assert.Contains(t, body, "test_query_duration_seconds")
}
