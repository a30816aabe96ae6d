package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/render"
)

// defaultDepositSource is searched when the request names no source.
const defaultDepositSource = "mrds"

// handleHealth reports liveness along with the source load state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{
		"status":  "ok",
		"sources": s.service.Sources(),
	})
}

// handleSources lists every bound source.
func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources := s.service.Sources()
	respond(w, r, map[string]any{"sources": sources}, func() string {
		return render.Sources(sources)
	})
}

// sourceParam returns the {source} path parameter.
func sourceParam(r *http.Request) string {
	return chi.URLParam(r, "source")
}

// handleCommodities lists the commodities of a source.
func (s *Server) handleCommodities(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	categorize := q.flag("categorize")
	if q.err != nil {
		s.respondError(w, r, q.err)
		return
	}

	list, err := s.service.Commodities(r.Context(), sourceParam(r), categorize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, list, func() string { return render.Commodities(list) })
}

// handleCountries lists the countries of a source.
func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	commodity := newQuery(r).str("commodity", "")

	list, err := s.service.Countries(r.Context(), sourceParam(r), commodity)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, list, func() string { return render.Countries(list, commodity) })
}

// handleRecords searches raw observations.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	rq := core.RecordsQuery{
		Commodity:     q.str("commodity", ""),
		Country:       q.str("country", ""),
		StatisticType: q.str("statistic_type", ""),
		Limit:         capped(q.nonNegInt("limit", s.cfg.Query.RecordLimit), s.cfg.Query.RecordLimit),
	}
	rq.YearFrom, rq.YearTo = q.yearRange()
	if q.err != nil {
		s.respondError(w, r, q.err)
		return
	}

	list, err := s.service.Records(r.Context(), sourceParam(r), rq)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, list, func() string { return render.Records(list) })
}

// handleRanking ranks producing countries for a commodity.
func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	source := sourceParam(r)
	def, err := s.service.Definition(source)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	topN := s.cfg.Query.DefaultTopN
	if def.DefaultTopN > 0 {
		topN = def.DefaultTopN
	}

	q := newQuery(r)
	rq := core.RankingQuery{
		Commodity:     q.required("commodity"),
		Year:          q.year("year"),
		StatisticType: q.str("statistic_type", s.cfg.Query.DefaultStatistic),
		TopN:          q.nonNegInt("top_n", topN),
	}
	if q.err != nil {
		s.respondError(w, r, q.err)
		return
	}

	res, err := s.service.Ranking(r.Context(), source, rq)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, res, func() string { return render.Ranking(res) })
}

// handleTimeSeries returns a per-year series for a commodity.
func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	tq := core.TimeSeriesQuery{
		Commodity:     q.required("commodity"),
		Country:       q.str("country", ""),
		StatisticType: q.str("statistic_type", s.cfg.Query.DefaultStatistic),
	}
	tq.YearFrom, tq.YearTo = q.yearRange()
	if q.err != nil {
		s.respondError(w, r, q.err)
		return
	}

	res, err := s.service.TimeSeries(r.Context(), sourceParam(r), tq)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, res, func() string { return render.TimeSeries(res) })
}

// handleCompare returns per-country series for a commodity.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	cq := core.CompareQuery{
		Commodity:     q.required("commodity"),
		Countries:     q.required("countries"),
		StatisticType: q.str("statistic_type", s.cfg.Query.DefaultStatistic),
	}
	cq.YearFrom, cq.YearTo = q.yearRange()
	if q.err != nil {
		s.respondError(w, r, q.err)
		return
	}

	res, err := s.service.Compare(r.Context(), sourceParam(r), cq)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, res, func() string { return render.Compare(res) })
}

// handleProfile returns a country's commodity mix.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	country, err := url.PathUnescape(chi.URLParam(r, "country"))
	if err != nil || strings.TrimSpace(country) == "" {
		s.respondError(w, r, errInvalid("country", "must be a country name or code"))
		return
	}

	q := newQuery(r)
	pq := core.ProfileQuery{
		Country:       strings.TrimSpace(country),
		Year:          q.year("year"),
		StatisticType: q.str("statistic_type", s.cfg.Query.DefaultStatistic),
		Limit:         q.nonNegInt("limit", s.cfg.Query.ProfileLimit),
	}
	if q.err != nil {
		s.respondError(w, r, q.err)
		return
	}

	res, err := s.service.Profile(r.Context(), sourceParam(r), pq)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, res, func() string { return render.Profile(res) })
}

// handleDepositSearch searches a deposit inventory.
func (s *Server) handleDepositSearch(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	source := q.str("source", defaultDepositSource)
	dq := core.DepositQuery{
		Commodity: q.str("commodity", ""),
		Country:   q.str("country", ""),
		Limit:     capped(q.nonNegInt("limit", s.cfg.Query.DepositLimit), s.cfg.Query.MaxDepositLimit),
	}
	if q.err != nil {
		s.respondError(w, r, q.err)
		return
	}

	list, err := s.service.FindDeposits(r.Context(), source, dq)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respond(w, r, list, func() string { return render.Deposits(list) })
}

func errInvalid(name, reason string) error {
	return &paramError{name: name, reason: reason}
}

// paramError reports a malformed path parameter.
type paramError struct {
	name, reason string
}

func (e *paramError) Error() string {
	return core.ErrInvalidParameter.Error() + ": " + e.name + " " + e.reason
}

func (e *paramError) Unwrap() error { return core.ErrInvalidParameter }
