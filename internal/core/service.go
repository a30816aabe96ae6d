package core

import (
	"context"
	"strings"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/metrics"
)

// Service is the entry point used by the HTTP server and the CLI. It
// resolves a source through the Store and runs the Engine on the snapshot.
type Service struct {
	store   *Store
	engine  *Engine
	metrics *metrics.Collector
}

// NewService creates a Service. m may be nil.
func NewService(store *Store, engine *Engine, m *metrics.Collector) *Service {
	if engine == nil {
		engine = NewEngine(nil)
	}
	return &Service{store: store, engine: engine, metrics: m}
}

// Store returns the underlying store.
func (s *Service) Store() *Store { return s.store }

// Sources describes every bound source.
func (s *Service) Sources() []SourceInfo { return s.store.Sources() }

// Definition returns the definition of a bound source.
func (s *Service) Definition(source string) (SourceDefinition, error) {
	return s.store.Definition(source)
}

// Relation returns the loaded relation of a statistics source.
func (s *Service) Relation(ctx context.Context, source string) (*Relation, error) {
	return s.store.Relation(ctx, source)
}

// CommodityList is the response of Commodities.
type CommodityList struct {
	Total       int                 `json:"total"`
	Commodities []string            `json:"commodities"`
	Categories  map[string][]string `json:"categories,omitempty"`
}

// Commodities lists the commodities of a source, grouped by category when asked.
func (s *Service) Commodities(ctx context.Context, source string, categorize bool) (CommodityList, error) {
	rel, err := s.store.Relation(ctx, source)
	if err != nil {
		return CommodityList{}, err
	}
	defer s.metrics.QueryTimer("commodities").ObserveDuration()

	names := s.engine.Commodities(rel)
	list := CommodityList{Total: len(names), Commodities: names}
	if categorize {
		list.Categories = CategorizeCommodities(names)
	}
	return list, nil
}

// CountryList is the response of Countries.
type CountryList struct {
	Total     int      `json:"total"`
	Countries []string `json:"countries"`
}

// Countries lists the countries of a source, optionally for one commodity.
func (s *Service) Countries(ctx context.Context, source, commodity string) (CountryList, error) {
	rel, err := s.store.Relation(ctx, source)
	if err != nil {
		return CountryList{}, err
	}
	defer s.metrics.QueryTimer("countries").ObserveDuration()

	names := s.engine.Countries(rel, commodity)
	return CountryList{Total: len(names), Countries: names}, nil
}

// RecordList is the response of Records.
type RecordList struct {
	Total   int           `json:"total"`
	Records []Observation `json:"records"`
}

// Records searches raw observations.
func (s *Service) Records(ctx context.Context, source string, q RecordsQuery) (RecordList, error) {
	rel, err := s.store.Relation(ctx, source)
	if err != nil {
		return RecordList{}, err
	}
	defer s.metrics.QueryTimer("records").ObserveDuration()

	rows := s.engine.Records(rel, q)
	return RecordList{Total: len(rows), Records: rows}, nil
}

// Ranking ranks producing countries.
func (s *Service) Ranking(ctx context.Context, source string, q RankingQuery) (RankingResult, error) {
	rel, err := s.store.Relation(ctx, source)
	if err != nil {
		return RankingResult{}, err
	}
	defer s.metrics.QueryTimer("ranking").ObserveDuration()

	return s.engine.Ranking(rel, q), nil
}

// TimeSeries returns a per-year series.
func (s *Service) TimeSeries(ctx context.Context, source string, q TimeSeriesQuery) (TimeSeriesResult, error) {
	rel, err := s.store.Relation(ctx, source)
	if err != nil {
		return TimeSeriesResult{}, err
	}
	defer s.metrics.QueryTimer("timeseries").ObserveDuration()

	return s.engine.TimeSeries(rel, q), nil
}

// Compare returns per-country series.
func (s *Service) Compare(ctx context.Context, source string, q CompareQuery) (CompareResult, error) {
	rel, err := s.store.Relation(ctx, source)
	if err != nil {
		return CompareResult{}, err
	}
	defer s.metrics.QueryTimer("compare").ObserveDuration()

	return s.engine.Compare(rel, q)
}

// Profile returns a country's commodity mix.
func (s *Service) Profile(ctx context.Context, source string, q ProfileQuery) (ProfileResult, error) {
	rel, err := s.store.Relation(ctx, source)
	if err != nil {
		return ProfileResult{}, err
	}
	defer s.metrics.QueryTimer("profile").ObserveDuration()

	return s.engine.Profile(rel, q), nil
}

// DepositList is the response of SearchDeposits.
type DepositList struct {
	Total    int       `json:"total"`
	Deposits []Deposit `json:"deposits"`

	// CommodityIgnored is set by FindDeposits when the commodity filter
	// matched nothing and was dropped.
	CommodityIgnored bool `json:"commodity_ignored,omitempty"`
}

// SearchDeposits searches a deposit inventory.
func (s *Service) SearchDeposits(ctx context.Context, source string, q DepositQuery) (DepositList, error) {
	set, err := s.store.Deposits(ctx, source)
	if err != nil {
		return DepositList{}, err
	}
	defer s.metrics.QueryTimer("deposits").ObserveDuration()

	found := s.engine.SearchDeposits(set, q)
	return DepositList{Total: len(found), Deposits: found}, nil
}

// FindDeposits is SearchDeposits for interactive callers. Only the first
// entry of a comma separated commodity list is used, and when that filter
// leaves nothing the search is repeated without it.
func (s *Service) FindDeposits(ctx context.Context, source string, q DepositQuery) (DepositList, error) {
	first, _, _ := strings.Cut(q.Commodity, ",")
	q.Commodity = strings.TrimSpace(first)

	list, err := s.SearchDeposits(ctx, source, q)
	if err != nil || list.Total > 0 || q.Commodity == "" {
		return list, err
	}

	q.Commodity = ""
	list, err = s.SearchDeposits(ctx, source, q)
	list.CommodityIgnored = err == nil
	return list, err
}
