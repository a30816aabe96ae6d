package core

import (
	"context"
	"time"
)

// Canonical statistic types. Source text is kept verbatim on observations,
// so "Production (est)" still matches a "Production" filter.
const (
	StatisticTypeProduction = "Production"
	StatisticTypeImports    = "Imports"
	StatisticTypeExports    = "Exports"
)

// SourceKind distinguishes statistics releases from deposit inventories.
type SourceKind int

const (
	KindStatistics SourceKind = iota
	KindDeposits
)

func (k SourceKind) String() string {
	switch k {
	case KindDeposits:
		return "deposits"
	default:
		return "statistics"
	}
}

// Observation is one (commodity, country, year, statistic) quantity fact.
type Observation struct {
	Commodity     string  `json:"commodity"`
	Country       string  `json:"country"`
	CountryCode   string  `json:"country_code,omitempty"`
	Year          int     `json:"year"`
	StatisticType string  `json:"statistic_type,omitempty"`
	Quantity      float64 `json:"quantity"`
	Units         string  `json:"units,omitempty"`
}

// Relation is the normalized long-form table of one source. It is never
// modified after the store publishes it.
type Relation struct {
	Source       string
	LoadID       string
	LoadedAt     time.Time
	Columns      ColumnMap
	Encoding     string
	Observations []Observation

	// Dropped counts raw rows discarded for an unparseable value or year.
	Dropped int
}

// HasStatistic reports whether the source has a statistic column.
func (r *Relation) HasStatistic() bool { return r.Columns.Has(RoleStatistic) }

// HasCountryCode reports whether the source has a country code column.
func (r *Relation) HasCountryCode() bool { return r.Columns.Has(RoleCountryCode) }

// Fetcher supplies the raw backing file of a source.
type Fetcher interface {
	Fetch(ctx context.Context) (RawFile, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (RawFile, error)

func (f FetcherFunc) Fetch(ctx context.Context) (RawFile, error) { return f(ctx) }

// SourceInfo describes a registered source.
type SourceInfo struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Publisher   string `json:"publisher"`
	Kind        string `json:"kind"`
	Configured  bool   `json:"configured"`
	Loaded      bool   `json:"loaded"`
	Description string `json:"description,omitempty"`
}

// SourceDefinition configures ingestion for one source.
type SourceDefinition struct {
	Key         string
	Label       string
	Publisher   string
	Description string
	Kind        SourceKind

	// Keywords locate statistics columns. Nil means DefaultKeywords.
	Keywords KeywordTable

	// Reshape converts a wide per-year layout to long form when it matches.
	Reshape *ReshapePattern

	// Deposits locates deposit columns for KindDeposits sources.
	Deposits *DepositKeywords

	// DefaultTopN is the ranking size used when a caller does not give one.
	DefaultTopN int
}

func (d SourceDefinition) keywords() KeywordTable {
	if d.Keywords == nil {
		return DefaultKeywords
	}
	return d.Keywords
}
