package core

import (
	"fmt"
	"regexp"
	"strconv"
)

// Statistic labels emitted by the wide-to-long reshape.
const (
	StatisticProduction          = "Production"
	StatisticProductionEstimated = "Production (est)"
)

// LongHeader is the fixed header of a reshaped table.
var LongHeader = []string{"commodity", "country", "year", "value", "unit", "statistic"}

// ReshapePattern describes a wide layout with one column per year, named
// <prefix>[_<tag>]_<yyyy> after normalization (e.g. prod_2022, prod_est_2023).
type ReshapePattern struct {
	Prefix       string
	EstimatedTag string

	re *regexp.Regexp
}

// NewReshapePattern compiles the column pattern for prefix and tag.
func NewReshapePattern(prefix, estimatedTag string) *ReshapePattern {
	expr := fmt.Sprintf(`^%s(_%s)?_?(\d{4})`, regexp.QuoteMeta(prefix), regexp.QuoteMeta(estimatedTag))
	return &ReshapePattern{
		Prefix:       prefix,
		EstimatedTag: estimatedTag,
		re:           regexp.MustCompile(expr),
	}
}

type yearColumn struct {
	index     int
	year      int
	statistic string
}

// yearColumns returns the per-year columns of header in file order.
func (p *ReshapePattern) yearColumns(header []string) []yearColumn {
	var cols []yearColumn
	for i, name := range header {
		m := p.re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		statistic := StatisticProduction
		if m[1] != "" {
			statistic = StatisticProductionEstimated
		}
		cols = append(cols, yearColumn{index: i, year: year, statistic: statistic})
	}
	return cols
}

// Matches reports whether header has at least one per-year column.
func (p *ReshapePattern) Matches(header []string) bool {
	return len(p.yearColumns(header)) > 0
}

// Apply converts a wide table into long form. Commodity, country and unit
// columns are located with keywords. When commodity or country cannot be
// found, or no per-year column exists, the table is returned unchanged.
func (p *ReshapePattern) Apply(t *RawTable, keywords KeywordTable) *RawTable {
	commodity, ok := FindColumn(t.Header, keywords[RoleCommodity])
	if !ok {
		return t
	}
	country, ok := FindColumn(t.Header, keywords[RoleCountry])
	if !ok {
		return t
	}
	unit, hasUnit := FindColumn(t.Header, keywords[RoleUnit])

	yearCols := p.yearColumns(t.Header)
	if len(yearCols) == 0 {
		return t
	}

	rows := make([][]string, 0, len(yearCols)*len(t.Rows))
	for _, yc := range yearCols {
		year := strconv.Itoa(yc.year)
		for _, row := range t.Rows {
			var u string
			if hasUnit {
				u = cell(row, unit.Index)
			}
			rows = append(rows, []string{
				cell(row, commodity.Index),
				cell(row, country.Index),
				year,
				cell(row, yc.index),
				u,
				yc.statistic,
			})
		}
	}

	header := make([]string, len(LongHeader))
	copy(header, LongHeader)

	return &RawTable{Header: header, Rows: rows, Encoding: t.Encoding}
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
