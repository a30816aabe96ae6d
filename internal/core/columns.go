package core

// columns.go locates semantic columns in a raw release by keyword matching.
//
// Each source carries a KeywordTable: for every role an ordered list of
// keyword sets. A column satisfies a set when its normalized name contains
// every keyword of the set. Sets are tried in order and, within a set, the
// first column in file order wins. Supporting a renamed column in a new
// release means adding a table entry, not editing this file.

import (
	"regexp"
	"strings"
)

// Role is a semantic slot that must be located among a source's columns.
type Role string

const (
	RoleCommodity   Role = "commodity"
	RoleCountry     Role = "country"
	RoleYear        Role = "year"
	RoleValue       Role = "value"
	RoleUnit        Role = "unit"
	RoleStatistic   Role = "statistic"
	RoleCountryCode Role = "country_code"
)

// RequiredRoles must resolve for a statistics source to load.
// The order is the order in which missing roles are reported.
var RequiredRoles = []Role{RoleCommodity, RoleCountry, RoleYear, RoleValue}

// OptionalRoles degrade to absent fields when unresolved.
var OptionalRoles = []Role{RoleUnit, RoleStatistic, RoleCountryCode}

// KeywordSet is a conjunction of keywords a normalized header must contain.
type KeywordSet []string

// KeywordTable maps each role to keyword sets in priority order.
type KeywordTable map[Role][]KeywordSet

// DefaultKeywords covers releases whose headers use plain English names.
var DefaultKeywords = KeywordTable{
	RoleCommodity: {{"commodity"}, {"mineral"}},
	RoleCountry:   {{"country"}, {"nation"}},
	RoleYear:      {{"year"}},
	RoleValue:     {{"value"}, {"quantity"}, {"production"}, {"amount"}},
	RoleUnit:      {{"unit"}},
	RoleStatistic: {{"statistic"}, {"measure"}},
}

// Column identifies a raw column by name and position.
type Column struct {
	Name  string
	Index int
}

// ColumnMap is the resolved role → column mapping for one source.
type ColumnMap map[Role]Column

// Has reports whether role resolved.
func (m ColumnMap) Has(role Role) bool {
	_, ok := m[role]
	return ok
}

// Cell returns the row's value for role, or "" when the role is absent
// or the row is short.
func (m ColumnMap) Cell(row []string, role Role) string {
	col, ok := m[role]
	if !ok || col.Index >= len(row) {
		return ""
	}
	return row[col.Index]
}

var headerSeparators = regexp.MustCompile(`[\s\-/_]+`)

// NormalizeHeader lowercases a header and collapses whitespace, hyphens,
// slashes and underscores into single underscores.
func NormalizeHeader(h string) string {
	h = strings.ToLower(CleanCell(strings.TrimPrefix(h, "\ufeff")))
	h = headerSeparators.ReplaceAllString(h, "_")
	return strings.Trim(h, "_")
}

// NormalizeHeaders normalizes every header in place order.
func NormalizeHeaders(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = NormalizeHeader(h)
	}
	return out
}

// FindColumn returns the first column satisfying the highest-priority
// keyword set. header must already be normalized.
func FindColumn(header []string, sets []KeywordSet) (Column, bool) {
	for _, set := range sets {
		for i, name := range header {
			if containsAll(name, set) {
				return Column{Name: name, Index: i}, true
			}
		}
	}
	return Column{}, false
}

func containsAll(name string, set KeywordSet) bool {
	if len(set) == 0 {
		return false
	}
	for _, kw := range set {
		if !strings.Contains(name, NormalizeHeader(kw)) {
			return false
		}
	}
	return true
}

// InferColumns resolves every role in table against normalized header.
// A *SchemaError lists every required role that did not resolve.
func InferColumns(source string, header []string, table KeywordTable) (ColumnMap, error) {
	cols := make(ColumnMap)
	var missing []Role

	for _, role := range RequiredRoles {
		col, ok := FindColumn(header, table[role])
		if !ok {
			missing = append(missing, role)
			continue
		}
		cols[role] = col
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Source: source, Missing: missing}
	}

	for _, role := range OptionalRoles {
		if col, ok := FindColumn(header, table[role]); ok {
			cols[role] = col
		}
	}

	return cols, nil
}
