package core

// convert.go turns raw release cells into typed values.
//
// Statistical releases are messy:
//   - Thousands separators ("1,234.5")
//   - Footnote placeholders for withheld or missing data ("—", "–", "..", "…", "W", "NA")
//   - Footnote markers glued to numbers ("61,000e", ">50")
//   - Year ranges ("2021–24") and timestamps ("2019-01-01T00:00:00Z")
//   - Spreadsheet export artifacts (="value", stray quotes)
//
// Parsers never fail the pipeline. They report ok=false and the row is dropped.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// valuePlaceholders are removed before the character filter so that a cell
	// holding only a placeholder collapses to the empty string.
	valuePlaceholders = strings.NewReplacer(
		",", "",
		"—", "", // em dash
		"–", "", // en dash
		"…", "", // ellipsis
		"..", "",
	)

	// nonNumeric matches everything outside the digits, the decimal point and the sign.
	nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

	// yearPattern captures a run of exactly four digits.
	yearPattern = regexp.MustCompile(`(?:^|\D)(\d{4})(?:\D|$)`)
)

// ParseValue converts a raw cell into a quantity.
// Returns ok=false when nothing numeric survives the cleanup.
func ParseValue(s string) (float64, bool) {
	s = valuePlaceholders.Replace(CleanCell(s))
	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseYear extracts the first four-digit year from a raw cell.
// "2021–24" yields 2021.
func ParseYear(s string) (int, bool) {
	m := yearPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return y, true
}

// CleanCell removes common export artifacts from a cell value:
// - Trims whitespace
// - Removes spreadsheet formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}

// round2 rounds to two decimal places for shares and percent changes.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
