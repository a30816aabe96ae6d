package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxDepositCommodities caps the commodity list returned per deposit.
const MaxDepositCommodities = 10

// DepositKeywords locates the columns of a deposit inventory.
type DepositKeywords struct {
	Latitude  []KeywordSet
	Longitude []KeywordSet
	Country   []KeywordSet
	SiteName  []KeywordSet

	// CommodityFields selects every column whose normalized name contains
	// one of these substrings. Fallback is used only when none match.
	CommodityFields         []string
	CommodityFieldsFallback []string
}

// DefaultDepositKeywords matches the USGS MRDS CSV layout.
var DefaultDepositKeywords = &DepositKeywords{
	Latitude:                []KeywordSet{{"latitude"}, {"lat"}},
	Longitude:               []KeywordSet{{"longitude"}, {"lon"}, {"long"}},
	Country:                 []KeywordSet{{"country"}},
	SiteName:                []KeywordSet{{"site_name"}, {"name"}},
	CommodityFields:         []string{"commod"},
	CommodityFieldsFallback: []string{"mineral", "resource"},
}

// Deposit is one mineral site from a deposit inventory.
type Deposit struct {
	Name        string   `json:"name"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Country     string   `json:"country,omitempty"`
	Commodities []string `json:"commodities"`
	Source      string   `json:"source"`

	// commodityText is the lowercased join of all commodity fields.
	commodityText string
}

// DepositSet is the in-memory deposit inventory of one source.
type DepositSet struct {
	Source     string
	LoadID     string
	LoadedAt   time.Time
	HasCountry bool
	Deposits   []Deposit
	Dropped    int
}

// DepositQuery filters a deposit search. Limit <= 0 returns every match.
type DepositQuery struct {
	Commodity string
	Country   string
	Limit     int
}

// depositColumns is the resolved layout of a deposit table.
type depositColumns struct {
	lat, lon    Column
	country     *Column
	siteName    *Column
	commodities []Column
}

func inferDepositColumns(source string, header []string, kw *DepositKeywords) (depositColumns, error) {
	var cols depositColumns
	var missing []Role

	lat, ok := FindColumn(header, kw.Latitude)
	if !ok {
		missing = append(missing, "latitude")
	}
	lon, ok := FindColumn(header, kw.Longitude)
	if !ok {
		missing = append(missing, "longitude")
	}

	cols.commodities = columnsContaining(header, kw.CommodityFields)
	if len(cols.commodities) == 0 {
		cols.commodities = columnsContaining(header, kw.CommodityFieldsFallback)
	}
	if len(cols.commodities) == 0 {
		missing = append(missing, RoleCommodity)
	}
	if len(missing) > 0 {
		return cols, &SchemaError{Source: source, Missing: missing}
	}

	cols.lat, cols.lon = lat, lon
	if c, ok := FindColumn(header, kw.Country); ok {
		cols.country = &c
	}
	if c, ok := FindColumn(header, kw.SiteName); ok {
		cols.siteName = &c
	}
	return cols, nil
}

func columnsContaining(header []string, subs []string) []Column {
	var out []Column
	for i, name := range header {
		for _, s := range subs {
			if strings.Contains(name, s) {
				out = append(out, Column{Name: name, Index: i})
				break
			}
		}
	}
	return out
}

// IngestDeposits builds a deposit set from a raw table. Rows without
// numeric coordinates are dropped.
func IngestDeposits(def SourceDefinition, t *RawTable) (*DepositSet, error) {
	kw := def.Deposits
	if kw == nil {
		kw = DefaultDepositKeywords
	}

	cols, err := inferDepositColumns(def.Key, t.Header, kw)
	if err != nil {
		return nil, err
	}

	set := &DepositSet{
		Source:     def.Key,
		LoadID:     uuid.NewString(),
		LoadedAt:   time.Now().UTC(),
		HasCountry: cols.country != nil,
		Deposits:   make([]Deposit, 0, len(t.Rows)),
	}

	for _, row := range t.Rows {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(cell(row, cols.lat.Index)), 64)
		lng, errLng := strconv.ParseFloat(strings.TrimSpace(cell(row, cols.lon.Index)), 64)
		if errLat != nil || errLng != nil {
			set.Dropped++
			continue
		}

		d := Deposit{Lat: lat, Lng: lng, Source: def.Key}
		if cols.siteName != nil {
			d.Name = cell(row, cols.siteName.Index)
		}
		if d.Name == "" {
			d.Name = "Unknown"
		}
		if cols.country != nil {
			d.Country = cell(row, cols.country.Index)
		}

		var fields []string
		for _, c := range cols.commodities {
			if v := cell(row, c.Index); v != "" {
				fields = append(fields, v)
			}
		}
		blob := strings.Join(fields, " ; ")
		d.commodityText = strings.ToLower(blob)
		d.Commodities = splitCommodities(blob, MaxDepositCommodities)

		set.Deposits = append(set.Deposits, d)
	}

	return set, nil
}

func splitCommodities(blob string, max int) []string {
	parts := strings.Split(strings.ReplaceAll(blob, ",", ";"), ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
			if len(out) == max {
				break
			}
		}
	}
	return out
}
