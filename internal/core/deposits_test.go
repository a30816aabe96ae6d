package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDeposits(t *testing.T, data string) *DepositSet {
	t.Helper()
	set, err := IngestDepositFile(depositDefinition("mrds"), RawFile{Name: "mrds.csv", Data: []byte(data)})
	require.NoError(t, err)
	return set
}

func TestIngestDeposits(t *testing.T) {
	set := loadDeposits(t, depositCSV)

	assert.True(t, set.HasCountry)
	assert.Equal(t, 1, set.Dropped, "rows without coordinates are dropped")
	require.Len(t, set.Deposits, 3)

	g := set.Deposits[0]
	assert.Equal(t, "Greenbushes", g.Name)
	assert.Equal(t, -33.86, g.Lat)
	assert.Equal(t, 116.06, g.Lng)
	assert.Equal(t, "Australia", g.Country)
	assert.Equal(t, []string{"Lithium", "Tantalum", "Tin"}, g.Commodities)
	assert.Equal(t, "mrds", g.Source)
}

func TestIngestDeposits_Defaults(t *testing.T) {
	set := loadDeposits(t, "lat,lon,mineral_list\n10.5,20.25,Gold\n")

	require.Len(t, set.Deposits, 1)
	assert.False(t, set.HasCountry)
	assert.Equal(t, "Unknown", set.Deposits[0].Name)
	assert.Equal(t, []string{"Gold"}, set.Deposits[0].Commodities, "fallback commodity columns")
}

func TestIngestDeposits_CommodityCap(t *testing.T) {
	set := loadDeposits(t, "latitude,longitude,commodity\n1,2,\"a;b;c;d;e;f;g;h;i;j;k;l\"\n")

	require.Len(t, set.Deposits, 1)
	assert.Len(t, set.Deposits[0].Commodities, MaxDepositCommodities)
}

func TestIngestDeposits_MissingColumns(t *testing.T) {
	_, err := IngestDepositFile(depositDefinition("mrds"), RawFile{Name: "x.csv", Data: []byte("site_name,country\nA,B\n")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchema))

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []Role{"latitude", "longitude", RoleCommodity}, schemaErr.Missing)
}

func TestSearchDeposits(t *testing.T) {
	e := NewEngine(nil)
	set := loadDeposits(t, depositCSV)

	names := func(ds []Deposit) []string {
		out := make([]string, len(ds))
		for i, d := range ds {
			out[i] = d.Name
		}
		return out
	}

	tests := []struct {
		name  string
		query DepositQuery
		want  []string
	}{
		{"by commodity", DepositQuery{Commodity: "LITHIUM"}, []string{"Greenbushes", "Salar de Atacama"}},
		{"by country", DepositQuery{Country: "australia"}, []string{"Greenbushes", "Broken Hill"}},
		{"commodity and country", DepositQuery{Commodity: "zinc", Country: "Australia"}, []string{"Broken Hill"}},
		{"matches any commodity field", DepositQuery{Commodity: "potash"}, []string{"Salar de Atacama"}},
		{"limit", DepositQuery{Limit: 2}, []string{"Greenbushes", "Salar de Atacama"}},
		{"no match", DepositQuery{Commodity: "unobtainium"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(e.SearchDeposits(set, tt.query)))
		})
	}
}

func TestSplitCommodities(t *testing.T) {
	assert.Equal(t, []string{"Lead", "Zinc", "Silver"}, splitCommodities("Lead, Zinc ; Silver", 10))
	assert.Equal(t, []string{"a", "b"}, splitCommodities("a;b;c", 2))
	assert.Empty(t, splitCommodities("", 10))
}
