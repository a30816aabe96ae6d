package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Commodity", "commodity"},
		{"  Country Name ", "country_name"},
		{"Prod_t_est_2023", "prod_t_est_2023"},
		{"Unit / Measure", "unit_measure"},
		{"site-name", "site_name"},
		{"\ufeffCOUNTRY", "country"},
		{"a  __  b", "a_b"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHeader(tt.input))
		})
	}
}

func TestFindColumn(t *testing.T) {
	header := NormalizeHeaders([]string{"Source", "Mineral Name", "Commodity Group", "Nation", "Country"})

	t.Run("keyword set priority beats column order", func(t *testing.T) {
		col, ok := FindColumn(header, DefaultKeywords[RoleCommodity])
		require.True(t, ok)
		assert.Equal(t, Column{Name: "commodity_group", Index: 2}, col)
	})

	t.Run("first column wins within a set", func(t *testing.T) {
		col, ok := FindColumn([]string{"value_a", "value_b"}, []KeywordSet{{"value"}})
		require.True(t, ok)
		assert.Equal(t, 0, col.Index)
	})

	t.Run("all keywords of a set must match", func(t *testing.T) {
		_, ok := FindColumn([]string{"commodity", "trans"}, []KeywordSet{{"commodity", "trans"}})
		assert.False(t, ok)

		col, ok := FindColumn([]string{"bgs_commodity_trans"}, []KeywordSet{{"commodity", "trans"}})
		require.True(t, ok)
		assert.Equal(t, "bgs_commodity_trans", col.Name)
	})

	t.Run("country falls back to second set", func(t *testing.T) {
		col, ok := FindColumn(NormalizeHeaders([]string{"Nation", "Year"}), DefaultKeywords[RoleCountry])
		require.True(t, ok)
		assert.Equal(t, "nation", col.Name)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := FindColumn(header, DefaultKeywords[RoleYear])
		assert.False(t, ok)
	})
}

func TestInferColumns(t *testing.T) {
	t.Run("resolves required and optional roles", func(t *testing.T) {
		header := NormalizeHeaders([]string{"Commodity", "Country", "Year", "Value", "Unit", "Statistic"})
		cols, err := InferColumns("test", header, DefaultKeywords)
		require.NoError(t, err)

		assert.Equal(t, 0, cols[RoleCommodity].Index)
		assert.Equal(t, 3, cols[RoleValue].Index)
		assert.True(t, cols.Has(RoleUnit))
		assert.True(t, cols.Has(RoleStatistic))
		assert.False(t, cols.Has(RoleCountryCode))
	})

	t.Run("optional roles degrade", func(t *testing.T) {
		header := NormalizeHeaders([]string{"Mineral", "Nation", "Year", "Quantity"})
		cols, err := InferColumns("test", header, DefaultKeywords)
		require.NoError(t, err)
		assert.False(t, cols.Has(RoleUnit))
		assert.False(t, cols.Has(RoleStatistic))
		assert.Equal(t, "", cols.Cell([]string{"Lithium", "Chile", "2022", "1"}, RoleUnit))
	})

	t.Run("missing required roles are all named", func(t *testing.T) {
		header := NormalizeHeaders([]string{"Country", "Value"})
		_, err := InferColumns("usgs-mcs", header, DefaultKeywords)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSchema))

		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []Role{RoleCommodity, RoleYear}, schemaErr.Missing)
		assert.Equal(t, "source usgs-mcs: missing expected columns: commodity, year", err.Error())
	})
}

func TestColumnMapCell(t *testing.T) {
	cols := ColumnMap{RoleCountry: {Name: "country", Index: 2}}

	assert.Equal(t, "Chile", cols.Cell([]string{"a", "b", "Chile"}, RoleCountry))
	assert.Equal(t, "", cols.Cell([]string{"a"}, RoleCountry), "short row")
	assert.Equal(t, "", cols.Cell([]string{"a", "b", "c"}, RoleYear), "absent role")
}
