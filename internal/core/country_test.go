package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCountry(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Congo, Democratic Republic", "Congo Democratic Republic"},
		{"  United   States ", "United States"},
		{"Korea,  Republic of", "Korea Republic of"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCountry(tt.input))
		})
	}
}

func TestDefaultAliases(t *testing.T) {
	aliases := DefaultAliases()
	require.Greater(t, aliases.Len(), 9)

	assert.Equal(t, []string{"Russian Federation"}, aliases.Aliases("Russia"))
	assert.Equal(t, []string{"Russia"}, aliases.Aliases("russian federation"), "groups are bidirectional")
	assert.Equal(t,
		[]string{"Congo (Kinshasa)", "Democratic Republic of the Congo"},
		aliases.Aliases("Congo, Democratic Republic"),
	)
	assert.Equal(t,
		[]string{"South Korea", "Republic of Korea"},
		aliases.Aliases("Korea, Republic of"),
	)
	assert.Nil(t, aliases.Aliases("Atlantis"))
}

func TestLoadAliases(t *testing.T) {
	t.Run("custom groups", func(t *testing.T) {
		table, err := LoadAliases(strings.NewReader(`
groups:
  - [Czechia, Czech Republic]
  - [Lonely]
`))
		require.NoError(t, err)
		assert.Equal(t, 1, table.Len(), "single-name groups are ignored")
		assert.Equal(t, []string{"Czech Republic"}, table.Aliases("czechia"))
	})

	t.Run("empty document", func(t *testing.T) {
		table, err := LoadAliases(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, 0, table.Len())
	})

	t.Run("name in two groups", func(t *testing.T) {
		_, err := LoadAliases(strings.NewReader(`
groups:
  - [Burma, Myanmar]
  - [Myanmar, Union of Myanmar]
`))
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadAliases(strings.NewReader("groups: [unterminated"))
		require.Error(t, err)
	})
}

func TestMatchCountry(t *testing.T) {
	aliases := DefaultAliases()
	countries := []string{"Australia", "Russian Federation", "Congo (Kinshasa)", "Chile", "United States"}
	codes := []string{"AUS", "RUS", "COD", "CHL", "USA"}
	name := func(i int) string { return countries[i] }
	code := func(i int) string { return codes[i] }

	tests := []struct {
		name  string
		input string
		code  func(int) string
		want  []int
	}{
		{name: "contains match ignores case", input: "chile", want: []int{3}},
		{name: "substring of official name", input: "Russia", want: []int{1}},
		{name: "official name matches directly", input: "Russian Federation", want: []int{1}},
		{name: "alias fallback after comma stripping", input: "Congo, Democratic Republic", want: []int{2}},
		{name: "iso code with code column", input: "cod", code: code, want: []int{2}},
		{name: "iso3 code", input: "USA", code: code, want: []int{4}},
		{name: "code match ignores case", input: "Aus", code: code, want: []int{0}},
		{name: "short token without codes falls back to names", input: "Chi", want: []int{3}},
		{name: "no match", input: "Atlantis", want: nil},
		{name: "blank keeps everything", input: "  ", want: []int{0, 1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aliases.MatchCountry(len(countries), tt.input, name, tt.code)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchCountry_AliasIdempotent(t *testing.T) {
	aliases := DefaultAliases()

	for _, data := range [][]string{
		{"Russia", "Chile"},
		{"Russian Federation", "Chile"},
	} {
		field := func(i int) string { return data[i] }
		a := aliases.MatchCountry(len(data), "Russia", field, nil)
		b := aliases.MatchCountry(len(data), "Russian Federation", field, nil)
		assert.Equal(t, a, b, "data %v", data)
		assert.Equal(t, []int{0}, a)
	}
}
