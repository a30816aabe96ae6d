package core

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliasesYAML []byte

// MaxCountryCodeLen is the longest input treated as an ISO-style code.
const MaxCountryCodeLen = 3

// NormalizeCountry strips commas and collapses whitespace.
func NormalizeCountry(name string) string {
	name = strings.ReplaceAll(name, ",", "")
	return strings.Join(strings.Fields(name), " ")
}

// AliasTable holds groups of interchangeable country names.
type AliasTable struct {
	groups [][]string
	index  map[string]int // lowercased normalized name -> group
}

type aliasFile struct {
	Groups [][]string `yaml:"groups"`
}

// LoadAliases reads alias groups from YAML.
func LoadAliases(r io.Reader) (*AliasTable, error) {
	var f aliasFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode aliases: %w", err)
	}

	t := &AliasTable{index: make(map[string]int)}
	for _, g := range f.Groups {
		var names []string
		for _, n := range g {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		if len(names) < 2 {
			continue
		}

		gi := len(t.groups)
		t.groups = append(t.groups, names)
		for _, n := range names {
			key := aliasKey(n)
			if _, dup := t.index[key]; dup {
				return nil, fmt.Errorf("alias %q appears in more than one group", n)
			}
			t.index[key] = gi
		}
	}
	return t, nil
}

// LoadAliasFile reads alias groups from a YAML file on disk.
func LoadAliasFile(path string) (*AliasTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alias file: %w", err)
	}
	defer f.Close()
	return LoadAliases(f)
}

// DefaultAliases returns the embedded alias table.
func DefaultAliases() *AliasTable {
	t, err := LoadAliases(strings.NewReader(string(defaultAliasesYAML)))
	if err != nil {
		panic(fmt.Sprintf("embedded aliases: %v", err))
	}
	return t
}

// Aliases returns the other names of name's group in listed order.
func (t *AliasTable) Aliases(name string) []string {
	if t == nil {
		return nil
	}
	gi, ok := t.index[aliasKey(name)]
	if !ok {
		return nil
	}

	key := aliasKey(name)
	var out []string
	for _, n := range t.groups[gi] {
		if aliasKey(n) != key {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of alias groups.
func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.groups)
}

func aliasKey(name string) string {
	return strings.ToLower(NormalizeCountry(name))
}

// MatchCountry returns the indexes of items whose country text matches name.
//
// Short tokens are tried first as codes when code(i) is available. Otherwise
// and on no code match, country(i) is contains-matched against the
// normalized input; when that is empty each alias is tried in turn.
func (t *AliasTable) MatchCountry(n int, name string, country, code func(int) string) []int {
	needle := NormalizeCountry(name)
	if needle == "" {
		return allIndexes(n)
	}

	if code != nil && len(needle) <= MaxCountryCodeLen {
		if idx := matchIndexes(n, func(i int) bool { return strings.EqualFold(code(i), needle) }); len(idx) > 0 {
			return idx
		}
	}

	if idx := containsIndexes(n, needle, country); len(idx) > 0 {
		return idx
	}

	for _, alt := range t.Aliases(needle) {
		if idx := containsIndexes(n, alt, country); len(idx) > 0 {
			return idx
		}
	}
	return nil
}

// containsIndexes compares normalized forms so that punctuation in the
// data does not defeat an alias.
func containsIndexes(n int, needle string, field func(int) string) []int {
	needle = aliasKey(needle)
	return matchIndexes(n, func(i int) bool {
		return strings.Contains(aliasKey(field(i)), needle)
	})
}

func matchIndexes(n int, keep func(int) bool) []int {
	var idx []int
	for i := 0; i < n; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return idx
}

func allIndexes(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
