package core

import "strings"

// CategoryOther collects commodities that match no category keyword.
const CategoryOther = "other"

// commodityCategory assigns commodities whose lowercased name contains any keyword.
type commodityCategory struct {
	name     string
	keywords []string
}

// commodityCategories are checked in order; the first match wins.
var commodityCategories = []commodityCategory{
	{"battery", []string{"lithium", "cobalt", "nickel", "graphite", "manganese"}},
	{"rare_earth", []string{"rare earth"}},
	{"strategic", []string{"platinum", "vanadium", "tungsten", "chromium", "tantalum", "niobium", "titanium"}},
	{"technology", []string{"gallium", "germanium", "indium", "beryl", "selenium", "rhenium"}},
	{"base_metals", []string{"copper", "zinc", "lead", "tin", "aluminium", "aluminum", "bauxite", "alumina", "iron"}},
	{"precious", []string{"gold", "silver"}},
	{"industrial", []string{"fluorspar", "magnesite", "phosphate", "barytes", "borate"}},
}

// Categorize returns the category of a commodity name.
func Categorize(commodity string) string {
	lower := strings.ToLower(commodity)
	for _, c := range commodityCategories {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.name
			}
		}
	}
	return CategoryOther
}

// CategorizeCommodities groups commodities by category, keeping input order
// within a category. Empty categories are omitted.
func CategorizeCommodities(commodities []string) map[string][]string {
	out := make(map[string][]string)
	for _, c := range commodities {
		cat := Categorize(c)
		out[cat] = append(out[cat], c)
	}
	return out
}

// CategoryNames returns every category in display order.
func CategoryNames() []string {
	names := make([]string, 0, len(commodityCategories)+1)
	for _, c := range commodityCategories {
		names = append(names, c.name)
	}
	return append(names, CategoryOther)
}
