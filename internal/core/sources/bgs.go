package sources

import "github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"

func init() {
	registerBGS()
}

// bgsKeywords matches the BGS World Mineral Statistics export, whose
// translated columns carry a _trans suffix and whose country code is ISO3.
var bgsKeywords = core.KeywordTable{
	core.RoleCommodity:   {{"bgs_commodity"}, {"commodity"}},
	core.RoleCountry:     {{"country_trans"}, {"country"}},
	core.RoleCountryCode: {{"iso3"}, {"iso"}},
	core.RoleYear:        {{"year"}},
	core.RoleValue:       {{"quantity"}, {"value"}},
	core.RoleUnit:        {{"unit"}},
	core.RoleStatistic:   {{"statistic_type"}, {"statistic"}},
}

func registerBGS() {
	core.Register(core.SourceDefinition{
		Key:         KeyBGS,
		Label:       "BGS World Mineral Statistics",
		Publisher:   "British Geological Survey",
		Description: "Production, imports and exports by commodity and country since 1970.",
		Kind:        core.KindStatistics,
		Keywords:    bgsKeywords,
		DefaultTopN: 15,
	})
}
