package sources

import "github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"

func init() {
	registerUSGS()
}

// registerUSGS registers the USGS Mineral Commodity Summaries world
// production table. Releases before 2024 ship one column per year
// (Prod_2022, Prod_est_2023) and are reshaped to long form on load.
func registerUSGS() {
	core.Register(core.SourceDefinition{
		Key:         KeyUSGS,
		Label:       "USGS Mineral Commodity Summaries",
		Publisher:   "U.S. Geological Survey",
		Description: "Annual world mine production by commodity and country, with estimates for the latest year.",
		Kind:        core.KindStatistics,
		Keywords:    core.DefaultKeywords,
		Reshape:     core.NewReshapePattern("prod", "est"),
		DefaultTopN: 10,
	})
}
