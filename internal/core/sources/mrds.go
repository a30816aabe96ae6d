package sources

import "github.com/Jimmy-INL/critical-minerals-data-tools/internal/core"

func init() {
	registerMRDS()
}

func registerMRDS() {
	core.Register(core.SourceDefinition{
		Key:         KeyMRDS,
		Label:       "USGS Mineral Resources Data System",
		Publisher:   "U.S. Geological Survey",
		Description: "Mineral deposit locations with their commodities.",
		Kind:        core.KindDeposits,
		Deposits:    core.DefaultDepositKeywords,
	})
}
