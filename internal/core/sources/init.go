// Package sources registers every source definition with the core registry
// and binds each one to its configured backing file.
// Import this package to ensure all sources are registered.
package sources

// Keys of the registered sources.
const (
	KeyUSGS = "usgs-mcs"
	KeyBGS  = "bgs-wms"
	KeyMRDS = "mrds"
)
