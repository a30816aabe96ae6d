// Package core normalizes mineral-commodity statistics and answers
// analytical queries over them.
//
// The package holds every piece of domain logic and is independent of any
// transport. It is used by the HTTP server, the mineralctl CLI and tests
// without modification.
//
// # Architecture
//
// The package is organized around a few concepts:
//
//   - Source Definitions: Registered via the registry. Each definition carries
//     the keyword table that locates its columns and, for wide releases, the
//     reshape pattern that turns per-year columns into rows.
//   - Store: Builds each source on first access and keeps the resulting
//     [Relation] or [DepositSet] for the life of the process.
//   - Engine: Pure query functions over a relation snapshot.
//   - Service: The entry point used by callers; resolves a source through the
//     Store and runs the Engine.
//
// # Source Registry
//
// Sources are registered at init time using [Register]:
//
//	core.Register(SourceDefinition{
//	    Key:       "usgs-mcs",
//	    Label:     "USGS Mineral Commodity Summaries",
//	    Kind:      KindStatistics,
//	    Keywords:  DefaultKeywords,
//	    Reshape:   NewReshapePattern("prod", "est"),
//	})
//
// # Ingestion
//
// A raw file becomes a relation in four steps:
//
//  1. [ReadTable] decodes CSV (UTF-8 or Windows-1252) or XLSX and normalizes headers
//  2. A matching [ReshapePattern] converts wide per-year columns to long rows
//  3. [InferColumns] resolves column roles by keyword, or fails with [SchemaError]
//  4. [ParseValue] and [ParseYear] convert cells; rows that fail are dropped
//
// # Country Matching
//
// Country filters are case-insensitive substring matches. Short tokens are
// tried as ISO codes first when the source has a code column, and a filter
// that matches nothing falls back to the names in its [AliasTable] group.
//
// # Error Handling
//
// Technical errors are mapped to caller-facing messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - SRC001-SRC002: Source errors (unavailable, unknown)
//   - SCH001-SCH002: Schema errors (missing columns, no tabular data)
//   - QRY001-QRY002: Query errors (no data, invalid parameter)
//   - RATE001: Rate limiting
package core
