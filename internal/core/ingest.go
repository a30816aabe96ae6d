package core

// ingest.go turns a raw file into a normalized relation.
//
// The pipeline is the same for every statistics source; only the
// definition's keyword table and reshape pattern differ:
//
//  1. ReadTable decodes the file (BOM, Windows-1252, XLSX) and normalizes headers
//  2. A matching ReshapePattern converts wide per-year columns to long rows
//  3. InferColumns resolves roles, failing with *SchemaError on missing ones
//  4. Rows with an unparseable value or year are counted and dropped

import (
	"time"

	"github.com/google/uuid"
)

// Ingest builds the relation for a statistics source.
func Ingest(def SourceDefinition, file RawFile) (*Relation, error) {
	table, err := readSourceTable(def, file)
	if err != nil {
		return nil, err
	}
	return BuildRelation(def, table)
}

// BuildRelation reshapes table when the definition asks for it, resolves
// its columns and converts rows into observations.
func BuildRelation(def SourceDefinition, table *RawTable) (*Relation, error) {
	kw := def.keywords()
	if def.Reshape != nil && def.Reshape.Matches(table.Header) {
		table = def.Reshape.Apply(table, kw)
	}

	cols, err := InferColumns(def.Key, table.Header, kw)
	if err != nil {
		return nil, err
	}

	rel := &Relation{
		Source:       def.Key,
		LoadID:       uuid.NewString(),
		LoadedAt:     time.Now().UTC(),
		Columns:      cols,
		Encoding:     table.Encoding,
		Observations: make([]Observation, 0, len(table.Rows)),
	}

	for _, row := range table.Rows {
		q, ok := ParseValue(cols.Cell(row, RoleValue))
		if !ok {
			rel.Dropped++
			continue
		}
		y, ok := ParseYear(cols.Cell(row, RoleYear))
		if !ok {
			rel.Dropped++
			continue
		}

		rel.Observations = append(rel.Observations, Observation{
			Commodity:     cols.Cell(row, RoleCommodity),
			Country:       cols.Cell(row, RoleCountry),
			CountryCode:   cols.Cell(row, RoleCountryCode),
			Year:          y,
			StatisticType: cols.Cell(row, RoleStatistic),
			Quantity:      q,
			Units:         cols.Cell(row, RoleUnit),
		})
	}

	return rel, nil
}

// IngestDepositFile builds the deposit set for a deposit source.
func IngestDepositFile(def SourceDefinition, file RawFile) (*DepositSet, error) {
	table, err := readSourceTable(def, file)
	if err != nil {
		return nil, err
	}
	return IngestDeposits(def, table)
}

func readSourceTable(def SourceDefinition, file RawFile) (*RawTable, error) {
	table, err := ReadTable(file)
	if err != nil {
		return nil, &SchemaError{Source: def.Key, Reason: err.Error()}
	}
	return table, nil
}
