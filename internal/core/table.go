package core

// table.go reads a source's backing file into a RawTable.
//
// Releases arrive as CSV (UTF-8, sometimes with a BOM, sometimes
// Windows-1252) or as XLSX workbooks. Both end up as a header row plus
// string rows; typing happens later, per role.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// MaxHeaderSearchRows bounds how far down a file the header row may appear
// below title or note rows.
const MaxHeaderSearchRows = 10

// Encodings reported on RawTable.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
	EncodingXLSX        = "xlsx"
)

var (
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
	zipMagic  = []byte("PK\x03\x04")
	errNoData = errors.New("no tabular data found")
)

// RawFile is the raw content of a source as handed over by a Fetcher.
type RawFile struct {
	Name string
	Data []byte
}

// RawTable is a header plus rows of cleaned cell text.
type RawTable struct {
	Header   []string
	Rows     [][]string
	Encoding string
}

// DecodeText strips a UTF-8 BOM and returns UTF-8 text. Input that is not
// valid UTF-8 is decoded as Windows-1252, the encoding older releases use.
func DecodeText(data []byte) ([]byte, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, EncodingUTF8, nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", fmt.Errorf("decode windows-1252: %w", err)
	}
	return decoded, EncodingWindows1252, nil
}

// ReadTable parses file as XLSX when it looks like a workbook and as CSV
// otherwise. Header cells are normalized; data cells are cleaned.
func ReadTable(file RawFile) (*RawTable, error) {
	var (
		records  [][]string
		encoding string
		err      error
	)

	if isWorkbook(file) {
		records, err = readXLSX(file.Data)
		encoding = EncodingXLSX
	} else {
		var text []byte
		text, encoding, err = DecodeText(file.Data)
		if err == nil {
			records, err = parseCSV(text)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errNoData, file.Name, err)
	}

	headerIdx := findHeaderRow(records)
	if headerIdx < 0 {
		return nil, fmt.Errorf("%w: %s", errNoData, file.Name)
	}

	t := &RawTable{
		Header:   NormalizeHeaders(records[headerIdx]),
		Rows:     make([][]string, 0, len(records)-headerIdx-1),
		Encoding: encoding,
	}
	for _, rec := range records[headerIdx+1:] {
		if isEmptyRow(rec) {
			continue
		}
		row := make([]string, len(rec))
		for i, v := range rec {
			row[i] = CleanCell(v)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func isWorkbook(file RawFile) bool {
	switch strings.ToLower(filepath.Ext(file.Name)) {
	case ".xlsx", ".xlsm":
		return true
	case ".csv", ".txt":
		return false
	}
	return bytes.HasPrefix(file.Data, zipMagic)
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// readXLSX returns the rows of the first sheet.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// findHeaderRow returns the first row with at least two non-empty cells
// within MaxHeaderSearchRows, skipping title rows. Falls back to the first
// non-empty row; -1 when there is none.
func findHeaderRow(records [][]string) int {
	limit := MaxHeaderSearchRows
	if len(records) < limit {
		limit = len(records)
	}

	firstNonEmpty := -1
	for i := 0; i < limit; i++ {
		n := nonEmptyCells(records[i])
		if n >= 2 {
			return i
		}
		if n > 0 && firstNonEmpty < 0 {
			firstNonEmpty = i
		}
	}
	return firstNonEmpty
}

func nonEmptyCells(row []string) int {
	n := 0
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

func isEmptyRow(row []string) bool {
	return nonEmptyCells(row) == 0
}
