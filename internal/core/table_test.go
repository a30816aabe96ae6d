package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDecodeText(t *testing.T) {
	t.Run("strips BOM", func(t *testing.T) {
		got, enc, err := DecodeText([]byte("\xEF\xBB\xBFCommodity,Country"))
		require.NoError(t, err)
		assert.Equal(t, "Commodity,Country", string(got))
		assert.Equal(t, EncodingUTF8, enc)
	})

	t.Run("windows-1252 fallback", func(t *testing.T) {
		got, enc, err := DecodeText([]byte("C\xf4te d'Ivoire,2022"))
		require.NoError(t, err)
		assert.Equal(t, "Côte d'Ivoire,2022", string(got))
		assert.Equal(t, EncodingWindows1252, enc)
	})

	t.Run("valid UTF-8 untouched", func(t *testing.T) {
		got, enc, err := DecodeText([]byte("Türkiye"))
		require.NoError(t, err)
		assert.Equal(t, "Türkiye", string(got))
		assert.Equal(t, EncodingUTF8, enc)
	})
}

func TestReadTable_CSV(t *testing.T) {
	data := "Mineral Commodity Summaries 2024\n" +
		"\n" +
		"Commodity,Country,Year,Value\n" +
		"Lithium,Australia,2022,\"61,000\"\n" +
		",,,\n" +
		"Lithium,Chile,2022,=\"39000\"\n"

	table, err := ReadTable(RawFile{Name: "mcs.csv", Data: []byte(data)})
	require.NoError(t, err)

	assert.Equal(t, []string{"commodity", "country", "year", "value"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Lithium", "Australia", "2022", "61,000"}, table.Rows[0])
	assert.Equal(t, "39000", table.Rows[1][3])
	assert.Equal(t, EncodingUTF8, table.Encoding)
}

func TestReadTable_ShortRowsAllowed(t *testing.T) {
	data := "commodity,country,year,value,unit\nCobalt,Congo,2021,130000\n"

	table, err := ReadTable(RawFile{Name: "short.csv", Data: []byte(data)})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Len(t, table.Rows[0], 4)
}

func TestReadTable_Empty(t *testing.T) {
	for _, data := range []string{"", "\n\n", ",,,\n"} {
		_, err := ReadTable(RawFile{Name: "empty.csv", Data: []byte(data)})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errNoData), "data %q", data)
	}
}

func TestReadTable_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Commodity", "Country", "Year", "Quantity", "Units"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Nickel", "Indonesia", "2022", "1600000", "t"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	table, err := ReadTable(RawFile{Name: "wms.xlsx", Data: buf.Bytes()})
	require.NoError(t, err)

	assert.Equal(t, EncodingXLSX, table.Encoding)
	assert.Equal(t, []string{"commodity", "country", "year", "quantity", "units"}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Indonesia", table.Rows[0][1])
}

func TestReadTable_WorkbookSniffedWithoutExtension(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &[]any{"a", "b"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	assert.True(t, isWorkbook(RawFile{Name: "download", Data: buf.Bytes()}))
	assert.False(t, isWorkbook(RawFile{Name: "download", Data: []byte("a,b\n")}))
}
