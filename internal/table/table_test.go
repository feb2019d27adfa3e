package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	content := "\xEF\xBB\xBF Date , Support_Level,Resistance_Level\n" +
		"2025-01-02,\"26,000\",27000\n" +
		"2025-01-03,25900\n"

	tbl, err := ReadCSV("src.csv", strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Support_Level", "Resistance_Level"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)

	v, ok := tbl.Rows[0].Get("support_level")
	require.True(t, ok)
	assert.Equal(t, "26,000", v)

	// short rows are padded
	v, ok = tbl.Rows[1].Get("RESISTANCE_LEVEL")
	require.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = tbl.Rows[0].Get("nifty_range")
	assert.False(t, ok)
	assert.Equal(t, "Date", tbl.Column("date"))
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV("empty.csv", strings.NewReader(""))
	assert.Error(t, err)
}

func TestDuplicateHeadersFirstWins(t *testing.T) {
	tbl := New("dup", []string{"High", "high"}, [][]string{{"1", "2"}})
	v, _ := tbl.Rows[0].Get("HIGH")
	assert.Equal(t, "1", v)
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,High,Low\n2025-01-02,100,90\n"), 0o644))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "market.csv", tbl.Name)
	assert.Len(t, tbl.Rows, 1)
}

func TestLoadWorkbook(t *testing.T) {
	f := excelize.NewFile()
	first := f.GetSheetName(0)
	// first sheet is left empty so the loader has to skip it
	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Data", "A1", &[]interface{}{"Date", "Nifty_Range_Today"}))
	require.NoError(t, f.SetSheetRow("Data", "A2", &[]interface{}{"2025-01-02", "25,800 - 27,200"}))

	path := filepath.Join(t.TempDir(), "cnbc.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	v, _ := tbl.Rows[0].Get("nifty_range_today")
	assert.Equal(t, "25,800 - 27,200", v)

	_, err = LoadSheet(path, first)
	assert.Error(t, err, "empty named sheet has no header row")
}
