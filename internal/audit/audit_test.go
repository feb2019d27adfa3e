package audit

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/RangeScore/internal/normalize"
	"github.com/Alias1177/RangeScore/internal/table"
	"github.com/Alias1177/RangeScore/models"
)

func TestTable(t *testing.T) {
	csv := "Date,Support\n" +
		"2025-01-03,1\n" + // Friday
		"2025-01-04,1\n" + // Saturday
		"2025-01-05,1\n" + // Sunday
		"2025-01-06,1\n" +
		"2025-01-06,1\n" +
		"not a date,1\n" +
		"2024-12-31,1\n"
	tbl, err := table.ReadCSV("mint.csv", strings.NewReader(csv))
	require.NoError(t, err)

	res, err := Table(tbl)
	require.NoError(t, err)
	assert.Equal(t, "mint.csv", res.File)
	assert.Equal(t, 7, res.Records)
	assert.Equal(t, 1, res.Saturdays)
	assert.Equal(t, 1, res.Sundays)
	assert.Equal(t, 1, res.Unparseable)
	assert.Equal(t, []models.Date{models.MustParseDate("2025-01-06")}, res.Duplicates)
	assert.Equal(t, models.MustParseDate("2024-12-31"), res.First)
	assert.Equal(t, models.MustParseDate("2025-01-06"), res.Last)
	assert.False(t, res.Clean())

	out := res.String()
	assert.Contains(t, out, "Saturdays: 1")
	assert.Contains(t, out, "Duplicate dates: 2025-01-06")
	assert.Contains(t, out, "Span: 2024-12-31 (Tuesday) .. 2025-01-06 (Monday)")
}

func TestTableClean(t *testing.T) {
	tbl, err := table.ReadCSV("t.csv", strings.NewReader("Trade_Date,High\n2025-01-06,1\n2025-01-07,1\n"))
	require.NoError(t, err)
	res, err := Table(tbl)
	require.NoError(t, err)
	assert.True(t, res.Clean())
	assert.Contains(t, res.String(), "Duplicate dates: none")
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodate.csv")
	require.NoError(t, os.WriteFile(path, []byte("High,Low\n1,2\n"), 0644))

	_, err := File(path)
	var schemaErr *normalize.SchemaError
	assert.True(t, errors.As(err, &schemaErr))

	_, err = File(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
