// Package table loads flat tabular files (CSV or Excel workbooks) into an
// in-memory header/row structure with case-insensitive column lookup.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a header row plus data rows. Every row has len(Headers) cells.
type Table struct {
	Name    string
	Headers []string
	Rows    []Row

	index map[string]int
}

// Row is a view over one data row.
type Row struct {
	t     *Table
	cells []string
}

// New builds a table from raw records. Headers are whitespace-trimmed and
// short rows are padded with empty cells.
func New(name string, headers []string, records [][]string) *Table {
	t := &Table{
		Name:    name,
		Headers: make([]string, len(headers)),
		index:   make(map[string]int, len(headers)),
	}
	for i, h := range headers {
		h = strings.TrimSpace(h)
		t.Headers[i] = h
		key := strings.ToLower(h)
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	t.Rows = make([]Row, 0, len(records))
	for _, rec := range records {
		cells := make([]string, len(t.Headers))
		copy(cells, rec)
		t.Rows = append(t.Rows, Row{t: t, cells: cells})
	}
	return t
}

// Column returns the header as written in the file for a case-insensitive
// name, or "" when absent.
func (t *Table) Column(name string) string {
	if i, ok := t.index[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t.Headers[i]
	}
	return ""
}

// Has reports whether a column exists, ignoring case.
func (t *Table) Has(name string) bool {
	_, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Get returns the cell for a case-insensitive column name.
func (r Row) Get(name string) (string, bool) {
	i, ok := r.t.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", false
	}
	return r.cells[i], true
}

// Cell returns the cell at position i.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

// Headers returns the table's headers, in file order.
func (r Row) Headers() []string {
	return r.t.Headers
}

// Load reads a .csv, .xlsx or .xlsm file.
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadSheet(path, "")
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open table: %w", err)
		}
		defer f.Close()
		return ReadCSV(filepath.Base(path), f)
	}
}

// ReadCSV parses CSV content. A leading UTF-8 BOM is ignored and rows may
// have a varying number of fields.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file", name)
		}
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: read records: %w", name, err)
	}
	return New(name, header, records), nil
}

// LoadSheet reads one sheet of a workbook. With an empty sheet name the first
// sheet that has a non-empty header row is used.
func LoadSheet(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheet != "" {
		sheets = []string{sheet}
	}

	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			if sheet != "" {
				return nil, fmt.Errorf("read sheet %q: %w", name, err)
			}
			continue
		}
		if len(rows) == 0 || isBlank(rows[0]) {
			continue
		}
		return New(filepath.Base(path), rows[0], rows[1:]), nil
	}
	return nil, fmt.Errorf("%s: no sheet with a header row", filepath.Base(path))
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
