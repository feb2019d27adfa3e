package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer places a period's tables under Dir as <period>_<table>.csv.
type Writer struct {
	Dir    string
	Period string
	// BOM prefixes every CSV with a UTF-8 byte order mark for spreadsheet tools.
	BOM    bool
	logger zerolog.Logger
}

func NewWriter(dir, period string, bom bool) *Writer {
	return &Writer{
		Dir:    dir,
		Period: period,
		BOM:    bom,
		logger: log.With().Str("component", "export").Str("period", period).Logger(),
	}
}

// Path returns the output path for a table with the given extension.
func (w *Writer) Path(table, ext string) string {
	return filepath.Join(w.Dir, fmt.Sprintf("%s_%s.%s", w.Period, table, ext))
}

// WriteCSV writes one sheet and returns the file path.
func (w *Writer) WriteCSV(s Sheet) (string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := w.Path(s.Name, "csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file %s: %w", path, err)
	}
	if err := writeCSV(file, s.Rows, w.BOM); err != nil {
		return "", fmt.Errorf("write csv %s: %w", path, err)
	}

	w.logger.Debug().Str("file", path).Int("rows", len(s.Rows)-1).Msg("Wrote table")
	return path, nil
}

// writeCSV writes rows to f and closes it, returning the first error.
func writeCSV(f io.WriteCloser, rows [][]string, bom bool) error {
	err := writeRows(f, rows, bom)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close: %w", cerr)
	}
	return err
}

func writeRows(f io.Writer, rows [][]string, bom bool) error {
	if bom {
		if _, err := f.Write(utf8BOM); err != nil {
			return fmt.Errorf("write bom: %w", err)
		}
	}
	return csv.NewWriter(f).WriteAll(rows)
}

// WriteAll writes every sheet, stopping at the first failure.
func (w *Writer) WriteAll(sheets []Sheet) ([]string, error) {
	paths := make([]string, 0, len(sheets))
	for _, s := range sheets {
		p, err := w.WriteCSV(s)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	w.logger.Info().Int("tables", len(paths)).Str("dir", w.Dir).Msg("Tables written")
	return paths, nil
}

// WriteText stores free text such as the rendered report.
func (w *Writer) WriteText(name, content string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := w.Path(name, "txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write file %s: %w", path, err)
	}
	return path, nil
}

// WriteWorkbook puts every sheet into a single <period>_tables.xlsx.
func (w *Writer) WriteWorkbook(sheets []Sheet) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("no sheets to write")
	}
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				return "", fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return "", fmt.Errorf("add sheet %s: %w", s.Name, err)
		}

		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return "", err
			}
			values := make([]interface{}, len(row))
			for c, v := range row {
				values[c] = v
			}
			if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
				return "", fmt.Errorf("write sheet %s row %d: %w", s.Name, r+1, err)
			}
		}
	}

	path := w.Path("tables", "xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook %s: %w", path, err)
	}
	w.logger.Info().Str("file", path).Int("sheets", len(sheets)).Msg("Workbook written")
	return path, nil
}
