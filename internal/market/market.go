// Package market loads the reference market history (date, high, low).
package market

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RangeScore/internal/normalize"
	"github.com/Alias1177/RangeScore/internal/table"
	"github.com/Alias1177/RangeScore/models"
)

// Series is the read-only ground truth, indexed by date.
type Series struct {
	Name    string
	Records []models.MarketRecord

	byDate map[models.Date]models.MarketRecord
}

// Lookup returns the market record for a date. When a date repeats the first
// occurrence is used.
func (s *Series) Lookup(d models.Date) (models.MarketRecord, bool) {
	r, ok := s.byDate[d]
	return r, ok
}

// Dates returns every parseable date, unordered.
func (s *Series) Dates() []models.Date {
	out := make([]models.Date, 0, len(s.byDate))
	for d := range s.byDate {
		out = append(out, d)
	}
	return out
}

// LoadFile reads and parses a ground-truth file.
func LoadFile(path string) (*Series, error) {
	t, err := table.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load ground truth: %w", err)
	}
	return Load(t)
}

// Load parses a ground-truth table. It fails with *normalize.SchemaError when
// no date-like column exists. Missing high/low columns leave the values absent.
func Load(t *table.Table) (*Series, error) {
	logger := log.With().Str("component", "market").Str("file", t.Name).Logger()

	dateCol, err := normalize.LocateDateColumn(t)
	if err != nil {
		return nil, err
	}
	highCol := locate(t, "high")
	lowCol := locate(t, "low")
	if highCol == "" || lowCol == "" {
		logger.Warn().Str("high", highCol).Str("low", lowCol).Msg("High/low column missing, market values will be empty")
	}

	s := &Series{
		Name:    t.Name,
		Records: make([]models.MarketRecord, 0, len(t.Rows)),
		byDate:  make(map[models.Date]models.MarketRecord, len(t.Rows)),
	}

	var badDates int
	for _, row := range t.Rows {
		raw, _ := row.Get(dateCol)
		d, ok := models.ParseDate(raw)

		rec := models.MarketRecord{Date: d, High: cell(row, highCol), Low: cell(row, lowCol)}
		s.Records = append(s.Records, rec)

		if !ok {
			badDates++
			continue
		}
		if _, dup := s.byDate[d]; !dup {
			s.byDate[d] = rec
		}
	}

	logger.Info().
		Str("date_col", dateCol).
		Str("high_col", highCol).
		Str("low_col", lowCol).
		Int("rows", len(s.Records)).
		Int("bad_dates", badDates).
		Msg("Loaded ground truth")
	return s, nil
}

// locate finds an exact (case-insensitive) match first, then the first
// column containing the name.
func locate(t *table.Table, name string) string {
	if col := t.Column(name); col != "" {
		return col
	}
	for _, h := range t.Headers {
		if strings.Contains(strings.ToLower(h), name) {
			return h
		}
	}
	return ""
}

func cell(row table.Row, col string) models.NullFloat {
	if col == "" {
		return models.NullFloat{}
	}
	raw, _ := row.Get(col)
	if v, ok := normalize.ParseNumber(raw); ok {
		return models.Float(v)
	}
	return models.NullFloat{}
}
