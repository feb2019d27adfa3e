// Package normalize turns one source file's heterogeneous columns into a
// canonical (date, support, resistance) series.
package normalize

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RangeScore/internal/table"
	"github.com/Alias1177/RangeScore/models"
)

// SchemaError means a date-keyed file has no usable date column.
type SchemaError struct {
	File   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error in %s: %s", e.File, e.Reason)
}

// LocateDateColumn returns the header of the date column: "date" or
// "trade_date" (any case) first, else the first column containing "date".
func LocateDateColumn(t *table.Table) (string, error) {
	for _, candidate := range []string{"date", "trade_date"} {
		if col := t.Column(candidate); col != "" {
			return col, nil
		}
	}
	for _, h := range t.Headers {
		if strings.Contains(strings.ToLower(h), "date") {
			return h, nil
		}
	}
	return "", &SchemaError{File: t.Name, Reason: "no date-like column"}
}

// Series is the normalized output for one source.
type Series struct {
	SourceID string
	// Records holds one entry per file row, in file order, including rows
	// whose date or range could not be resolved.
	Records []models.RangeRecord

	byDate map[models.Date]models.RangeRecord
}

func (s *Series) ID() string {
	return s.SourceID
}

// Lookup returns the resolved range for a date. Later rows for the same date
// replace earlier ones; rows without a full range never do.
func (s *Series) Lookup(d models.Date) (models.RangeRecord, bool) {
	r, ok := s.byDate[d]
	return r, ok
}

// Dates returns every date with a resolved range, unordered.
func (s *Series) Dates() []models.Date {
	out := make([]models.Date, 0, len(s.byDate))
	for d := range s.byDate {
		out = append(out, d)
	}
	return out
}

// Len is the number of dates with a resolved range.
func (s *Series) Len() int {
	return len(s.byDate)
}

// Normalizer applies a strategy chain to every row of a source table.
type Normalizer struct {
	chain  []Strategy
	logger zerolog.Logger
}

// New creates a Normalizer. Without strategies DefaultChain is used.
func New(chain ...Strategy) *Normalizer {
	if len(chain) == 0 {
		chain = DefaultChain
	}
	return &Normalizer{
		chain:  chain,
		logger: log.With().Str("component", "normalizer").Logger(),
	}
}

// Resolve runs the chain on one row. The first strategy that applies and
// yields two numbers wins; otherwise both values are absent.
func (n *Normalizer) Resolve(row table.Row) (support, resistance models.NullFloat) {
	for _, st := range n.chain {
		if !st.Applies(row) {
			continue
		}
		if s, r, ok := st.Extract(row); ok {
			return models.Float(s), models.Float(r)
		}
	}
	return models.NullFloat{}, models.NullFloat{}
}

// Series normalizes a whole source table. It fails only with a *SchemaError
// when the table has no date column.
func (n *Normalizer) Series(sourceID string, t *table.Table) (*Series, error) {
	dateCol, err := LocateDateColumn(t)
	if err != nil {
		return nil, err
	}

	s := &Series{
		SourceID: sourceID,
		Records:  make([]models.RangeRecord, 0, len(t.Rows)),
		byDate:   make(map[models.Date]models.RangeRecord, len(t.Rows)),
	}

	var badDates, noRange int
	for i, row := range t.Rows {
		raw, _ := row.Get(dateCol)
		d, ok := models.ParseDate(raw)
		if !ok {
			badDates++
			n.logger.Debug().Str("source", sourceID).Int("row", i+1).Str("value", raw).Msg("unparseable date")
		}

		support, resistance := n.Resolve(row)
		rec := models.RangeRecord{Date: d, SourceID: sourceID, Support: support, Resistance: resistance}
		s.Records = append(s.Records, rec)

		if !rec.HasRange() {
			noRange++
			n.logger.Debug().Str("source", sourceID).Int("row", i+1).Msg("no support/resistance resolved")
			continue
		}
		if ok {
			s.byDate[d] = rec
		}
	}

	n.logger.Debug().
		Str("source", sourceID).
		Int("rows", len(t.Rows)).
		Int("dates", len(s.byDate)).
		Int("bad_dates", badDates).
		Int("no_range", noRange).
		Msg("Normalized source")
	return s, nil
}
