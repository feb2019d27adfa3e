// Package merge reconciles the ground truth with every source's predictions
// on the union of their dates and picks the closest source per day.
package merge

import (
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RangeScore/models"
)

// GroundTruth is the market side of the merge.
type GroundTruth interface {
	Lookup(d models.Date) (models.MarketRecord, bool)
	Dates() []models.Date
}

// Source is one normalized prediction series.
type Source interface {
	ID() string
	Lookup(d models.Date) (models.RangeRecord, bool)
	Dates() []models.Date
}

// Result is the merged per-date table.
type Result struct {
	// Sources is the processing order; it breaks distance ties.
	Sources []string
	Rows    []models.MergedRow
}

// Merge builds one row per date in the union of the ground-truth dates and
// every source's dates, sorted ascending.
func Merge(truth GroundTruth, sources []Source) *Result {
	order := make([]string, len(sources))
	dateSet := make(map[models.Date]struct{})
	for _, d := range truth.Dates() {
		dateSet[d] = struct{}{}
	}
	for i, src := range sources {
		order[i] = src.ID()
		for _, d := range src.Dates() {
			dateSet[d] = struct{}{}
		}
	}

	dates := make([]models.Date, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	res := &Result{Sources: order, Rows: make([]models.MergedRow, 0, len(dates))}
	var withBest int
	for _, d := range dates {
		row := models.MergedRow{Date: d, PerSource: make(map[string]models.SourceRange, len(sources))}
		if mkt, ok := truth.Lookup(d); ok {
			row.MarketHigh = mkt.High
			row.MarketLow = mkt.Low
		}
		for _, src := range sources {
			var sr models.SourceRange
			if rec, ok := src.Lookup(d); ok {
				sr.Support = rec.Support
				sr.Resistance = rec.Resistance
				sr.Distance = Distance(rec.Support, rec.Resistance, row.MarketHigh, row.MarketLow)
			}
			row.PerSource[src.ID()] = sr
		}
		row.BestSource, row.BestDistance, row.BestWithinRange = SelectBest(row, order)
		if row.BestSource != "" {
			withBest++
		}
		res.Rows = append(res.Rows, row)
	}

	log.Info().
		Str("component", "merge").
		Int("dates", len(res.Rows)).
		Int("sources", len(order)).
		Int("days_with_best", withBest).
		Msg("Merged sources against ground truth")
	return res
}

// Distance is |support - low| + |resistance - high|, absent unless all four
// values are present.
func Distance(support, resistance, high, low models.NullFloat) models.NullFloat {
	if !support.Valid || !resistance.Valid || !high.Valid || !low.Valid {
		return models.NullFloat{}
	}
	return models.Float(math.Abs(support.Value-low.Value) + math.Abs(resistance.Value-high.Value))
}

// Predictions flattens the merged table into one row per (date, source) with
// a resolved range, dates ascending and sources in processing order.
func (r *Result) Predictions() []models.Prediction {
	var out []models.Prediction
	for _, row := range r.Rows {
		for _, id := range r.Sources {
			sr := row.PerSource[id]
			if !sr.Support.Valid || !sr.Resistance.Valid {
				continue
			}
			out = append(out, models.Prediction{
				Date:       row.Date,
				Source:     id,
				Support:    sr.Support.Value,
				Resistance: sr.Resistance.Value,
				MarketHigh: row.MarketHigh,
				MarketLow:  row.MarketLow,
			})
		}
	}
	return out
}
