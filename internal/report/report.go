// Package report turns backtest and best-source statistics into ranked
// extracts and human-readable text.
package report

import (
	"time"

	"github.com/Alias1177/RangeScore/internal/backtest"
	"github.com/Alias1177/RangeScore/models"
)

// Report is everything one period's text output is rendered from.
type Report struct {
	Period      string
	RunID       string
	GeneratedAt time.Time

	Summaries  []models.SourceSummary // ranked by hit rate
	Overall    models.OverallStats
	BestStats  []models.BestSourceStat // ranked by count
	Flags      []models.FlagCount
	BestDays   int
	WithinDays int
}

// New assembles a report from a backtest result and the best-source data.
func New(period, runID string, now time.Time, bt *backtest.Results, best []models.BestSourceDay, bestStats []models.BestSourceStat, flags []models.FlagCount) *Report {
	r := &Report{
		Period:      period,
		RunID:       runID,
		GeneratedAt: now,
		Summaries:   bt.Summaries,
		Overall:     bt.Overall,
		BestStats:   bestStats,
		Flags:       flags,
		BestDays:    len(best),
	}
	for _, d := range best {
		if d.BestWithinRange.Valid && d.BestWithinRange.Value {
			r.WithinDays++
		}
	}
	return r
}

// Top returns the first n summaries, best first.
func Top(sums []models.SourceSummary, n int) []models.SourceSummary {
	if n > len(sums) {
		n = len(sums)
	}
	if n < 0 {
		n = 0
	}
	return sums[:n]
}

// Bottom returns the last n summaries, worst first.
func Bottom(sums []models.SourceSummary, n int) []models.SourceSummary {
	if n > len(sums) {
		n = len(sums)
	}
	if n < 0 {
		n = 0
	}
	out := make([]models.SourceSummary, 0, n)
	for i := len(sums) - 1; i >= len(sums)-n; i-- {
		out = append(out, sums[i])
	}
	return out
}

// Extremes picks the first summary that minimises and maximises a metric.
func Extremes(sums []models.SourceSummary, metric func(models.SourceSummary) float64) (lowest, highest models.SourceSummary, ok bool) {
	if len(sums) == 0 {
		return models.SourceSummary{}, models.SourceSummary{}, false
	}
	lowest, highest = sums[0], sums[0]
	for _, s := range sums[1:] {
		if metric(s) < metric(lowest) {
			lowest = s
		}
		if metric(s) > metric(highest) {
			highest = s
		}
	}
	return lowest, highest, true
}

// BiasVerdict describes the sign of every source's directional bias.
func BiasVerdict(sums []models.SourceSummary) string {
	if len(sums) == 0 {
		return "No sources scored"
	}
	var neg, pos int
	for _, s := range sums {
		switch {
		case s.DirectionalBias < 0:
			neg++
		case s.DirectionalBias > 0:
			pos++
		}
	}
	switch {
	case neg == len(sums):
		return "All sources show negative bias (biased LOW)"
	case pos == len(sums):
		return "All sources show positive bias (biased HIGH)"
	default:
		return "Mixed bias across sources"
	}
}

func totalError(s models.SourceSummary) float64 { return s.AvgTotalError }

func bias(s models.SourceSummary) float64 { return s.DirectionalBias }
