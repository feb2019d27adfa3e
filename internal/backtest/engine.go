package backtest

import (
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RangeScore/models"
)

// Results holds everything one backtest run produces
type Results struct {
	Rows      []models.BacktestRow
	Summaries []models.SourceSummary
	Overall   models.OverallStats
	// Skipped counts predictions dropped for lack of ground truth.
	Skipped int
}

// Engine scores predictions against the market
type Engine struct {
	logger zerolog.Logger
}

// NewEngine creates a new backtesting engine
func NewEngine() *Engine {
	return &Engine{
		logger: log.With().Str("component", "backtest").Logger(),
	}
}

// Run scores every prediction that has market high and low, then aggregates
// per source and overall.
func (e *Engine) Run(preds []models.Prediction) *Results {
	results := &Results{Rows: make([]models.BacktestRow, 0, len(preds))}

	for _, p := range preds {
		row, ok := Score(p)
		if !ok {
			results.Skipped++
			continue
		}
		results.Rows = append(results.Rows, row)
	}

	results.Summaries = Summarize(results.Rows)
	results.Overall = Overall(results.Rows)

	e.logger.Info().
		Int("scored", len(results.Rows)).
		Int("skipped", results.Skipped).
		Int("sources", len(results.Summaries)).
		Float64("hit_rate_pct", results.Overall.HitRatePct).
		Msg("Backtest complete")
	return results
}

// Score classifies one prediction. ok is false when the market high or low
// is missing; such days are not scored at all.
func Score(p models.Prediction) (row models.BacktestRow, ok bool) {
	if !p.MarketHigh.Valid || !p.MarketLow.Valid {
		return models.BacktestRow{}, false
	}

	row = models.BacktestRow{
		Date:       p.Date,
		Source:     p.Source,
		PredLow:    p.Support,
		PredHigh:   p.Resistance,
		MarketLow:  p.MarketLow.Value,
		MarketHigh: p.MarketHigh.Value,
	}

	// Range coverage, inclusive on both ends
	row.FullHit = row.MarketLow >= row.PredLow && row.MarketHigh <= row.PredHigh
	row.HighMiss = row.MarketHigh > row.PredHigh
	row.LowMiss = row.MarketLow < row.PredLow
	row.BothMiss = row.HighMiss && row.LowMiss

	// Positive on both sides means the market moved further than predicted
	row.HighError = row.MarketHigh - row.PredHigh
	row.LowError = row.PredLow - row.MarketLow
	row.AbsHighError = math.Abs(row.HighError)
	row.AbsLowError = math.Abs(row.LowError)
	row.TotalError = row.AbsHighError + row.AbsLowError

	row.HighOvershoot = math.Max(0, row.HighError)
	row.LowOvershoot = math.Max(0, row.LowError)
	return row, true
}
