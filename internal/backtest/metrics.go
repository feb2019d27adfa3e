package backtest

import (
	"sort"

	"github.com/Alias1177/RangeScore/models"
)

// Summarize aggregates scored rows per source. Summaries are ordered by hit
// rate (rounded to two decimals) descending, then by source name.
func Summarize(rows []models.BacktestRow) []models.SourceSummary {
	bySource := make(map[string][]models.BacktestRow)
	for _, r := range rows {
		bySource[r.Source] = append(bySource[r.Source], r)
	}

	summaries := make([]models.SourceSummary, 0, len(bySource))
	for src, srcRows := range bySource {
		summaries = append(summaries, summarizeSource(src, inDateOrder(srcRows)))
	}

	sort.Slice(summaries, func(i, j int) bool {
		hi, hj := models.Round2(summaries[i].HitRatePct), models.Round2(summaries[j].HitRatePct)
		if hi != hj {
			return hi > hj
		}
		return summaries[i].Source < summaries[j].Source
	})
	return summaries
}

func summarizeSource(src string, rows []models.BacktestRow) models.SourceSummary {
	s := models.SourceSummary{Source: src, NDays: len(rows)}
	if len(rows) == 0 {
		return s
	}

	var highMiss, lowMiss int
	var highErr, lowErr, absHigh, absLow, total []float64
	var highOver, lowOver []float64
	for _, r := range rows {
		if r.FullHit {
			s.HitCount++
		}
		if r.HighMiss {
			highMiss++
		}
		if r.LowMiss {
			lowMiss++
		}
		highErr = append(highErr, r.HighError)
		lowErr = append(lowErr, r.LowError)
		absHigh = append(absHigh, r.AbsHighError)
		absLow = append(absLow, r.AbsLowError)
		total = append(total, r.TotalError)
		// overshoot is averaged only over the days the source was wrong
		if r.HighOvershoot > 0 {
			highOver = append(highOver, r.HighOvershoot)
		}
		if r.LowOvershoot > 0 {
			lowOver = append(lowOver, r.LowOvershoot)
		}
	}

	n := float64(len(rows))
	s.HitRatePct = float64(s.HitCount) / n * 100
	s.HighMissPct = float64(highMiss) / n * 100
	s.LowMissPct = float64(lowMiss) / n * 100
	s.AvgHighError = calculateMean(highErr)
	s.AvgLowError = calculateMean(lowErr)
	s.AvgAbsHighError = calculateMean(absHigh)
	s.AvgAbsLowError = calculateMean(absLow)
	s.AvgTotalError = calculateMean(total)
	s.AvgHighOvershoot = calculateMean(highOver)
	s.AvgLowOvershoot = calculateMean(lowOver)
	// Negative bias: the source sets both bounds too high relative to reality
	s.DirectionalBias = s.AvgHighError - s.AvgLowError
	return s
}

// Overall pools every scored row regardless of source.
func Overall(rows []models.BacktestRow) models.OverallStats {
	o := models.OverallStats{Rows: len(rows)}
	if len(rows) == 0 {
		return o
	}

	rows = inDateOrder(rows)
	days := make(map[models.Date]struct{})
	var hits, highMiss, lowMiss int
	var highErr, lowErr, absHigh, absLow, total []float64
	for _, r := range rows {
		days[r.Date] = struct{}{}
		if r.FullHit {
			hits++
		}
		if r.HighMiss {
			highMiss++
		}
		if r.LowMiss {
			lowMiss++
		}
		highErr = append(highErr, r.HighError)
		lowErr = append(lowErr, r.LowError)
		absHigh = append(absHigh, r.AbsHighError)
		absLow = append(absLow, r.AbsLowError)
		total = append(total, r.TotalError)
	}

	n := float64(len(rows))
	o.TradingDays = len(days)
	o.HitRatePct = float64(hits) / n * 100
	o.HighMissPct = float64(highMiss) / n * 100
	o.LowMissPct = float64(lowMiss) / n * 100
	o.AvgHighError = calculateMean(highErr)
	o.AvgLowError = calculateMean(lowErr)
	o.AvgAbsHighError = calculateMean(absHigh)
	o.AvgAbsLowError = calculateMean(absLow)
	o.AvgTotalError = calculateMean(total)
	o.DirectionalBias = o.AvgHighError - o.AvgLowError
	return o
}

// inDateOrder returns a sorted copy so sums never depend on input order.
func inDateOrder(rows []models.BacktestRow) []models.BacktestRow {
	out := make([]models.BacktestRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// calculateMean returns 0 for an empty slice.
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
