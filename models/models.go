package models

import "math"

// NoSource labels days on which no source had a usable distance.
const NoSource = "NONE"

// NullFloat is a float64 that may be absent.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float wraps v as a present value.
func Float(v float64) NullFloat {
	return NullFloat{Value: v, Valid: true}
}

// NullBool is a bool that may be absent.
type NullBool struct {
	Value bool
	Valid bool
}

func Bool(v bool) NullBool {
	return NullBool{Value: v, Valid: true}
}

// RangeRecord is one source's predicted range for one date
type RangeRecord struct {
	Date       Date
	SourceID   string
	Support    NullFloat
	Resistance NullFloat
}

// HasRange reports whether both bounds were resolved.
func (r RangeRecord) HasRange() bool {
	return r.Support.Valid && r.Resistance.Valid
}

// MarketRecord is the realised high/low for one trading date.
// Date is zero when the date cell could not be parsed.
type MarketRecord struct {
	Date Date
	High NullFloat
	Low  NullFloat
}

// SourceRange is one source's slot in a MergedRow.
type SourceRange struct {
	Support    NullFloat
	Resistance NullFloat
	Distance   NullFloat
}

// MergedRow is the reconciled view of one date across all sources.
type MergedRow struct {
	Date       Date
	MarketHigh NullFloat
	MarketLow  NullFloat
	// PerSource is keyed by source id; every source of the run has an entry.
	PerSource map[string]SourceRange

	BestSource      string // "" when no source qualified
	BestDistance    NullFloat
	BestWithinRange NullBool
}

// BestSourceDay is one row of the best-source-per-day table.
type BestSourceDay struct {
	Date            Date
	BestSource      string
	BestDistance    NullFloat
	BestWithinRange NullBool
}

// BestSourceStat aggregates the days a source was picked as best.
type BestSourceStat struct {
	Source      string
	Count       int
	WithinCount int
	WithinPct   float64
	AvgDistance NullFloat
	PctOfDays   float64
}

// Prediction is the long-form join of one source's range with the market on one date.
type Prediction struct {
	Date       Date
	Source     string
	Support    float64
	Resistance float64
	MarketHigh NullFloat
	MarketLow  NullFloat
}

func (p Prediction) RangeWidth() float64 {
	return p.Resistance - p.Support
}

func (p Prediction) RangeMid() float64 {
	return (p.Support + p.Resistance) / 2
}

// BacktestRow is one source's scored day.
type BacktestRow struct {
	Date       Date
	Source     string
	PredLow    float64
	PredHigh   float64
	MarketLow  float64
	MarketHigh float64

	FullHit  bool
	HighMiss bool
	LowMiss  bool
	BothMiss bool

	HighError     float64 // market high minus predicted high
	LowError      float64 // predicted low minus market low
	AbsHighError  float64
	AbsLowError   float64
	TotalError    float64
	HighOvershoot float64
	LowOvershoot  float64
}

// SourceSummary aggregates all scored days of one source.
type SourceSummary struct {
	Source           string
	NDays            int
	HitCount         int
	HitRatePct       float64
	HighMissPct      float64
	LowMissPct       float64
	AvgHighError     float64
	AvgLowError      float64
	AvgAbsHighError  float64
	AvgAbsLowError   float64
	AvgTotalError    float64
	AvgHighOvershoot float64
	AvgLowOvershoot  float64
	DirectionalBias  float64
}

// OverallStats are computed over every scored row of a run, all sources pooled.
type OverallStats struct {
	Rows            int
	TradingDays     int
	HitRatePct      float64
	HighMissPct     float64
	LowMissPct      float64
	AvgHighError    float64
	AvgLowError     float64
	AvgAbsHighError float64
	AvgAbsLowError  float64
	AvgTotalError   float64
	DirectionalBias float64
}

// RangeFlag classifies a single source row against the market.
type RangeFlag string

const (
	FlagWithin        RangeFlag = "WITHIN_RANGE"
	FlagBreachedBelow RangeFlag = "BREACHED_BELOW"
	FlagBreachedAbove RangeFlag = "BREACHED_ABOVE"
	FlagBothBreach    RangeFlag = "BOTH_BREACH"
	FlagNoData        RangeFlag = "NO_DATA"
)

// RangeFlags lists every flag in report order.
var RangeFlags = []RangeFlag{FlagWithin, FlagBreachedBelow, FlagBreachedAbove, FlagBothBreach, FlagNoData}

// FlagCount is the per-source tally of range flags.
type FlagCount struct {
	Source string
	Rows   int
	Counts map[RangeFlag]int
}

// Round2 rounds to two decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
