package backtest

import "github.com/Alias1177/RangeScore/models"

// Classify flags a single predicted range against the day's market range.
func Classify(support, resistance, high, low models.NullFloat) models.RangeFlag {
	if !support.Valid || !resistance.Valid || !high.Valid || !low.Valid {
		return models.FlagNoData
	}
	below := low.Value < support.Value
	above := high.Value > resistance.Value
	switch {
	case below && above:
		return models.FlagBothBreach
	case below:
		return models.FlagBreachedBelow
	case above:
		return models.FlagBreachedAbove
	default:
		return models.FlagWithin
	}
}

// MarketLookup resolves the market record for a date.
type MarketLookup interface {
	Lookup(d models.Date) (models.MarketRecord, bool)
}

// CountFlags classifies every row of one source file, including rows whose
// date or range could not be resolved (those count as NO_DATA).
func CountFlags(source string, records []models.RangeRecord, truth MarketLookup) models.FlagCount {
	fc := models.FlagCount{Source: source, Rows: len(records), Counts: make(map[models.RangeFlag]int, len(models.RangeFlags))}
	for _, rec := range records {
		var mkt models.MarketRecord
		if !rec.Date.IsZero() {
			mkt, _ = truth.Lookup(rec.Date)
		}
		fc.Counts[Classify(rec.Support, rec.Resistance, mkt.High, mkt.Low)]++
	}
	return fc
}
