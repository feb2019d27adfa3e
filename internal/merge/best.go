package merge

import (
	"sort"

	"github.com/Alias1177/RangeScore/models"
)

// SelectBest picks the source with the smallest non-null distance. Ties go to
// the source that comes first in order. within is true when the best source's
// range contains the whole market range.
func SelectBest(row models.MergedRow, order []string) (best string, dist models.NullFloat, within models.NullBool) {
	for _, id := range order {
		d := row.PerSource[id].Distance
		if !d.Valid {
			continue
		}
		if !dist.Valid || d.Value < dist.Value {
			best, dist = id, d
		}
	}
	if best == "" {
		return "", models.NullFloat{}, models.NullBool{}
	}

	sr := row.PerSource[best]
	if sr.Support.Valid && sr.Resistance.Valid && row.MarketLow.Valid && row.MarketHigh.Valid {
		within = models.Bool(sr.Support.Value <= row.MarketLow.Value && sr.Resistance.Value >= row.MarketHigh.Value)
	}
	return best, dist, within
}

// BestSourceDays projects the merged rows onto the best-source-per-day table.
func (r *Result) BestSourceDays() []models.BestSourceDay {
	out := make([]models.BestSourceDay, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, models.BestSourceDay{
			Date:            row.Date,
			BestSource:      row.BestSource,
			BestDistance:    row.BestDistance,
			BestWithinRange: row.BestWithinRange,
		})
	}
	return out
}

// SummarizeBest counts how often each source was best. Days without a best
// source are grouped under models.NoSource. Rows are ordered by count, then
// within-range percentage (both descending), then source name.
func SummarizeBest(days []models.BestSourceDay) []models.BestSourceStat {
	type acc struct {
		count, within, distN int
		distSum              float64
	}
	groups := make(map[string]*acc)
	for _, d := range days {
		key := d.BestSource
		if key == "" {
			key = models.NoSource
		}
		a, ok := groups[key]
		if !ok {
			a = &acc{}
			groups[key] = a
		}
		a.count++
		if d.BestWithinRange.Valid && d.BestWithinRange.Value {
			a.within++
		}
		if d.BestDistance.Valid {
			a.distN++
			a.distSum += d.BestDistance.Value
		}
	}

	stats := make([]models.BestSourceStat, 0, len(groups))
	for src, a := range groups {
		st := models.BestSourceStat{
			Source:      src,
			Count:       a.count,
			WithinCount: a.within,
			WithinPct:   float64(a.within) / float64(a.count) * 100,
			PctOfDays:   float64(a.count) / float64(len(days)) * 100,
		}
		if a.distN > 0 {
			st.AvgDistance = models.Float(a.distSum / float64(a.distN))
		}
		stats = append(stats, st)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		if stats[i].WithinPct != stats[j].WithinPct {
			return stats[i].WithinPct > stats[j].WithinPct
		}
		return stats[i].Source < stats[j].Source
	})
	return stats
}
