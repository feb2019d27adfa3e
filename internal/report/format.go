package report

import (
	"fmt"
	"strings"

	"github.com/Alias1177/RangeScore/models"
)

const ruleWidth = 80

// Text renders the full plain-text report.
func Text(r *Report, topN int) string {
	if r == nil {
		return "No backtest results available\n"
	}

	heavy := strings.Repeat("=", ruleWidth)
	light := strings.Repeat("-", ruleWidth)
	var b strings.Builder

	fmt.Fprintf(&b, "%s\nPREDICTION RANGE BACKTEST REPORT (%s)\n", heavy, strings.ToUpper(r.Period))
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	if r.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	}
	fmt.Fprintf(&b, "%s\n\n", heavy)

	o := r.Overall
	fmt.Fprintf(&b, "EXECUTIVE SUMMARY\n%s\n", light)
	fmt.Fprintf(&b, "Total Sources Tested: %d\n", len(r.Summaries))
	fmt.Fprintf(&b, "Total Trading Days: %d\n", o.TradingDays)
	fmt.Fprintf(&b, "Scored Predictions: %d\n", o.Rows)
	fmt.Fprintf(&b, "Average Hit Rate (All Sources): %.2f%%\n", o.HitRatePct)
	if len(r.Summaries) > 0 {
		best, worst := r.Summaries[0], r.Summaries[len(r.Summaries)-1]
		fmt.Fprintf(&b, "Most Accurate Source: %s (%.2f%% hit rate)\n", best.Source, best.HitRatePct)
		fmt.Fprintf(&b, "Least Accurate Source: %s (%.2f%% hit rate)\n", worst.Source, worst.HitRatePct)
	}

	fmt.Fprintf(&b, "\nKEY METRICS\n%s\n", light)
	fmt.Fprintf(&b, "Hit rate: days with market high <= predicted high and market low >= predicted low\n")
	fmt.Fprintf(&b, "  Current: %.2f%%\n", o.HitRatePct)
	fmt.Fprintf(&b, "Miss rates: market broke through the predicted bound on that side\n")
	fmt.Fprintf(&b, "  High miss: %.2f%%  Low miss: %.2f%%\n", o.HighMissPct, o.LowMissPct)
	fmt.Fprintf(&b, "Errors (points):\n")
	fmt.Fprintf(&b, "  Avg high error: %.2f (negative = high overestimated)\n", o.AvgHighError)
	fmt.Fprintf(&b, "  Avg low error: %.2f (positive = market fell below the low)\n", o.AvgLowError)
	fmt.Fprintf(&b, "  Avg abs high error: %.2f  Avg abs low error: %.2f\n", o.AvgAbsHighError, o.AvgAbsLowError)
	fmt.Fprintf(&b, "  Avg total error: %.2f\n", o.AvgTotalError)
	fmt.Fprintf(&b, "Directional bias = avg high error - avg low error\n")
	fmt.Fprintf(&b, "  Negative = biased LOW, positive = biased HIGH\n")
	fmt.Fprintf(&b, "  Current: %.2f pts\n", o.DirectionalBias)

	fmt.Fprintf(&b, "\nTOP %d PERFORMERS (by Hit Rate)\n%s\n", topN, light)
	for i, s := range Top(r.Summaries, topN) {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, s.Source)
		fmt.Fprintf(&b, "   Hit Rate: %.2f%% (%d/%d days)\n", s.HitRatePct, s.HitCount, s.NDays)
		fmt.Fprintf(&b, "   Avg Total Error: %.2f pts\n", s.AvgTotalError)
		fmt.Fprintf(&b, "   Avg High Overshoot: %.2f pts (when wrong on high)\n", s.AvgHighOvershoot)
		fmt.Fprintf(&b, "   Avg Low Overshoot: %.2f pts (when wrong on low)\n", s.AvgLowOvershoot)
		fmt.Fprintf(&b, "   Directional Bias: %.2f pts\n", s.DirectionalBias)
	}

	fmt.Fprintf(&b, "\nBOTTOM %d PERFORMERS (by Hit Rate)\n%s\n", topN, light)
	for i, s := range Bottom(r.Summaries, topN) {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, s.Source)
		fmt.Fprintf(&b, "   Hit Rate: %.2f%% (%d/%d days)\n", s.HitRatePct, s.HitCount, s.NDays)
		fmt.Fprintf(&b, "   Avg Total Error: %.2f pts\n", s.AvgTotalError)
	}

	fmt.Fprintf(&b, "\nDETAILED ANALYSIS\n%s\n", light)
	if lo, hi, ok := Extremes(r.Summaries, totalError); ok {
		fmt.Fprintf(&b, "Best Source (Abs Error):  %s: %.2f pts\n", lo.Source, lo.AvgTotalError)
		fmt.Fprintf(&b, "Worst Source (Abs Error): %s: %.2f pts\n", hi.Source, hi.AvgTotalError)
	}
	if lo, hi, ok := Extremes(r.Summaries, bias); ok {
		fmt.Fprintf(&b, "Most Pessimistic (Lowest Bias):  %s: %.2f pts\n", lo.Source, lo.DirectionalBias)
		fmt.Fprintf(&b, "Most Optimistic (Highest Bias):  %s: %.2f pts\n", hi.Source, hi.DirectionalBias)
	}
	fmt.Fprintf(&b, "Interpretation: %s\n", BiasVerdict(r.Summaries))

	if len(r.BestStats) > 0 {
		fmt.Fprintf(&b, "\nCLOSEST SOURCE PER DAY\n%s\n", light)
		fmt.Fprintf(&b, "Days: %d, best source within range: %d (%.2f%%)\n",
			r.BestDays, r.WithinDays, pct(r.WithinDays, r.BestDays))
		for _, st := range r.BestStats {
			avg := "n/a"
			if st.AvgDistance.Valid {
				avg = fmt.Sprintf("%.2f", st.AvgDistance.Value)
			}
			fmt.Fprintf(&b, "  %-32s count=%d (%.2f%% of days) within=%.2f%% avg_distance=%s\n",
				st.Source, st.Count, st.PctOfDays, st.WithinPct, avg)
		}
	}

	if len(r.Flags) > 0 {
		fmt.Fprintf(&b, "\nRANGE FLAGS PER SOURCE\n%s\n", light)
		for _, fc := range r.Flags {
			fmt.Fprintf(&b, "  %s (%d rows):", fc.Source, fc.Rows)
			for _, f := range models.RangeFlags {
				fmt.Fprintf(&b, " %s=%d", f, fc.Counts[f])
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n%s\n", heavy)
	return b.String()
}

// Digest is a short leaderboard suitable for a chat message.
func Digest(r *Report, topN int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Range backtest %s\n", r.Period)
	fmt.Fprintf(&b, "Sources: %d, days: %d, avg hit rate: %.2f%%\n\n", len(r.Summaries), r.Overall.TradingDays, r.Overall.HitRatePct)
	for i, s := range Top(r.Summaries, topN) {
		fmt.Fprintf(&b, "%d. %s: %.2f%% (%d/%d), bias %.2f\n", i+1, s.Source, s.HitRatePct, s.HitCount, s.NDays, s.DirectionalBias)
	}
	if len(r.BestStats) > 0 {
		st := r.BestStats[0]
		fmt.Fprintf(&b, "\nClosest most often: %s (%d days, %.2f%% within)\n", st.Source, st.Count, st.WithinPct)
	}
	return b.String()
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
