// Package export renders every output table of a run as string rows and
// writes them as CSV files or as one XLSX workbook.
package export

import (
	"strconv"

	"github.com/Alias1177/RangeScore/internal/merge"
	"github.com/Alias1177/RangeScore/models"
)

// Sheet is one output table: a name and its rows, header first.
type Sheet struct {
	Name string
	Rows [][]string
}

// Table names, also used as file suffixes and sheet names.
const (
	TableMerged      = "merged_range_comparison"
	TableBestPerDay  = "best_source_per_day"
	TableBestSummary = "best_source_summary"
	TablePredictions = "prepared_predictions"
	TableDetail      = "backtest_detail"
	TableSummary     = "backtest_summary"
	TableFlags       = "range_flags"
)

// Merged is one row per date with every source's range and distance.
func Merged(res *merge.Result) Sheet {
	header := []string{"Date", "Market_High", "Market_Low"}
	for _, id := range res.Sources {
		header = append(header, id+"_Support", id+"_Resistance", id+"_Distance")
	}
	header = append(header, "Best_Source", "Best_Distance", "Best_WithinRange")

	rows := [][]string{header}
	for _, r := range res.Rows {
		row := []string{r.Date.String(), nullFloat(r.MarketHigh), nullFloat(r.MarketLow)}
		for _, id := range res.Sources {
			sr := r.PerSource[id]
			row = append(row, nullFloat(sr.Support), nullFloat(sr.Resistance), nullFloat(sr.Distance))
		}
		row = append(row, r.BestSource, nullFloat(r.BestDistance), nullBool(r.BestWithinRange))
		rows = append(rows, row)
	}
	return Sheet{Name: TableMerged, Rows: rows}
}

func BestPerDay(days []models.BestSourceDay) Sheet {
	rows := [][]string{{"Date", "Best_Source", "Best_Distance", "Best_WithinRange"}}
	for _, d := range days {
		rows = append(rows, []string{d.Date.String(), d.BestSource, nullFloat(d.BestDistance), nullBool(d.BestWithinRange)})
	}
	return Sheet{Name: TableBestPerDay, Rows: rows}
}

func BestSummary(stats []models.BestSourceStat) Sheet {
	rows := [][]string{{"Best_Source", "Count", "WithinCount", "AvgDistance", "Pct", "WithinPct"}}
	for _, s := range stats {
		rows = append(rows, []string{
			s.Source,
			strconv.Itoa(s.Count),
			strconv.Itoa(s.WithinCount),
			nullFloat(s.AvgDistance),
			num(s.PctOfDays),
			num(s.WithinPct),
		})
	}
	return Sheet{Name: TableBestSummary, Rows: rows}
}

// Predictions is the long-form backtest input.
func Predictions(preds []models.Prediction) Sheet {
	rows := [][]string{{"Date", "Source", "Support", "Resistance", "RangeWidth", "RangeMid", "Market_High", "Market_Low"}}
	for _, p := range preds {
		rows = append(rows, []string{
			p.Date.String(),
			p.Source,
			num(p.Support),
			num(p.Resistance),
			num(p.RangeWidth()),
			num(p.RangeMid()),
			nullFloat(p.MarketHigh),
			nullFloat(p.MarketLow),
		})
	}
	return Sheet{Name: TablePredictions, Rows: rows}
}

func Detail(rows []models.BacktestRow) Sheet {
	out := [][]string{{
		"Date", "Source", "Pred_Low", "Pred_High", "Market_Low", "Market_High",
		"Full_Hit", "High_Miss", "Low_Miss", "Both_Miss",
		"High_Error", "Low_Error", "Abs_High_Error", "Abs_Low_Error", "Total_Error",
		"High_Overshoot", "Low_Overshoot",
	}}
	for _, r := range rows {
		out = append(out, []string{
			r.Date.String(), r.Source,
			num(r.PredLow), num(r.PredHigh), num(r.MarketLow), num(r.MarketHigh),
			boolean(r.FullHit), boolean(r.HighMiss), boolean(r.LowMiss), boolean(r.BothMiss),
			num(r.HighError), num(r.LowError), num(r.AbsHighError), num(r.AbsLowError), num(r.TotalError),
			num(r.HighOvershoot), num(r.LowOvershoot),
		})
	}
	return Sheet{Name: TableDetail, Rows: out}
}

// Summary writes ratios and averages rounded to two decimals, in the
// order given (already ranked by hit rate).
func Summary(sums []models.SourceSummary) Sheet {
	rows := [][]string{{
		"Source", "N_Days", "Hit_Count", "Hit_Rate_%", "High_Miss_%", "Low_Miss_%",
		"Avg_High_Error_pts", "Avg_Low_Error_pts", "Avg_Abs_High_Error_pts", "Avg_Abs_Low_Error_pts",
		"Avg_Total_Error_pts", "Avg_High_Overshoot_pts", "Avg_Low_Overshoot_pts", "Directional_Bias",
	}}
	for _, s := range sums {
		rows = append(rows, []string{
			s.Source, strconv.Itoa(s.NDays), strconv.Itoa(s.HitCount),
			num2(s.HitRatePct), num2(s.HighMissPct), num2(s.LowMissPct),
			num2(s.AvgHighError), num2(s.AvgLowError), num2(s.AvgAbsHighError), num2(s.AvgAbsLowError),
			num2(s.AvgTotalError), num2(s.AvgHighOvershoot), num2(s.AvgLowOvershoot), num2(s.DirectionalBias),
		})
	}
	return Sheet{Name: TableSummary, Rows: rows}
}

func Flags(counts []models.FlagCount) Sheet {
	header := []string{"Source", "Rows"}
	for _, f := range models.RangeFlags {
		header = append(header, string(f))
	}
	rows := [][]string{header}
	for _, fc := range counts {
		row := []string{fc.Source, strconv.Itoa(fc.Rows)}
		for _, f := range models.RangeFlags {
			row = append(row, strconv.Itoa(fc.Counts[f]))
		}
		rows = append(rows, row)
	}
	return Sheet{Name: TableFlags, Rows: rows}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func num2(v float64) string {
	return strconv.FormatFloat(models.Round2(v), 'f', 2, 64)
}

// nullFloat renders an absent value as an empty cell.
func nullFloat(v models.NullFloat) string {
	if !v.Valid {
		return ""
	}
	return num(v.Value)
}

func nullBool(v models.NullBool) string {
	if !v.Valid {
		return ""
	}
	return boolean(v.Value)
}

func boolean(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
