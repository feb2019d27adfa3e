package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/RangeScore/internal/manifest"
	"github.com/Alias1177/RangeScore/internal/normalize"
	"github.com/Alias1177/RangeScore/internal/table"
	"github.com/Alias1177/RangeScore/models"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func fixture(t *testing.T) (string, Input) {
	dir := t.TempDir()
	truth := write(t, dir, "truth.csv", "Date,Open,High,Low,Close\n"+
		"2025-01-02,0,26200,25900,0\n"+
		"2025-01-03,0,26300,26000,0\n"+
		"2025-01-06,0,26100,25800,0\n")
	mint := write(t, dir, "mint.csv", "Date,Support,Resistance\n"+
		"2025-01-02,25800,26300\n"+
		"2025-01-03,26100,26400\n"+
		"2025-01-07,26000,26500\n")
	et := write(t, dir, "et.csv", "Date,Nifty_Range\n"+
		"2025-01-02,\"25,850 - 26,250\"\n"+
		"2025-01-03,26000 to 26300\n"+
		"2025-01-06,no call today\n")
	bad := write(t, dir, "bad.csv", "Foo,Bar\n1,2\n")

	return dir, Input{
		Period:      "1year",
		GroundTruth: truth,
		Sources: []manifest.Source{
			{ID: "mint", Path: mint},
			{ID: "et", Path: et},
			{ID: "bad", Path: bad},
			{ID: "missing", Path: filepath.Join(dir, "missing.csv")},
		},
	}
}

func fixedNow() time.Time { return time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC) }

func TestRun(t *testing.T) {
	_, in := fixture(t)
	out, err := New(Options{Now: fixedNow}).Run(context.Background(), in)
	require.NoError(t, err)

	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, []string{"mint", "et"}, out.Merged.Sources)
	require.Len(t, out.Merged.Rows, 4, "union of market and source dates")
	require.Len(t, out.Skipped, 2)
	assert.Equal(t, "bad", out.Skipped[0].ID)
	assert.Equal(t, "missing", out.Skipped[1].ID)

	best := make(map[string]string)
	for _, d := range out.BestDays {
		best[d.Date.String()] = d.BestSource
	}
	assert.Equal(t, map[string]string{
		"2025-01-02": "et",
		"2025-01-03": "et",
		"2025-01-06": "",
		"2025-01-07": "",
	}, best)

	require.Len(t, out.BestStats, 2)
	assert.Equal(t, "et", out.BestStats[0].Source)
	assert.Equal(t, models.NoSource, out.BestStats[1].Source)

	bt := out.Backtest
	assert.Len(t, bt.Rows, 4)
	assert.Equal(t, 1, bt.Skipped, "2025-01-07 has no market data")
	require.Len(t, bt.Summaries, 2)
	assert.Equal(t, "et", bt.Summaries[0].Source)
	assert.InDelta(t, 100, bt.Summaries[0].HitRatePct, 1e-9)
	assert.InDelta(t, 50, bt.Summaries[1].HitRatePct, 1e-9)

	require.Len(t, out.Flags, 2)
	assert.Equal(t, 1, out.Flags[0].Counts[models.FlagWithin])
	assert.Equal(t, 1, out.Flags[0].Counts[models.FlagBreachedBelow])
	assert.Equal(t, 1, out.Flags[0].Counts[models.FlagNoData])
	assert.Equal(t, 2, out.Flags[1].Counts[models.FlagWithin])

	assert.Contains(t, out.Text, "PREDICTION RANGE BACKTEST REPORT (1YEAR)")
	assert.Contains(t, out.Text, "Generated: 2025-02-01 09:00:00")
	assert.Empty(t, out.Files, "nothing written without an output dir")
}

func TestRunWritesOutputs(t *testing.T) {
	dir, in := fixture(t)
	outDir := filepath.Join(dir, "out")
	out, err := New(Options{OutputDir: outDir, XLSX: true, Now: fixedNow}).Run(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, out.Files, 9)

	for _, name := range []string{
		"1year_merged_range_comparison.csv",
		"1year_best_source_per_day.csv",
		"1year_best_source_summary.csv",
		"1year_prepared_predictions.csv",
		"1year_backtest_detail.csv",
		"1year_backtest_summary.csv",
		"1year_range_flags.csv",
		"1year_backtest_report.txt",
		"1year_tables.xlsx",
	} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	summary, err := table.Load(filepath.Join(outDir, "1year_backtest_summary.csv"))
	require.NoError(t, err)
	require.Len(t, summary.Rows, 2)
	src, _ := summary.Rows[0].Get("source")
	rate, _ := summary.Rows[0].Get("hit_rate_%")
	assert.Equal(t, "et", src)
	assert.Equal(t, "100.00", rate)
}

func TestRunIsRepeatable(t *testing.T) {
	_, in := fixture(t)
	r := New(Options{Now: fixedNow})
	first, err := r.Run(context.Background(), in)
	require.NoError(t, err)
	second, err := r.Run(context.Background(), in)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Backtest.Summaries, second.Backtest.Summaries)
	assert.Equal(t, first.BestStats, second.BestStats)
}

func TestRunGroundTruthWithoutDate(t *testing.T) {
	dir, in := fixture(t)
	in.GroundTruth = write(t, dir, "nodate.csv", "High,Low\n1,2\n")

	_, err := New(Options{}).Run(context.Background(), in)
	var schemaErr *normalize.SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestRunCancelled(t *testing.T) {
	_, in := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{}).Run(ctx, in)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRejectsRepeatedSourceID(t *testing.T) {
	dir, in := fixture(t)
	other := write(t, dir, "mint_v2.csv", "Date,Support,Resistance\n2025-01-02,25000,27000\n")
	in.Sources = []manifest.Source{
		{ID: "mint", Path: in.Sources[0].Path},
		{ID: "mint", Path: other},
	}

	out, err := New(Options{OutputDir: filepath.Join(dir, "out")}).Run(context.Background(), in)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestRunAll(t *testing.T) {
	dir, in := fixture(t)
	m := &manifest.Manifest{Periods: []manifest.Period{
		{Name: "1year", GroundTruth: in.GroundTruth, Sources: in.Sources[:2]},
		{Name: "glob", GroundTruth: in.GroundTruth, Pattern: filepath.Join(dir, "*.csv")},
	}}

	outs, err := New(Options{}).RunAll(context.Background(), m, nil)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, []string{"mint", "et"}, outs[0].Merged.Sources)
	assert.Equal(t, []string{"et", "mint"}, outs[1].Merged.Sources, "discovered sources sorted by path")
	require.Len(t, outs[1].Skipped, 1)
	assert.Equal(t, "bad", outs[1].Skipped[0].ID)

	_, err = New(Options{}).RunAll(context.Background(), m, []string{"5year"})
	assert.Error(t, err)
}
