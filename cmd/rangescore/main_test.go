package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/RangeScore/internal/notify"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func inputs(t *testing.T) (dir, truth, mint string) {
	dir = t.TempDir()
	truth = filepath.Join(dir, "truth.csv")
	mint = filepath.Join(dir, "mint.csv")
	require.NoError(t, os.WriteFile(truth, []byte("Date,High,Low\n2025-01-03,26200,25900\n2025-01-04,26300,26000\n"), 0644))
	require.NoError(t, os.WriteFile(mint, []byte("Date,Support_Level,Resistance_Level\n2025-01-03,25800,26300\n"), 0644))
	return dir, truth, mint
}

func TestRunAdHoc(t *testing.T) {
	dir, truth, mint := inputs(t)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "run", "--truth", truth, "--source", "mint="+mint, "--period", "dec", "--output-dir", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "PREDICTION RANGE BACKTEST REPORT (DEC)")
	assert.Contains(t, out, "1. mint")
	assert.FileExists(t, filepath.Join(outDir, "dec_backtest_summary.csv"))
	assert.FileExists(t, filepath.Join(outDir, "dec_backtest_report.txt"))
}

func TestRunManifest(t *testing.T) {
	dir, _, _ := inputs(t)
	manifestPath := filepath.Join(dir, "rangescore.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte("ground_truth: truth.csv\noutput_dir: results\nperiods:\n  - name: p1\n    sources:\n      - {id: mint, path: mint.csv}\n"), 0644))

	_, err := execute(t, "run", "--manifest", manifestPath, "--quiet", "--xlsx")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "results", "p1_merged_range_comparison.csv"))
	assert.FileExists(t, filepath.Join(dir, "results", "p1_tables.xlsx"))
}

func TestRunBadSourceFlag(t *testing.T) {
	_, truth, _ := inputs(t)
	_, err := execute(t, "run", "--truth", truth, "--source", "no-equals-sign")
	assert.Error(t, err)

	_, err = execute(t, "run", "--truth", truth)
	assert.Error(t, err)
}

func TestRunRepeatedSourceID(t *testing.T) {
	dir, truth, mint := inputs(t)
	other := filepath.Join(dir, "mint_v2.csv")
	require.NoError(t, os.WriteFile(other, []byte("Date,Support_Level,Resistance_Level\n2025-01-03,25000,27000\n"), 0644))
	outDir := filepath.Join(dir, "out")

	_, err := execute(t, "run", "--truth", truth, "--source", "mint="+mint, "--source", "mint="+other, "--output-dir", outDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"mint"`)
	assert.NoFileExists(t, filepath.Join(outDir, "adhoc_backtest_summary.csv"))
}

func TestAudit(t *testing.T) {
	_, truth, mint := inputs(t)

	out, err := execute(t, "audit", truth, mint)
	require.NoError(t, err)
	assert.Contains(t, out, "Saturdays: 1")

	_, err = execute(t, "audit", "--strict", truth)
	assert.Error(t, err, "2025-01-04 is a Saturday")

	_, err = execute(t, "audit", "--strict", mint)
	assert.NoError(t, err)
}

func TestRunPublishEnabledFromEnv(t *testing.T) {
	t.Setenv("PUBLISH_ENABLED", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	dir, truth, mint := inputs(t)
	outDir := filepath.Join(dir, "out")

	_, err := execute(t, "run", "--quiet", "--truth", truth, "--source", "mint="+mint, "--output-dir", outDir)
	assert.ErrorIs(t, err, notify.ErrDisabled, "run publishes by default")
	assert.FileExists(t, filepath.Join(outDir, "adhoc_backtest_summary.csv"))

	_, err = execute(t, "run", "--quiet", "--publish=false", "--truth", truth, "--source", "mint="+mint, "--output-dir", outDir)
	assert.NoError(t, err)
}

func TestPublishDisabled(t *testing.T) {
	t.Setenv("PUBLISH_ENABLED", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	_, truth, mint := inputs(t)
	_, err := execute(t, "publish", "--truth", truth, "--source", "mint="+mint)
	assert.Error(t, err)
}
