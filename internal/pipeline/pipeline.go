// Package pipeline runs one full comparison and backtest for a period:
// load, normalize, merge, pick best sources, score, report and export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RangeScore/internal/backtest"
	"github.com/Alias1177/RangeScore/internal/export"
	"github.com/Alias1177/RangeScore/internal/manifest"
	"github.com/Alias1177/RangeScore/internal/market"
	"github.com/Alias1177/RangeScore/internal/merge"
	"github.com/Alias1177/RangeScore/internal/normalize"
	"github.com/Alias1177/RangeScore/internal/report"
	"github.com/Alias1177/RangeScore/internal/table"
	"github.com/Alias1177/RangeScore/models"
)

// Input names the files of one period. Sources are processed in order.
type Input struct {
	Period      string
	GroundTruth string
	Sources     []manifest.Source
}

// FromPeriod resolves a manifest period into an Input.
func FromPeriod(p manifest.Period) (Input, error) {
	sources, err := p.ResolveSources()
	if err != nil {
		return Input{}, err
	}
	return Input{Period: p.Name, GroundTruth: p.GroundTruth, Sources: sources}, nil
}

// Options control what a run writes.
type Options struct {
	// OutputDir receives the tables; nothing is written when empty.
	OutputDir string
	TopN      int
	BOM       bool
	XLSX      bool
	Now       func() time.Time
}

// SkippedSource is a source file that produced no series.
type SkippedSource struct {
	ID     string
	Reason string
}

// Output is everything one run computed.
type Output struct {
	RunID     string
	Period    string
	Merged    *merge.Result
	BestDays  []models.BestSourceDay
	BestStats []models.BestSourceStat
	Backtest  *backtest.Results
	Flags     []models.FlagCount
	Report    *report.Report
	Text      string
	Skipped   []SkippedSource
	Files     []string
}

type Runner struct {
	opts       Options
	normalizer *normalize.Normalizer
	engine     *backtest.Engine
}

func New(opts Options) *Runner {
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		opts:       opts,
		normalizer: normalize.New(),
		engine:     backtest.NewEngine(),
	}
}

// Run processes one period. Only repeated source IDs, an unusable
// ground-truth file, a cancelled context or an output failure stop the run;
// bad source files are skipped.
func (r *Runner) Run(ctx context.Context, in Input) (*Output, error) {
	if err := manifest.UniqueIDs(in.Period, in.Sources); err != nil {
		return nil, err
	}
	out := &Output{RunID: uuid.New().String(), Period: in.Period}
	logger := log.With().
		Str("component", "pipeline").
		Str("run_id", out.RunID).
		Str("period", in.Period).
		Logger()

	truth, err := market.LoadFile(in.GroundTruth)
	if err != nil {
		var schemaErr *normalize.SchemaError
		if errors.As(err, &schemaErr) {
			logger.Error().Err(err).Msg("Ground truth has no date column")
		}
		return nil, fmt.Errorf("period %s: %w", in.Period, err)
	}
	logger.Info().Str("file", in.GroundTruth).Int("dates", len(truth.Dates())).Msg("Ground truth loaded")

	var sources []merge.Source
	for _, src := range in.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		series, err := r.loadSource(src)
		if err != nil {
			logger.Warn().Err(err).Str("source", src.ID).Str("file", src.Path).Msg("Skipping source")
			out.Skipped = append(out.Skipped, SkippedSource{ID: src.ID, Reason: err.Error()})
			continue
		}
		sources = append(sources, series)
		out.Flags = append(out.Flags, backtest.CountFlags(src.ID, series.Records, truth))
	}

	out.Merged = merge.Merge(truth, sources)
	out.BestDays = out.Merged.BestSourceDays()
	out.BestStats = merge.SummarizeBest(out.BestDays)
	preds := out.Merged.Predictions()
	out.Backtest = r.engine.Run(preds)

	out.Report = report.New(in.Period, out.RunID, r.opts.Now(), out.Backtest, out.BestDays, out.BestStats, out.Flags)
	out.Text = report.Text(out.Report, r.opts.TopN)

	if r.opts.OutputDir != "" {
		files, err := r.write(out, preds)
		if err != nil {
			return nil, err
		}
		out.Files = files
	}

	logger.Info().
		Int("sources", len(sources)).
		Int("skipped", len(out.Skipped)).
		Int("dates", len(out.Merged.Rows)).
		Int("scored", len(out.Backtest.Rows)).
		Msg("Run complete")
	return out, nil
}

func (r *Runner) loadSource(src manifest.Source) (*normalize.Series, error) {
	t, err := table.Load(src.Path)
	if err != nil {
		return nil, err
	}
	return r.normalizer.Series(src.ID, t)
}

func (r *Runner) write(out *Output, preds []models.Prediction) ([]string, error) {
	w := export.NewWriter(r.opts.OutputDir, out.Period, r.opts.BOM)
	sheets := []export.Sheet{
		export.Merged(out.Merged),
		export.BestPerDay(out.BestDays),
		export.BestSummary(out.BestStats),
		export.Predictions(preds),
		export.Detail(out.Backtest.Rows),
		export.Summary(out.Backtest.Summaries),
		export.Flags(out.Flags),
	}

	files, err := w.WriteAll(sheets)
	if err != nil {
		return nil, err
	}
	p, err := w.WriteText("backtest_report", out.Text)
	if err != nil {
		return nil, err
	}
	files = append(files, p)

	if r.opts.XLSX {
		p, err := w.WriteWorkbook(sheets)
		if err != nil {
			return nil, err
		}
		files = append(files, p)
	}
	return files, nil
}

// RunAll runs the named periods of a manifest in order, or all of them when
// names is empty.
func (r *Runner) RunAll(ctx context.Context, m *manifest.Manifest, names []string) ([]*Output, error) {
	if len(names) == 0 {
		names = m.Names()
	}
	outputs := make([]*Output, 0, len(names))
	for _, name := range names {
		p, ok := m.Period(name)
		if !ok {
			return outputs, fmt.Errorf("unknown period %q", name)
		}
		in, err := FromPeriod(p)
		if err != nil {
			return outputs, err
		}
		out, err := r.Run(ctx, in)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// Logger returns a logger tagged with the run of o.
func (o *Output) Logger() zerolog.Logger {
	return log.With().Str("run_id", o.RunID).Str("period", o.Period).Logger()
}
