package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/RangeScore/internal/manifest"
	"github.com/Alias1177/RangeScore/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [period...]",
		Short: "Run the comparison and backtest for manifest periods",
		Long: `Runs every period of the manifest (or only the named ones) and writes
<output-dir>/<period>_<table>.csv plus a text report per period.

Without a manifest, --truth with --source or --pattern describes a single period.`,
		RunE: runRun,
	}

	runCmd.Flags().String("truth", "", "Ground-truth market file for an ad-hoc period")
	runCmd.Flags().StringArray("source", nil, "Prediction file as id=path (repeatable, order kept)")
	runCmd.Flags().String("pattern", "", "Glob of prediction files for an ad-hoc period")
	runCmd.Flags().String("period", "adhoc", "Name of the ad-hoc period")
	runCmd.Flags().Bool("xlsx", false, "Also write all tables to one workbook per period")
	runCmd.Flags().Bool("publish", false, "Publish the digest to Telegram after the run, overrides PUBLISH_ENABLED")
	runCmd.Flags().Bool("quiet", false, "Do not print the report to stdout")
	return runCmd
}

func runRun(cmd *cobra.Command, args []string) error {
	xlsx, _ := cmd.Flags().GetBool("xlsx")
	publish := cfg.PublishEnabled
	if cmd.Flags().Changed("publish") {
		publish, _ = cmd.Flags().GetBool("publish")
	}
	quiet, _ := cmd.Flags().GetBool("quiet")

	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	outputDir := cfg.OutputDir
	if m.OutputDir != "" && !cmd.Flags().Changed("output-dir") {
		outputDir = m.OutputDir
	}

	runner := pipeline.New(pipeline.Options{
		OutputDir: outputDir,
		TopN:      cfg.TopN,
		BOM:       cfg.WriteBOM,
		XLSX:      xlsx,
	})
	outputs, err := runner.RunAll(cmd.Context(), m, args)
	if err != nil {
		return err
	}

	for _, out := range outputs {
		if !quiet {
			fmt.Fprint(cmd.OutOrStdout(), out.Text)
		}
		log.Info().Str("period", out.Period).Strs("files", out.Files).Msg("Outputs written")
	}

	if publish {
		return publishOutputs(cmd, outputs)
	}
	return nil
}

// loadManifest builds an ad-hoc manifest from flags when --truth is given,
// otherwise reads the manifest file.
func loadManifest(cmd *cobra.Command) (*manifest.Manifest, error) {
	truth, _ := cmd.Flags().GetString("truth")
	if truth == "" {
		return manifest.Load(cfg.ManifestPath)
	}

	name, _ := cmd.Flags().GetString("period")
	pattern, _ := cmd.Flags().GetString("pattern")
	pairs, _ := cmd.Flags().GetStringArray("source")

	p := manifest.Period{Name: name, GroundTruth: truth, Pattern: pattern}
	for _, s := range pairs {
		id, path, ok := strings.Cut(s, "=")
		if !ok || id == "" || path == "" {
			return nil, fmt.Errorf("invalid --source %q, want id=path", s)
		}
		p.Sources = append(p.Sources, manifest.Source{ID: id, Path: path})
	}
	if len(p.Sources) == 0 && p.Pattern == "" {
		return nil, fmt.Errorf("--truth needs --source or --pattern")
	}
	if err := manifest.UniqueIDs(p.Name, p.Sources); err != nil {
		return nil, fmt.Errorf("invalid --source: %w", err)
	}
	return &manifest.Manifest{Periods: []manifest.Period{p}}, nil
}
