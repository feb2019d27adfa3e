package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/RangeScore/internal/audit"
	"github.com/Alias1177/RangeScore/internal/manifest"
)

func newAuditCmd() *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit [file...]",
		Short: "Check input files for weekend, duplicate and unparseable dates",
		Long: `Audits the calendar of the given files, or of every ground-truth and
source file in the manifest when no file is given.`,
		RunE: runAudit,
	}
	auditCmd.Flags().Bool("strict", false, "Exit with an error when any file is not clean")
	return auditCmd
}

func runAudit(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")

	files := args
	if len(files) == 0 {
		var err error
		if files, err = manifestFiles(); err != nil {
			return err
		}
	}

	dirty := 0
	for _, f := range files {
		res, err := audit.File(f)
		if err != nil {
			log.Warn().Err(err).Str("file", f).Msg("Audit failed")
			dirty++
			continue
		}
		fmt.Fprint(cmd.OutOrStdout(), res.String())
		if !res.Clean() {
			dirty++
		}
	}

	if strict && dirty > 0 {
		return fmt.Errorf("%d of %d files failed the calendar audit", dirty, len(files))
	}
	return nil
}

// manifestFiles lists every distinct input file of the manifest.
func manifestFiles() ([]string, error) {
	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	for _, p := range m.Periods {
		add(p.GroundTruth)
		sources, err := p.ResolveSources()
		if err != nil {
			return nil, err
		}
		for _, s := range sources {
			add(s.Path)
		}
	}
	return files, nil
}
