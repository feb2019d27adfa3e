package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/RangeScore/config"
)

var cfg *config.Config

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rangescore",
		Short: "Compare NIFTY range predictions against the market and score them",
		Long: `rangescore merges predicted support/resistance ranges from several sources
with the realised NIFTY high/low, picks the closest source per day and
backtests every source's hit rate, errors and directional bias.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "", "Log level (debug|info|warn|error), overrides LOG_LEVEL")
	flags.String("manifest", "", "Input manifest, overrides MANIFEST_PATH")
	flags.String("output-dir", "", "Output directory, overrides OUTPUT_DIR")
	flags.Int("top-n", 0, "Performers listed in reports, overrides TOP_N")
	flags.Bool("bom", false, "Prefix CSV output with a UTF-8 BOM")

	rootCmd.AddCommand(newRunCmd(), newAuditCmd(), newPublishCmd())
	return rootCmd
}

// setup loads the configuration, applies flag overrides and configures logging.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := flags.GetString("manifest"); v != "" {
		cfg.ManifestPath = v
	}
	if v, _ := flags.GetString("output-dir"); v != "" {
		cfg.OutputDir = v
	}
	if v, _ := flags.GetInt("top-n"); v > 0 {
		cfg.TopN = v
	}
	if flags.Changed("bom") {
		cfg.WriteBOM, _ = flags.GetBool("bom")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
	return nil
}
