package main

import (
	"github.com/spf13/cobra"

	"github.com/Alias1177/RangeScore/internal/notify"
	"github.com/Alias1177/RangeScore/internal/pipeline"
	"github.com/Alias1177/RangeScore/internal/report"
)

func newPublishCmd() *cobra.Command {
	publishCmd := &cobra.Command{
		Use:   "publish [period...]",
		Short: "Send the leaderboard digest of each period to Telegram",
		Long: `Runs the manifest periods in memory and posts a short digest per period
to TELEGRAM_CHAT_ID. Needs TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID.`,
		RunE: runPublish,
	}
	publishCmd.Flags().String("truth", "", "Ground-truth market file for an ad-hoc period")
	publishCmd.Flags().StringArray("source", nil, "Prediction file as id=path (repeatable, order kept)")
	publishCmd.Flags().String("pattern", "", "Glob of prediction files for an ad-hoc period")
	publishCmd.Flags().String("period", "adhoc", "Name of the ad-hoc period")
	return publishCmd
}

func runPublish(cmd *cobra.Command, args []string) error {
	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}

	outputs, err := pipeline.New(pipeline.Options{TopN: cfg.TopN}).RunAll(cmd.Context(), m, args)
	if err != nil {
		return err
	}
	return publishOutputs(cmd, outputs)
}

func publishOutputs(cmd *cobra.Command, outputs []*pipeline.Output) error {
	if !cfg.CanPublish() {
		return notify.ErrDisabled
	}

	publisher, err := notify.NewTelegram(cfg.TelegramBotToken, notify.Options{
		ChatID:         cfg.TelegramChatID,
		Timeout:        cfg.Timeout(),
		MessagesPerSec: cfg.PublishRatePerSec,
	})
	if err != nil {
		return err
	}

	for _, out := range outputs {
		logger := out.Logger()
		n, err := publisher.Publish(cmd.Context(), report.Digest(out.Report, cfg.TopN))
		if err != nil {
			return err
		}
		logger.Info().Int("messages", n).Msg("Digest sent")
	}
	return nil
}
