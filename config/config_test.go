package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"LOG_LEVEL", "MANIFEST_PATH", "OUTPUT_DIR", "TOP_N", "WRITE_BOM", "PUBLISH_ENABLED",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "REQUEST_TIMEOUT", "PUBLISH_RATE_PER_SEC"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "rangescore.yaml", cfg.ManifestPath)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 5, cfg.TopN)
	assert.False(t, cfg.WriteBOM)
	assert.False(t, cfg.PublishEnabled)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 1.0, cfg.PublishRatePerSec)
	assert.False(t, cfg.CanPublish())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TOP_N", "3")
	t.Setenv("WRITE_BOM", "yes")
	t.Setenv("PUBLISH_ENABLED", "1")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200300")
	t.Setenv("REQUEST_TIMEOUT", "not-a-number")
	t.Setenv("PUBLISH_RATE_PER_SEC", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.TopN)
	assert.True(t, cfg.WriteBOM)
	assert.Equal(t, int64(-100200300), cfg.TelegramChatID)
	assert.Equal(t, 30, cfg.RequestTimeout, "bad values fall back to the default")
	assert.Equal(t, 0.5, cfg.PublishRatePerSec)
	assert.True(t, cfg.PublishEnabled)
	assert.True(t, cfg.CanPublish())
}

func TestCanPublishNeedsCredentialsOnly(t *testing.T) {
	cfg := &Config{TelegramBotToken: "123:abc", TelegramChatID: 42}
	assert.True(t, cfg.CanPublish(), "the publish command works without PUBLISH_ENABLED")

	cfg = &Config{PublishEnabled: true, TelegramBotToken: "123:abc"}
	assert.False(t, cfg.CanPublish())
}
