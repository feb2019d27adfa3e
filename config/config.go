package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	LogLevel          string  `env:"LOG_LEVEL" envDefault:"info"`
	ManifestPath      string  `env:"MANIFEST_PATH" envDefault:"rangescore.yaml"`
	OutputDir         string  `env:"OUTPUT_DIR" envDefault:"out"`
	TopN              int     `env:"TOP_N" envDefault:"5"`
	WriteBOM          bool    `env:"WRITE_BOM" envDefault:"false"`
	PublishEnabled    bool    `env:"PUBLISH_ENABLED" envDefault:"false"`
	TelegramBotToken  string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID    int64   `env:"TELEGRAM_CHAT_ID"`
	RequestTimeout    int     `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	PublishRatePerSec float64 `env:"PUBLISH_RATE_PER_SEC" envDefault:"1"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.ManifestPath = getEnvWithDefault("MANIFEST_PATH", "rangescore.yaml")
	cfg.OutputDir = getEnvWithDefault("OUTPUT_DIR", "out")
	cfg.TopN = getEnvIntWithDefault("TOP_N", 5)
	cfg.WriteBOM = getEnvBoolWithDefault("WRITE_BOM", false)
	cfg.PublishEnabled = getEnvBoolWithDefault("PUBLISH_ENABLED", false)
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.PublishRatePerSec = getEnvFloatWithDefault("PUBLISH_RATE_PER_SEC", 1)

	return &cfg, nil
}

// Timeout is RequestTimeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// CanPublish reports whether the Telegram credentials are set. PublishEnabled
// only decides whether `run` publishes by default.
func (c *Config) CanPublish() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
