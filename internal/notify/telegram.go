// Package notify publishes report digests to a Telegram chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// MaxMessageLen is Telegram's limit for one text message.
const MaxMessageLen = 4096

// ErrDisabled is returned when publishing is not configured.
var ErrDisabled = errors.New("publishing disabled: bot token and chat id are required")

// Sender is the part of *tgbotapi.BotAPI the publisher needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Options holds options for creating a new Publisher
type Options struct {
	ChatID          int64
	Timeout         time.Duration
	MessagesPerSec  float64
	MaxRetryTimeout time.Duration
	InitialInterval time.Duration
}

// Publisher sends text to one chat with pacing and retries.
type Publisher struct {
	sender  Sender
	chatID  int64
	limiter *rate.Limiter
	opts    Options
	logger  zerolog.Logger
}

// NewTelegram connects to the Bot API with the given token.
func NewTelegram(token string, opts Options) (*Publisher, error) {
	if token == "" || opts.ChatID == 0 {
		return nil, ErrDisabled
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: opts.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return New(bot, opts), nil
}

// New wraps any Sender.
func New(sender Sender, opts Options) *Publisher {
	// Set default values if not provided
	if opts.MessagesPerSec <= 0 {
		opts.MessagesPerSec = 1
	}
	if opts.MaxRetryTimeout == 0 {
		opts.MaxRetryTimeout = 30 * time.Second
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = backoff.DefaultInitialInterval
	}

	return &Publisher{
		sender:  sender,
		chatID:  opts.ChatID,
		limiter: rate.NewLimiter(rate.Limit(opts.MessagesPerSec), 1),
		opts:    opts,
		logger:  log.With().Str("component", "notify").Int64("chat_id", opts.ChatID).Logger(),
	}
}

// Publish sends text, split into as many messages as needed, and returns the
// number of messages delivered.
func (p *Publisher) Publish(ctx context.Context, text string) (int, error) {
	chunks := Split(text, MaxMessageLen)
	for i, chunk := range chunks {
		if err := p.limiter.Wait(ctx); err != nil {
			return i, err
		}
		if err := p.send(ctx, chunk); err != nil {
			p.logger.Error().Err(err).Int("part", i+1).Int("parts", len(chunks)).Msg("Failed to send message")
			return i, fmt.Errorf("send part %d/%d: %w", i+1, len(chunks), err)
		}
		p.logger.Debug().Int("part", i+1).Int("parts", len(chunks)).Msg("Message sent")
	}
	p.logger.Info().Int("messages", len(chunks)).Msg("Digest published")
	return len(chunks), nil
}

func (p *Publisher) send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(p.chatID, text)

	operation := func() error {
		_, err := p.sender.Send(msg)
		if err == nil {
			return nil
		}
		var apiErr *tgbotapi.Error
		// Bad request or auth problems will not improve on retry
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		p.logger.Warn().Err(err).Msg("Send failed, retrying")
		return err
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.InitialInterval = p.opts.InitialInterval
	backoffStrategy.MaxElapsedTime = p.opts.MaxRetryTimeout

	return backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx))
}

// Split breaks text into parts of at most limit runes, cutting at line ends
// where possible.
func Split(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n > limit {
			flush()
		}
		for n > limit {
			runes := []rune(line)
			parts = append(parts, string(runes[:limit]))
			line = string(runes[limit:])
			n -= limit
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()
	return parts
}
