// Package telegram sends reports through the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxMessageLength is Telegram's per-message limit in characters.
const MaxMessageLength = 4096

// ErrDelivery wraps every failure to reach or be accepted by Telegram.
var ErrDelivery = errors.New("telegram delivery failed")

// Config configures the notifier.
type Config struct {
	Token    string
	ChatID   string // numeric chat ID or @channelusername
	Endpoint string // defaults to tgbotapi.APIEndpoint
	Timeout  time.Duration
}

// Notifier posts HTML messages to one chat.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	channel string
	logger  *slog.Logger
}

// New authenticates the bot with getMe.
func New(cfg Config, logger *slog.Logger) (*Notifier, error) {
	if cfg.Token == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("%w: token and chat id are required", ErrDelivery)
	}
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	n := &Notifier{logger: logger.With("component", "telegram")}
	if id, err := strconv.ParseInt(cfg.ChatID, 10, 64); err == nil {
		n.chatID = id
	} else if strings.HasPrefix(cfg.ChatID, "@") {
		n.channel = cfg.ChatID
	} else {
		return nil, fmt.Errorf("%w: chat id %q is neither numeric nor @channel", ErrDelivery, cfg.ChatID)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("%w: authenticate bot: %v", ErrDelivery, err)
	}
	n.bot = bot

	n.logger.Info("✓ bot authenticated", "username", bot.Self.UserName)
	return n, nil
}

// Notify sends payload, split on line boundaries when it exceeds
// MaxMessageLength.
func (n *Notifier) Notify(ctx context.Context, payload string) error {
	for i, chunk := range Split(payload, MaxMessageLength) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrDelivery, err)
		}

		msg := n.message(chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true

		sent, err := n.bot.Send(msg)
		if err != nil {
			return fmt.Errorf("%w: send part %d: %v", ErrDelivery, i+1, err)
		}
		n.logger.Info("message sent", "message_id", sent.MessageID, "part", i+1, "chars", len([]rune(chunk)))
	}
	return nil
}

func (n *Notifier) message(text string) tgbotapi.MessageConfig {
	if n.channel != "" {
		return tgbotapi.NewMessageToChannel(n.channel, text)
	}
	return tgbotapi.NewMessage(n.chatID, text)
}

// Split cuts text into chunks of at most limit characters, breaking after a
// newline where possible. Lines longer than limit are cut hard.
func Split(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > 0; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
