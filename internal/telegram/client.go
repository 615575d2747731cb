package telegram

import (
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Notifier delivers alerts to one Telegram chat. Delivery is fire-and-forget:
// failures are logged and never returned. A Notifier without credentials is
// disabled and silently drops messages.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifier connects to the Bot API. Missing credentials or a failed
// handshake leave the notifier disabled rather than failing startup.
func NewNotifier(token string, chatID int64) *Notifier {
	return newNotifier(token, tgbotapi.APIEndpoint, chatID)
}

func newNotifier(token, endpoint string, chatID int64) *Notifier {
	if token == "" || chatID == 0 {
		log.Warn().Msg("Telegram credentials missing, alerts disabled")
		return &Notifier{}
	}

	// Long polling holds requests for up to 30s, leave room for that.
	client := &http.Client{Timeout: 60 * time.Second}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		log.Error().Err(err).Msg("Telegram connect failed, alerts disabled")
		return &Notifier{}
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("Telegram connected")
	return &Notifier{bot: bot, chatID: chatID}
}

func (n *Notifier) Enabled() bool { return n != nil && n.bot != nil }

// Notify sends text to the configured chat.
func (n *Notifier) Notify(text string) {
	if !n.Enabled() || text == "" {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	log.Debug().Str("text", text).Msg("Telegram notify")

	if _, err := n.bot.Send(msg); err != nil {
		log.Error().Err(err).Msg("Telegram alert failed")
	}
}
