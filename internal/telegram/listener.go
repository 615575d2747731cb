package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// CommandHandler processes one "/command args" line and returns the reply.
type CommandHandler func(command string) string

// Listen long-polls for commands until ctx is done. Only messages from the
// configured chat are handled; anything else is logged and ignored.
func (n *Notifier) Listen(ctx context.Context, handler CommandHandler) {
	if !n.Enabled() {
		log.Info().Msg("Telegram listener disabled")
		return
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := n.bot.GetUpdatesChan(u)
	defer n.bot.StopReceivingUpdates()

	log.Info().Msg("Telegram listener started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Telegram listener stopping")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}

			// Access control
			if update.Message.Chat.ID != n.chatID {
				from := ""
				if update.Message.From != nil {
					from = update.Message.From.UserName
				}
				log.Warn().Str("user", from).Int64("chat", update.Message.Chat.ID).
					Str("text", update.Message.Text).Msg("Unauthorized command attempt")
				continue
			}

			text := strings.TrimSpace(update.Message.Text)
			if !strings.HasPrefix(text, "/") {
				continue
			}
			log.Info().Str("command", text).Msg("Command received")
			n.Notify(handler(text))
		}
	}
}
