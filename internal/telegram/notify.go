package telegram

import (
	"context"
	"strconv"

	"gopkg.in/telebot.v3"

	"github.com/nikmy/remindbot/pkg/errors"
)

// Notifier pushes dispatcher deliveries into chats. Destinations are the
// decimal chat IDs reminders were created under.
type Notifier struct {
	bot *telebot.Bot
}

func (b *Bot) Notifier() *Notifier {
	return &Notifier{bot: b.bot}
}

func (n *Notifier) Send(_ context.Context, destination string, text string) error {
	chatID, err := strconv.ParseInt(destination, 10, 64)
	if err != nil {
		return errors.WrapFailf(err, "parse destination %q", destination)
	}

	_, err = n.bot.Send(telebot.ChatID(chatID), text)
	return errors.WrapFail(err, "send telegram message")
}
