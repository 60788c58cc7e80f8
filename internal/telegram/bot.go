package telegram

import (
	"context"

	"gopkg.in/telebot.v3"

	"github.com/nikmy/remindbot/internal/reminders"
	"github.com/nikmy/remindbot/pkg/logger"
)

func New(log logger.Logger, cfg Config, store reminders.API) (*Bot, error) {
	b, err := telebot.NewBot(telebot.Settings{
		Token:   cfg.Token,
		Updates: 256,
		Poller: &telebot.LongPoller{
			Timeout: cfg.PollInterval,
		},
	})
	if err != nil {
		return nil, err
	}

	return &Bot{
		bot:   b,
		store: store,
		log:   log.With("telegram"),
	}, nil
}

type Bot struct {
	bot *telebot.Bot
	ctx context.Context

	store reminders.API
	log   logger.Logger
}

func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.setupHandlers()
	go b.bot.Start()
	return nil
}

func (b *Bot) Stop() {
	b.bot.Stop()
}
