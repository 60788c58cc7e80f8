package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nikmy/remindbot/internal/api"
	"github.com/nikmy/remindbot/internal/dispatch"
	"github.com/nikmy/remindbot/internal/reminders"
	"github.com/nikmy/remindbot/internal/telegram"
	"github.com/nikmy/remindbot/pkg/errors"
	"github.com/nikmy/remindbot/pkg/logger"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		stdlog.Panic(errors.WrapFail(err, "load config"))
	}

	log, err := logger.New(cfg.Environment)
	if err != nil {
		stdlog.Panic(errors.WrapFail(err, "init logger"))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := reminders.New(ctx, log, cfg.Reminders)
	if err != nil {
		log.Panic(errors.WrapFail(err, "init reminders store"))
	}

	bot, err := telegram.New(log, cfg.Telegram, store)
	if err != nil {
		log.Panic(errors.WrapFail(err, "init bot"))
	}

	if err = bot.Run(ctx); err != nil {
		log.Panic(errors.WrapFail(err, "run bot"))
	}

	dispatcher := dispatch.New(log, store, bot.Notifier())

	// Dispatcher.Tick assumes this entry fires every minute.
	ticks := cron.New()
	_, err = ticks.AddFunc("* * * * *", func() {
		if err := dispatcher.Tick(ctx, time.Now()); err != nil {
			log.Error(errors.WrapFail(err, "run dispatch tick"))
		}
	})
	if err != nil {
		log.Panic(errors.WrapFail(err, "register dispatch tick"))
	}
	ticks.Start()

	server := api.NewServer(cfg.API, log, store)
	go func() {
		if err := server.Serve(ctx); err != nil {
			log.Error(errors.WrapFail(err, "serve http api"))
		}
	}()

	stdlog.Println("Bot has been started")
	<-ctx.Done()
	stdlog.Println("Graceful shutdown...")

	<-ticks.Stop().Done()
	bot.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(errors.WrapFail(err, "shutdown http server"))
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Error(errors.WrapFail(err, "close reminders store"))
	}

	stdlog.Println("Shutdown complete")
}
