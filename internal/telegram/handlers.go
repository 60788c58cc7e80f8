package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vitaliy-ukiru/fsm-telebot"
	"github.com/vitaliy-ukiru/fsm-telebot/storages/memory"
	"gopkg.in/telebot.v3"

	"github.com/nikmy/remindbot/internal/command"
	"github.com/nikmy/remindbot/internal/reminders"
	"github.com/nikmy/remindbot/internal/schedule"
	"github.com/nikmy/remindbot/pkg/errors"
)

const (
	initialState = fsm.DefaultState

	forgetReadIDState fsm.State = "forgetReadID"
)

const usage = "" +
	"remind monthly <day> <HH:MM> <message> — set a monthly reminder\n" +
	"remind in <minutes> <message> — set a one-time reminder\n" +
	"remind list — show this chat's reminders\n" +
	"remind delete <id> — remove a reminder\n" +
	"/forget — remove a reminder step by step"

func (b *Bot) setupHandlers() {
	manager := fsm.NewManager(
		b.bot,
		nil,
		memory.NewStorage(),
		nil,
	)

	manager.Bind("/start", fsm.AnyState, b.start)

	manager.Bind("/forget", initialState, b.startForget)
	manager.Bind(telebot.OnText, forgetReadIDState, b.forget)

	manager.Bind(telebot.OnText, initialState, b.onText)
}

func (b *Bot) setState(s fsm.Context, target fsm.State) {
	if err := s.Set(target); err != nil {
		b.log.Warn(errors.WrapFailf(err, "set state to %q", target))
	}
}

func (b *Bot) final(c telebot.Context, s fsm.Context, msg string, opts ...any) error {
	b.setState(s, initialState)
	return c.Send(msg, opts...)
}

func (b *Bot) fail(c telebot.Context, s fsm.Context, err error) error {
	b.log.Error(err)
	return b.final(c, s, "Something went wrong")
}

func (b *Bot) start(c telebot.Context, s fsm.Context) error {
	return b.final(c, s, usage)
}

// onText is the single entry point for command traffic: the parser decides
// and the handler dispatches on the variant. Plain chatter never answers.
func (b *Bot) onText(c telebot.Context, s fsm.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	switch cmd := command.Parse(c.Text(), time.Now().UTC()).(type) {
	case command.CreateReminder:
		return b.create(c, s, chat, cmd)
	case command.ListReminders:
		return b.list(c, s, chat)
	case command.DeleteReminder:
		return b.delete(c, s, chat, cmd.ID)
	default:
		return nil
	}
}

func (b *Bot) create(c telebot.Context, s fsm.Context, chat *telebot.Chat, cmd command.CreateReminder) error {
	r := reminders.Reminder{
		OwnerID:    ownerID(chat),
		Message:    cmd.Message,
		NextFireAt: cmd.FireAt,
		Recurring:  cmd.Recurring,
		Rule:       cmd.Rule,
	}
	if sender := c.Sender(); sender != nil {
		r.CreatedBy = sender.Username
	}

	id, err := b.store.Create(b.ctx, r)
	if err != nil {
		return b.fail(c, s, errors.WrapFail(err, "create reminder"))
	}

	return b.final(
		c, s,
		confirmText(id, cmd),
		&telebot.SendOptions{ParseMode: telebot.ModeMarkdown},
	)
}

func (b *Bot) list(c telebot.Context, s fsm.Context, chat *telebot.Chat) error {
	owned, err := b.store.ListByOwner(b.ctx, ownerID(chat))
	if err != nil {
		return b.fail(c, s, errors.WrapFail(err, "list reminders"))
	}

	if len(owned) == 0 {
		return b.final(c, s, "No reminders in this chat")
	}

	return b.final(c, s, listText(owned), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}

func (b *Bot) delete(c telebot.Context, s fsm.Context, chat *telebot.Chat, id string) error {
	found, err := b.store.Delete(b.ctx, ownerID(chat), id)
	if err != nil {
		return b.fail(c, s, errors.WrapFail(err, "delete reminder"))
	}

	if !found {
		return b.final(c, s, "No such reminder")
	}

	return b.final(c, s, "Reminder removed")
}

func (b *Bot) startForget(c telebot.Context, s fsm.Context) error {
	b.setState(s, forgetReadIDState)
	return c.Send("Send the reminder ID")
}

func (b *Bot) forget(c telebot.Context, s fsm.Context) error {
	chat := c.Chat()
	if chat == nil {
		return b.fail(c, s, errors.Fail("get chat"))
	}

	return b.delete(c, s, chat, strings.TrimSpace(c.Text()))
}

func ownerID(chat *telebot.Chat) string {
	return strconv.FormatInt(chat.ID, 10)
}

func confirmText(id string, cmd command.CreateReminder) string {
	return fmt.Sprintf(
		"Reminder `%s` set: %s (first fires %s UTC)",
		id, cmd.Message, cmd.FireAt.Format("2006-01-02 15:04"),
	)
}

func listText(owned []reminders.Reminder) string {
	var sb strings.Builder

	for _, r := range owned {
		sb.WriteRune('`')
		sb.WriteString(r.ID)
		sb.WriteRune('`')

		sb.WriteString(" (")
		if r.Recurring {
			sb.WriteString(describeRule(r.Rule))
		} else {
			sb.WriteString(r.NextFireAt.Format("2006-01-02 15:04"))
		}
		sb.WriteString(") ")

		sb.WriteString(r.Message)
		sb.WriteString("\n")
	}

	return sb.String()
}

func describeRule(token string) string {
	rule, err := schedule.ParseRule(token)
	if err != nil {
		return token
	}

	return fmt.Sprintf("monthly on day %d at %02d:%02d", rule.DayOfMonth, rule.Hour, rule.Minute)
}
