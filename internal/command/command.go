package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/nikmy/remindbot/internal/schedule"
)

// Command is the closed set of chat commands; callers switch on the
// concrete type instead of probing the text again.
type Command interface {
	isCommand()
}

// CreateReminder carries everything needed to persist a new reminder.
type CreateReminder struct {
	Message   string
	FireAt    time.Time
	Recurring bool
	Rule      string // canonical schedule token, set iff Recurring
}

type ListReminders struct{}

type DeleteReminder struct {
	ID string
}

// Unrecognized marks text that is not a reminder command at all; it is
// silently ignored, never surfaced as an error.
type Unrecognized struct{}

func (CreateReminder) isCommand() {}
func (ListReminders) isCommand()  {}
func (DeleteReminder) isCommand() {}
func (Unrecognized) isCommand()   {}

const keyword = "remind"

// maxRelativeMinutes bounds "remind in <minutes>" to one year; anything
// longer is noise, and unbounded values overflow time.Duration.
const maxRelativeMinutes = 366 * 24 * 60

// Parse matches text against the reminder command grammar:
//
//	remind monthly <day> <HH:MM> <message...>
//	remind in <minutes> <message...>
//	remind list
//	remind delete <id>
//
// now anchors the first fire time of created reminders. Anything that does
// not match returns Unrecognized.
func Parse(text string, now time.Time) Command {
	parts := strings.Fields(text)
	if len(parts) < 2 || trimCommandPrefix(parts[0]) != keyword {
		return Unrecognized{}
	}

	switch parts[1] {
	case "monthly":
		return parseMonthly(parts, now)
	case "in":
		return parseRelative(parts, now)
	case "list":
		if len(parts) != 2 {
			return Unrecognized{}
		}
		return ListReminders{}
	case "delete":
		if len(parts) != 3 {
			return Unrecognized{}
		}
		return DeleteReminder{ID: parts[2]}
	default:
		return Unrecognized{}
	}
}

func parseMonthly(parts []string, now time.Time) Command {
	if len(parts) < 5 {
		return Unrecognized{}
	}

	token := string(schedule.KindMonthly) + "_" + parts[2] + "_" + parts[3]

	rule, err := schedule.ParseRule(token)
	if err != nil {
		return Unrecognized{}
	}

	return CreateReminder{
		Message:   strings.Join(parts[4:], " "),
		FireAt:    schedule.InitialOccurrence(rule, now),
		Recurring: true,
		Rule:      rule.Token(),
	}
}

func parseRelative(parts []string, now time.Time) Command {
	if len(parts) < 4 {
		return Unrecognized{}
	}

	minutes, err := strconv.Atoi(parts[2])
	if err != nil || minutes < 1 || minutes > maxRelativeMinutes {
		return Unrecognized{}
	}

	return CreateReminder{
		Message: strings.Join(parts[3:], " "),
		FireAt:  now.Truncate(time.Minute).Add(time.Duration(minutes) * time.Minute),
	}
}

// trimCommandPrefix tolerates chat command markers on the first token,
// so "/remind" and "!remind" match too.
func trimCommandPrefix(s string) string {
	if len(s) > 1 && (s[0] == '/' || s[0] == '!') {
		return s[1:]
	}
	return s
}
