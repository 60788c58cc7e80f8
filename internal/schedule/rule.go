package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nikmy/remindbot/pkg/errors"
)

// ErrMalformedRule reports a schedule token that does not encode a known
// recurrence pattern.
var ErrMalformedRule = errors.Error("malformed schedule rule")

type Kind string

const KindMonthly Kind = "monthly"

const tokenDelim = "_"

// Rule describes a recurrence pattern at minute precision.
type Rule struct {
	Kind       Kind
	DayOfMonth int
	Hour       int
	Minute     int
}

// ParseRule parses the persisted token format, e.g. "monthly_15_10:00".
// The inverse is Rule.Token.
func ParseRule(token string) (Rule, error) {
	parts := strings.Split(token, tokenDelim)
	if len(parts) != 3 {
		return Rule{}, errors.Wrapf(ErrMalformedRule, "token %q", token)
	}

	if Kind(parts[0]) != KindMonthly {
		return Rule{}, errors.Wrapf(ErrMalformedRule, "unknown kind %q", parts[0])
	}

	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return Rule{}, errors.Wrapf(ErrMalformedRule, "day %q", parts[1])
	}

	hour, minute, err := parseHHMM(parts[2])
	if err != nil {
		return Rule{}, errors.Wrapf(ErrMalformedRule, "time %q", parts[2])
	}

	return Rule{
		Kind:       KindMonthly,
		DayOfMonth: day,
		Hour:       hour,
		Minute:     minute,
	}, nil
}

// Token serializes the rule into its stable wire format, zero-padding day,
// hour and minute. ParseRule(r.Token()) == r for every valid rule.
func (r Rule) Token() string {
	return fmt.Sprintf("%s%s%02d%s%02d:%02d", r.Kind, tokenDelim, r.DayOfMonth, tokenDelim, r.Hour, r.Minute)
}

func parseHHMM(s string) (hour, minute int, err error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || hh == "" || mm == "" {
		return 0, 0, errors.Errorf("invalid time %q, expected HH:MM", s)
	}

	hour, err = strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.Errorf("invalid hour in %q", s)
	}

	minute, err = strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.Errorf("invalid minute in %q", s)
	}

	return hour, minute, nil
}
