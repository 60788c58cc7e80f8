package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/nikmy/remindbot/internal/reminders"
	"github.com/nikmy/remindbot/internal/schedule"
	"github.com/nikmy/remindbot/pkg/errors"
	"github.com/nikmy/remindbot/pkg/logger"
)

// New builds a dispatcher over an injected store and sender. The dispatcher
// keeps no state of its own between ticks; everything lives in the store.
func New(log logger.Logger, store Store, sender Sender) *Dispatcher {
	return &Dispatcher{
		store:  store,
		sender: sender,
		log:    log.With("dispatcher"),
	}
}

type Dispatcher struct {
	store  Store
	sender Sender
	log    logger.Logger
}

// Tick processes every reminder due at now, at minute granularity.
//
// Precondition: the surrounding trigger fires once per minute without skew.
// A minute the trigger skips is never delivered retroactively, and the
// dispatcher provides no mutual exclusion between overlapping ticks.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) error {
	now = now.UTC().Truncate(time.Minute)

	due, err := d.store.FindDue(ctx, now)
	if err != nil {
		return errors.WrapFail(err, "find due reminders")
	}

	for _, r := range due {
		d.process(ctx, r, now)
	}

	return nil
}

// process delivers one reminder, then advances or removes it. Delivery is
// fire-and-forget relative to scheduling state: a failed send is logged and
// the reminder is rescheduled anyway. A store failure aborts only this
// reminder's processing.
func (d *Dispatcher) process(ctx context.Context, r reminders.Reminder, now time.Time) {
	err := d.sender.Send(ctx, r.OwnerID, deliveryText(r))
	if err != nil {
		d.log.Error(errors.WrapFailf(err, "deliver reminder %s/%s", r.OwnerID, r.ID))
	}

	if !r.Recurring {
		found, err := d.store.Delete(ctx, r.OwnerID, r.ID)
		if err != nil {
			d.log.Error(errors.WrapFailf(err, "delete fired reminder %s/%s", r.OwnerID, r.ID))
			return
		}
		if !found {
			d.log.Warnf("fired reminder %s/%s already gone", r.OwnerID, r.ID)
		}
		return
	}

	rule, err := schedule.ParseRule(r.Rule)
	if err != nil {
		d.log.Error(errors.WrapFailf(err, "parse rule of reminder %s/%s", r.OwnerID, r.ID))
		return
	}

	err = d.store.Update(ctx, r.OwnerID, r.ID, schedule.NextOccurrence(rule, now))
	if err != nil {
		d.log.Error(errors.WrapFailf(err, "reschedule reminder %s/%s", r.OwnerID, r.ID))
	}
}

func deliveryText(r reminders.Reminder) string {
	if r.Recurring {
		return fmt.Sprintf("⏰ Recurring reminder: %s", r.Message)
	}
	return fmt.Sprintf("⏰ Reminder: %s", r.Message)
}
