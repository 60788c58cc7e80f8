package dispatch

import (
	"context"
	"time"

	"github.com/nikmy/remindbot/internal/reminders"
)

//go:generate mockgen -source=interfaces.go -destination=mock_test.go -package=dispatch

// Store is the slice of the reminder store the dispatcher needs: it can
// advance and remove reminders but never creates them.
type Store interface {
	FindDue(ctx context.Context, at time.Time) ([]reminders.Reminder, error)
	Update(ctx context.Context, owner, id string, nextFireAt time.Time) error
	Delete(ctx context.Context, owner, id string) (found bool, err error)
}

// Sender delivers a text message to an owner's destination.
type Sender interface {
	Send(ctx context.Context, destination string, text string) error
}
