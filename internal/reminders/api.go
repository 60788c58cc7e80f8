package reminders

import (
	"context"
	"time"
)

// Reminder is a scheduled message exclusively owned by a single chat.
// NextFireAt is the scheduling key, stored minute-truncated in UTC.
type Reminder struct {
	ID      string `bson:"_id,omitempty" json:"id"`
	OwnerID string `bson:"owner_id"      json:"owner_id"`

	Message    string    `bson:"message"      json:"message"`
	NextFireAt time.Time `bson:"next_fire_at" json:"next_fire_at"`

	Recurring bool   `bson:"recurring"      json:"recurring"`
	Rule      string `bson:"rule,omitempty" json:"rule,omitempty"`

	CreatedBy string    `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time `bson:"created_at"           json:"created_at"`
}

// API is the reminder store. Records are keyed by (owner, id); the
// dispatcher may advance and remove them, creation happens only on the
// command and HTTP paths.
type API interface {
	// Create inserts a reminder and returns its generated id.
	Create(ctx context.Context, r Reminder) (id string, err error)

	// FindDue returns reminders whose fire time equals at exactly,
	// at minute granularity.
	FindDue(ctx context.Context, at time.Time) ([]Reminder, error)

	// Update moves the reminder's fire time forward in place.
	Update(ctx context.Context, owner, id string, nextFireAt time.Time) error

	// Delete removes the reminder; found is false if there was none.
	Delete(ctx context.Context, owner, id string) (found bool, err error)

	// ListByOwner returns all reminders of one chat.
	ListByOwner(ctx context.Context, owner string) ([]Reminder, error)

	Close(ctx context.Context) error
}
