package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nikmy/remindbot/internal/reminders"
	"github.com/nikmy/remindbot/pkg/errors"
	"github.com/nikmy/remindbot/pkg/logger"
)

func TestDispatcher_Tick(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	nextMonth := time.Date(2024, time.April, 15, 10, 0, 0, 0, time.UTC)

	recurring := reminders.Reminder{
		ID:         "rec-1",
		OwnerID:    "chat-1",
		Message:    "pay rent",
		NextFireAt: now,
		Recurring:  true,
		Rule:       "monthly_15_10:00",
	}

	oneShot := reminders.Reminder{
		ID:         "one-1",
		OwnerID:    "chat-2",
		Message:    "check the oven",
		NextFireAt: now,
	}

	type mocks struct {
		due     []reminders.Reminder
		dueErr  error
		sendErr map[string]error

		wantUpdates map[string]time.Time
		wantDeletes []string
	}

	type testcase struct {
		name    string
		mock    mocks
		wantErr bool
	}

	tests := [...]testcase{
		{
			name: "nothing due",
			mock: mocks{},
		},
		{
			name: "recurring advances in place",
			mock: mocks{
				due:         []reminders.Reminder{recurring},
				wantUpdates: map[string]time.Time{"rec-1": nextMonth},
			},
		},
		{
			name: "one-shot gets deleted",
			mock: mocks{
				due:         []reminders.Reminder{oneShot},
				wantDeletes: []string{"one-1"},
			},
		},
		{
			name: "failed send still reschedules",
			mock: mocks{
				due:         []reminders.Reminder{recurring},
				sendErr:     map[string]error{"rec-1": errors.Error("telegram down")},
				wantUpdates: map[string]time.Time{"rec-1": nextMonth},
			},
		},
		{
			name: "mixed batch is processed independently",
			mock: mocks{
				due:         []reminders.Reminder{recurring, oneShot},
				sendErr:     map[string]error{"rec-1": errors.Error("telegram down")},
				wantUpdates: map[string]time.Time{"rec-1": nextMonth},
				wantDeletes: []string{"one-1"},
			},
		},
		{
			name: "store unavailable fails the tick",
			mock: mocks{
				dueErr: errors.Error("mongo down"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			store := NewMockStore(ctrl)
			store.EXPECT().
				FindDue(gomock.Any(), now).
				Return(tt.mock.due, tt.mock.dueErr).
				Times(1)

			sender := NewMockSender(ctrl)
			for _, r := range tt.mock.due {
				sender.EXPECT().
					Send(gomock.Any(), r.OwnerID, gomock.Any()).
					Return(tt.mock.sendErr[r.ID]).
					Times(1)
			}

			for id, next := range tt.mock.wantUpdates {
				store.EXPECT().
					Update(gomock.Any(), gomock.Any(), id, next).
					Return(nil).
					Times(1)
			}

			for _, id := range tt.mock.wantDeletes {
				store.EXPECT().
					Delete(gomock.Any(), gomock.Any(), id).
					Return(true, nil).
					Times(1)
			}

			d := New(logger.NewStub(), store, sender)

			err := d.Tick(context.Background(), now)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDispatcher_Tick_StoreErrorSkipsOnlyThatReminder(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

	broken := reminders.Reminder{
		ID: "a", OwnerID: "chat", Message: "x", NextFireAt: now, Recurring: true, Rule: "monthly_15_10:00",
	}
	fine := reminders.Reminder{
		ID: "b", OwnerID: "chat", Message: "y", NextFireAt: now,
	}

	ctrl := gomock.NewController(t)

	store := NewMockStore(ctrl)
	store.EXPECT().
		FindDue(gomock.Any(), now).
		Return([]reminders.Reminder{broken, fine}, nil).
		Times(1)
	store.EXPECT().
		Update(gomock.Any(), "chat", "a", gomock.Any()).
		Return(errors.Error("write timeout")).
		Times(1)
	store.EXPECT().
		Delete(gomock.Any(), "chat", "b").
		Return(true, nil).
		Times(1)

	sender := NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), "chat", gomock.Any()).Return(nil).Times(2)

	d := New(logger.NewStub(), store, sender)

	require.NoError(t, d.Tick(context.Background(), now))
}

func Test_deliveryText(t *testing.T) {
	require.Equal(t,
		"⏰ Recurring reminder: pay rent",
		deliveryText(reminders.Reminder{Message: "pay rent", Recurring: true}),
	)
	require.Equal(t,
		"⏰ Reminder: check the oven",
		deliveryText(reminders.Reminder{Message: "check the oven"}),
	)
}
