package store

import (
	"context"

	"github.com/bdevroede/courtplan/internal/challenge"
	"github.com/bdevroede/courtplan/internal/notify"
	"github.com/bdevroede/courtplan/internal/schedule"
)

// Collection names, also used as change topics between instances.
const (
	ColReservations  = "reservations"
	ColAvailability  = "availability"
	ColChallenges    = "challenges"
	ColNotifications = "notifications"
	ColReminders     = "reminders"
)

// Store persists every collection wholesale. Writes replace the stored value;
// the in-memory managers stay the source of truth while the process runs.
type Store interface {
	LoadReservations(ctx context.Context) ([]schedule.Reservation, error)
	SaveReservations(ctx context.Context, rs []schedule.Reservation) error

	LoadAvailability(ctx context.Context) (schedule.Availability, error)
	SaveAvailability(ctx context.Context, a schedule.Availability) error

	LoadChallenges(ctx context.Context) ([]challenge.Challenge, error)
	SaveChallenges(ctx context.Context, items []challenge.Challenge) error

	LoadNotifications(ctx context.Context) ([]notify.Notification, error)
	SaveNotifications(ctx context.Context, items []notify.Notification) error

	LoadRemindersSent(ctx context.Context) ([]string, error)
	SaveRemindersSent(ctx context.Context, keys []string) error

	// Subscribe invokes fn with the collection name whenever another
	// instance writes it. Own writes are filtered out. Blocks until ctx ends.
	Subscribe(ctx context.Context, fn func(collection string)) error

	Close() error
}
