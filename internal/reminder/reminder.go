package reminder

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bdevroede/courtplan/internal/notify"
	"github.com/bdevroede/courtplan/internal/obslog"
	"github.com/bdevroede/courtplan/internal/schedule"
)

// Source exposes the day's bookings.
type Source interface {
	ReservationsOn(date string) []schedule.Reservation
}

// Saver persists the already-reminded set across restarts.
type Saver interface {
	SaveRemindersSent(ctx context.Context, keys []string) error
}

// Scheduler pushes one match-day reminder per player per date. The sent set
// makes the sweep idempotent across ticks and restarts.
type Scheduler struct {
	mu     sync.Mutex
	src    Source
	center *notify.Center
	saver  Saver
	sent   map[string]struct{}

	// Now is the clock used by the sweep. Tests replace it.
	Now      func() time.Time
	Interval time.Duration
}

func NewScheduler(src Source, center *notify.Center, saver Saver) *Scheduler {
	return &Scheduler{
		src:      src,
		center:   center,
		saver:    saver,
		sent:     make(map[string]struct{}),
		Now:      time.Now,
		Interval: time.Minute,
	}
}

// Restore replaces the sent set from persisted state without writing back.
func (s *Scheduler) Restore(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s.sent[k] = struct{}{}
	}
}

// Adopt replaces the sent set from a peer instance. No persist.
func (s *Scheduler) Adopt(keys []string) {
	s.Restore(keys)
}

// Run sweeps once per interval until ctx ends.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	s.Sweep()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep reminds every player with a booking today who was not reminded yet.
func (s *Scheduler) Sweep() int {
	today := s.Now().UTC().Format(schedule.DateFormat)

	type pending struct {
		player string
		res    schedule.Reservation
	}
	var due []pending

	s.mu.Lock()
	for _, r := range s.src.ReservationsOn(today) {
		for _, p := range r.Players {
			key := today + "|" + p
			if _, done := s.sent[key]; done {
				continue
			}
			s.sent[key] = struct{}{}
			due = append(due, pending{player: p, res: r})
		}
	}
	var snap []string
	if len(due) > 0 {
		snap = make([]string, 0, len(s.sent))
		for k := range s.sent {
			snap = append(snap, k)
		}
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return 0
	}
	for _, d := range due {
		s.center.Push(d.player, notify.MatchReminder{
			Player: d.player,
			Date:   d.res.Date,
			Slot:   d.res.Slot,
			Court:  d.res.Court,
		})
	}
	if s.saver != nil {
		if err := s.saver.SaveRemindersSent(context.Background(), snap); err != nil {
			obslog.L().Error("reminders_persist_error", zap.Error(err))
		}
	}
	obslog.L().Info("reminders_sent", zap.String("date", today), zap.Int("count", len(due)))
	return len(due)
}
