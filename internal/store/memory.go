package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bdevroede/courtplan/internal/challenge"
	"github.com/bdevroede/courtplan/internal/notify"
	"github.com/bdevroede/courtplan/internal/schedule"
)

// MemoryStore is a process-local Store for development and tests. It keeps
// the JSON form so load and save behave exactly like the redis store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) LoadReservations(_ context.Context) ([]schedule.Reservation, error) {
	var out []schedule.Reservation
	err := s.load(ColReservations, &out)
	return out, err
}

func (s *MemoryStore) SaveReservations(_ context.Context, rs []schedule.Reservation) error {
	return s.save(ColReservations, rs)
}

func (s *MemoryStore) LoadAvailability(_ context.Context) (schedule.Availability, error) {
	var out schedule.Availability
	err := s.load(ColAvailability, &out)
	return out, err
}

func (s *MemoryStore) SaveAvailability(_ context.Context, a schedule.Availability) error {
	return s.save(ColAvailability, a)
}

func (s *MemoryStore) LoadChallenges(_ context.Context) ([]challenge.Challenge, error) {
	var out []challenge.Challenge
	err := s.load(ColChallenges, &out)
	return out, err
}

func (s *MemoryStore) SaveChallenges(_ context.Context, items []challenge.Challenge) error {
	return s.save(ColChallenges, items)
}

func (s *MemoryStore) LoadNotifications(_ context.Context) ([]notify.Notification, error) {
	var out []notify.Notification
	err := s.load(ColNotifications, &out)
	return out, err
}

func (s *MemoryStore) SaveNotifications(_ context.Context, items []notify.Notification) error {
	return s.save(ColNotifications, items)
}

func (s *MemoryStore) LoadRemindersSent(_ context.Context) ([]string, error) {
	var out []string
	err := s.load(ColReminders, &out)
	return out, err
}

func (s *MemoryStore) SaveRemindersSent(_ context.Context, keys []string) error {
	return s.save(ColReminders, keys)
}

// Subscribe blocks until ctx ends. A single instance has no peers.
func (s *MemoryStore) Subscribe(ctx context.Context, _ func(collection string)) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *MemoryStore) load(collection string, into any) error {
	s.mu.RLock()
	raw, ok := s.data[collection]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, into)
}

func (s *MemoryStore) save(collection string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[collection] = raw
	s.mu.Unlock()
	return nil
}
