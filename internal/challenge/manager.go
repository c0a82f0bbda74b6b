package challenge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bdevroede/courtplan/internal/identity"
	"github.com/bdevroede/courtplan/internal/notify"
	"github.com/bdevroede/courtplan/internal/obslog"
	"github.com/bdevroede/courtplan/internal/roster"
	"github.com/bdevroede/courtplan/internal/schedule"
)

var (
	ErrSelfChallenge  = errors.New("cannot challenge yourself")
	ErrAlreadyPending = errors.New("pending challenge already exists between these players")
	ErrNotFound       = errors.New("challenge not found")
	ErrNotPending     = errors.New("challenge is not pending")
	ErrNotAccepted    = errors.New("challenge is not accepted")
	ErrNotAllowed     = errors.New("not allowed")
	ErrUnknownPlayer  = errors.New("unknown player")
	ErrBadWinner      = errors.New("winner is not a participant")
)

// Booker is the slice of the schedule service a challenge needs: court
// capacity checks on accept and result stamping on completion.
type Booker interface {
	Grid() schedule.Grid
	BookChallenge(from, to, date, slot, challengeID string) (*schedule.Reservation, error)
	RecordChallengeResult(challengeID string, result schedule.Result) (*schedule.Reservation, error)
}

// Saver persists the whole challenge list wholesale.
type Saver interface {
	SaveChallenges(ctx context.Context, items []Challenge) error
}

// Archiver keeps completed results in durable storage.
type Archiver interface {
	SaveResult(ctx context.Context, ch Challenge) error
}

// Manager owns the challenge lifecycle: pending, accepted or declined, and
// completed once a winner is recorded.
type Manager struct {
	mu      sync.RWMutex
	roster  *roster.Roster
	booker  Booker
	saver   Saver
	center  *notify.Center
	archive Archiver
	items   []Challenge
}

func NewManager(r *roster.Roster, booker Booker, saver Saver) *Manager {
	return &Manager{roster: r, booker: booker, saver: saver}
}

// AttachNotifier wires the notification center. Optional.
func (m *Manager) AttachNotifier(c *notify.Center) {
	if m != nil {
		m.center = c
	}
}

// AttachArchive wires a database archive for completed results. Optional.
func (m *Manager) AttachArchive(a Archiver) {
	if m != nil {
		m.archive = a
	}
}

// Restore replaces the challenge list from persisted state without writing back.
func (m *Manager) Restore(items []Challenge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = snapshot(items)
}

// Adopt replaces the challenge list from a peer instance. No persist.
func (m *Manager) Adopt(items []Challenge) {
	m.Restore(items)
}

// Create opens a pending challenge from the acting player to another member.
func (m *Manager) Create(actor identity.Actor, to, date, slot string) (*Challenge, error) {
	if !actor.Authenticated() {
		return nil, ErrNotAllowed
	}
	if !m.roster.Has(to) {
		return nil, ErrUnknownPlayer
	}
	if to == actor.Name {
		return nil, ErrSelfChallenge
	}
	grid := m.booker.Grid()
	if !grid.HasDate(date) {
		return nil, schedule.ErrUnknownDate
	}
	if !grid.HasSlot(slot) {
		return nil, schedule.ErrUnknownSlot
	}

	m.mu.Lock()
	for _, c := range m.items {
		if c.Status == StatusPending && c.involves(actor.Name) && c.involves(to) {
			m.mu.Unlock()
			return nil, ErrAlreadyPending
		}
	}
	ch := Challenge{
		ID:        uuid.NewString(),
		From:      actor.Name,
		To:        to,
		Date:      date,
		Slot:      slot,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	m.items = append(m.items, ch)
	snap := snapshot(m.items)
	m.mu.Unlock()

	obslog.L().Info("challenge_create",
		zap.String("challenge_id", ch.ID),
		zap.String("from", ch.From),
		zap.String("to", ch.To),
		zap.String("date", ch.Date),
	)
	m.save(snap)
	if m.center != nil {
		m.center.Push(ch.To, notify.ChallengeReceived{
			From: ch.From, To: ch.To, Date: ch.Date, Slot: ch.Slot, ChallengeID: ch.ID,
		})
		m.center.PushRead(ch.From, notify.ChallengeSent{
			From: ch.From, To: ch.To, Date: ch.Date, Slot: ch.Slot, ChallengeID: ch.ID,
		})
	}
	return &ch, nil
}

// Accept books a court for the challenge. Only the challenged player may
// accept, and the booking must still fit the occupancy of that hour: when it
// does not, the challenge stays pending and the booking error is returned.
func (m *Manager) Accept(actor identity.Actor, id string) (*Challenge, error) {
	if !actor.Authenticated() {
		return nil, ErrNotAllowed
	}

	m.mu.Lock()
	idx := m.findLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	ch := m.items[idx]
	if ch.To != actor.Name {
		m.mu.Unlock()
		return nil, ErrNotAllowed
	}
	if ch.Status != StatusPending {
		m.mu.Unlock()
		return nil, ErrNotPending
	}

	res, err := m.booker.BookChallenge(ch.From, ch.To, ch.Date, ch.Slot, ch.ID)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	ch.Status = StatusAccepted
	m.items[idx] = ch
	snap := snapshot(m.items)
	m.mu.Unlock()

	obslog.L().Info("challenge_accept",
		zap.String("challenge_id", ch.ID),
		zap.Int("court", res.Court),
	)
	m.save(snap)
	if m.center != nil {
		ev := notify.ChallengeAccepted{
			From: ch.From, To: ch.To, Date: ch.Date, Slot: ch.Slot,
			Court: res.Court, ChallengeID: ch.ID,
		}
		m.center.Push(ch.From, ev)
		m.center.PushRead(ch.To, ev)
	}
	out := cloneChallenge(ch)
	return &out, nil
}

// Decline closes a pending challenge without booking anything.
func (m *Manager) Decline(actor identity.Actor, id string) (*Challenge, error) {
	if !actor.Authenticated() {
		return nil, ErrNotAllowed
	}

	m.mu.Lock()
	idx := m.findLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	ch := m.items[idx]
	if ch.To != actor.Name {
		m.mu.Unlock()
		return nil, ErrNotAllowed
	}
	if ch.Status != StatusPending {
		m.mu.Unlock()
		return nil, ErrNotPending
	}
	ch.Status = StatusDeclined
	m.items[idx] = ch
	snap := snapshot(m.items)
	m.mu.Unlock()

	obslog.L().Info("challenge_decline", zap.String("challenge_id", ch.ID))
	m.save(snap)
	if m.center != nil {
		ev := notify.ChallengeDeclined{
			From: ch.From, To: ch.To, Date: ch.Date, Slot: ch.Slot, ChallengeID: ch.ID,
		}
		m.center.Push(ch.From, ev)
		m.center.PushRead(ch.To, ev)
	}
	out := cloneChallenge(ch)
	return &out, nil
}

// RecordResult completes an accepted challenge. Participants or the
// administrator may record; the winner must be one of the two players.
func (m *Manager) RecordResult(actor identity.Actor, id, winner string) (*Challenge, error) {
	if !actor.Authenticated() {
		return nil, ErrNotAllowed
	}

	m.mu.Lock()
	idx := m.findLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	ch := m.items[idx]
	if !actor.Admin && !ch.involves(actor.Name) {
		m.mu.Unlock()
		return nil, ErrNotAllowed
	}
	if ch.Status != StatusAccepted {
		m.mu.Unlock()
		return nil, ErrNotAccepted
	}
	if winner != ch.From && winner != ch.To {
		m.mu.Unlock()
		return nil, ErrBadWinner
	}
	loser := ch.From
	if winner == ch.From {
		loser = ch.To
	}
	result := schedule.Result{Winner: winner, Loser: loser}

	if _, err := m.booker.RecordChallengeResult(ch.ID, result); err != nil {
		if !errors.Is(err, schedule.ErrNoReservation) {
			m.mu.Unlock()
			return nil, err
		}
		// The reservation can be gone when an admin cleared the court by
		// hand. The challenge outcome still counts.
		obslog.L().Warn("challenge_result_without_reservation", zap.String("challenge_id", ch.ID))
	}
	ch.Status = StatusCompleted
	ch.Result = &result
	m.items[idx] = ch
	snap := snapshot(m.items)
	m.mu.Unlock()

	obslog.L().Info("challenge_result",
		zap.String("challenge_id", ch.ID),
		zap.String("winner", winner),
		zap.String("loser", loser),
	)
	m.save(snap)
	if m.archive != nil {
		if err := m.archive.SaveResult(context.Background(), ch); err != nil {
			obslog.L().Error("challenge_archive_error", zap.String("challenge_id", ch.ID), zap.Error(err))
		}
	}
	if m.center != nil {
		ev := notify.MatchResult{Winner: winner, Loser: loser, Date: ch.Date, ChallengeID: ch.ID}
		for _, p := range []string{ch.From, ch.To} {
			if p == actor.Name {
				m.center.PushRead(p, ev)
			} else {
				m.center.Push(p, ev)
			}
		}
	}
	out := cloneChallenge(ch)
	return &out, nil
}

// Get returns one challenge by ID.
func (m *Manager) Get(id string) (Challenge, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if idx := m.findLocked(id); idx >= 0 {
		return cloneChallenge(m.items[idx]), true
	}
	return Challenge{}, false
}

// List returns all challenges in creation order.
func (m *Manager) List() []Challenge {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return snapshot(m.items)
}

// ByPlayer returns the challenges a player is involved in, either side.
func (m *Manager) ByPlayer(player string) []Challenge {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Challenge
	for _, c := range m.items {
		if c.involves(player) {
			out = append(out, cloneChallenge(c))
		}
	}
	return out
}

func (m *Manager) findLocked(id string) int {
	for i := range m.items {
		if m.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) save(snap []Challenge) {
	if m.saver == nil {
		return
	}
	if err := m.saver.SaveChallenges(context.Background(), snap); err != nil {
		obslog.L().Error("challenges_persist_error", zap.Error(err))
	}
}

func snapshot(items []Challenge) []Challenge {
	out := make([]Challenge, len(items))
	for i, c := range items {
		out[i] = cloneChallenge(c)
	}
	return out
}
