package schedule

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/bdevroede/courtplan/internal/identity"
	"github.com/bdevroede/courtplan/internal/obslog"
	"github.com/bdevroede/courtplan/internal/roster"
)

// Saver persists whole collections after a mutation. Writes are
// fire-and-forget: in-memory state is already consistent when they run and
// failures are only logged.
type Saver interface {
	SaveReservations(ctx context.Context, rs []Reservation) error
	SaveAvailability(ctx context.Context, a Availability) error
}

// Service owns the reservation set and the availability index. Every
// mutation runs under one lock and either commits fully or leaves state
// untouched, so the two scheduling invariants (availability respected, no
// player double-booked within an hour) hold at all times.
type Service struct {
	mu sync.RWMutex

	roster  *roster.Roster
	grid    Grid
	planner *Planner
	saver   Saver

	reservations []Reservation
	availability Availability
}

func NewService(r *roster.Roster, grid Grid, tie TieBreak, saver Saver) *Service {
	return &Service{
		roster:       r,
		grid:         grid,
		planner:      NewPlanner(r, grid, tie),
		saver:        saver,
		availability: make(Availability),
	}
}

// Restore installs collections read from the store at startup.
func (s *Service) Restore(rs []Reservation, a Availability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations = snapshotReservations(rs)
	if a == nil {
		a = make(Availability)
	}
	s.availability = a
}

// AdoptReservations replaces the reservation set with an externally-sourced
// copy (cross-instance sync). Last write wins; nothing is persisted back.
func (s *Service) AdoptReservations(rs []Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations = snapshotReservations(rs)
}

// AdoptAvailability replaces the availability index wholesale.
func (s *Service) AdoptAvailability(a Availability) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a == nil {
		a = make(Availability)
	}
	s.availability = a
}

// Grid returns the season topology.
func (s *Service) Grid() Grid { return s.grid }

// Roster returns the club roster.
func (s *Service) Roster() *roster.Roster { return s.roster }

// Reservations returns a copy of the committed reservation set.
func (s *Service) Reservations() []Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotReservations(s.reservations)
}

// ReservationsOn returns the reservations of one date.
func (s *Service) ReservationsOn(date string) []Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Reservation
	for _, r := range s.reservations {
		if r.Date == date {
			out = append(out, copyReservation(r))
		}
	}
	return out
}

// Availability returns a copy of the availability index.
func (s *Service) Availability() Availability {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.availability.Clone()
}

// AvailablePlayers lists roster players not marked out for (date, slot).
func (s *Service) AvailablePlayers(date, slot string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.availablePlayersLocked(date, slot)
}

func (s *Service) availablePlayersLocked(date, slot string) []string {
	var out []string
	for _, name := range s.roster.Names() {
		if s.availability.Available(date, slot, name) {
			out = append(out, name)
		}
	}
	return out
}

// SetAvailability flips a single player's entry. Only the player themselves
// or an administrator may do so.
func (s *Service) SetAvailability(actor identity.Actor, player, date, slot string, available bool) error {
	if !actor.Authenticated() || (actor.Name != player && !actor.Admin) {
		return ErrNotAllowed
	}
	if !s.roster.Has(player) {
		return ErrUnknownPlayer
	}
	if !s.grid.HasDate(date) {
		return ErrUnknownDate
	}
	if !s.grid.HasSlot(slot) {
		return ErrUnknownSlot
	}

	s.mu.Lock()
	s.availability.Set(date, slot, player, available)
	snap := s.availability.Clone()
	s.mu.Unlock()

	s.saveAvailability(snap)
	return nil
}

// PlanAll rebuilds the entire season schedule, replacing every existing
// reservation. Opponent history from the set being replaced still counts.
// Administrator only.
func (s *Service) PlanAll(actor identity.Actor) (int, error) {
	if !actor.Admin {
		return 0, ErrNotAllowed
	}

	s.mu.Lock()
	history := BuildHistory(s.reservations, "")
	planned := s.planner.PlanAll(s.availability, history)
	s.reservations = planned
	snap := snapshotReservations(planned)
	s.mu.Unlock()

	obslog.L().Info("plan_all", zap.Int("reservations", len(snap)))
	s.saveReservations(snap)
	return len(snap), nil
}

// PlanWeek replans a single date: its existing reservations are dropped,
// opponent history is rebuilt without that date, and the date's hours are
// refilled. Reservations on every other date are untouched.
func (s *Service) PlanWeek(actor identity.Actor, date string) (int, error) {
	if !actor.Admin {
		return 0, ErrNotAllowed
	}
	if !s.grid.HasDate(date) {
		return 0, ErrUnknownDate
	}

	s.mu.Lock()
	history := BuildHistory(s.reservations, date)
	kept := s.reservations[:0:0]
	for _, r := range s.reservations {
		if r.Date != date {
			kept = append(kept, r)
		}
	}
	planned := s.planner.PlanDate(date, s.availability, history)
	s.reservations = append(kept, planned...)
	snap := snapshotReservations(s.reservations)
	s.mu.Unlock()

	obslog.L().Info("plan_week", zap.String("date", date), zap.Int("reservations", len(planned)))
	s.saveReservations(snap)
	return len(planned), nil
}

// Reserve creates or replaces a manual reservation on one court cell.
// Non-administrators must play in the match themselves, and may only
// replace a reservation they are part of.
func (s *Service) Reserve(actor identity.Actor, date, slot string, court int, matchType MatchType, players []string) (*Reservation, error) {
	if !actor.Authenticated() {
		return nil, ErrNotAllowed
	}
	if matchType != Single && matchType != Double {
		return nil, ErrValidation
	}
	if !s.grid.HasDate(date) {
		return nil, ErrUnknownDate
	}
	if !s.grid.HasSlot(slot) {
		return nil, ErrUnknownSlot
	}
	if court < 1 || court > s.grid.Courts {
		return nil, ErrValidation
	}
	if len(players) != matchType.PlayerCount() {
		return nil, ErrWrongPlayerCount
	}
	seen := make(map[string]bool, len(players))
	actorPlays := false
	for _, p := range players {
		if !s.roster.Has(p) {
			return nil, ErrUnknownPlayer
		}
		if seen[p] {
			return nil, ErrDuplicatePlayer
		}
		seen[p] = true
		if p == actor.Name {
			actorPlays = true
		}
	}
	if !actor.Admin && !actorPlays {
		return nil, ErrNotAllowed
	}

	committed, snap, err := s.reserveLocked(actor, date, slot, court, matchType, players)
	if err != nil {
		return nil, err
	}

	obslog.L().Info("reserve",
		zap.String("date", date),
		zap.String("slot", slot),
		zap.Int("court", court),
		zap.String("actor", actor.Name),
	)
	s.saveReservations(snap)
	return committed, nil
}

func (s *Service) reserveLocked(actor identity.Actor, date, slot string, court int, matchType MatchType, players []string) (*Reservation, []Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range players {
		if !s.availability.Available(date, slot, p) {
			return nil, nil, ErrPlayerUnavailable
		}
	}

	existingIdx := s.findLocked(date, slot, court)
	booked := playersBooked(s.reservations, date, slot)
	if existingIdx >= 0 {
		// Replacing this court: its own players do not block the new line-up.
		for _, p := range s.reservations[existingIdx].Players {
			delete(booked, p)
		}
	}
	for _, p := range players {
		if _, taken := booked[p]; taken {
			return nil, nil, ErrPlayerBooked
		}
	}

	var committed Reservation
	if existingIdx >= 0 {
		existing := s.reservations[existingIdx]
		if !actor.Admin && !contains(existing.Players, actor.Name) {
			return nil, nil, ErrNotAllowed
		}
		existing.Players = append([]string(nil), players...)
		existing.MatchType = matchType
		s.reservations[existingIdx] = existing
		committed = existing
	} else {
		committed = Reservation{
			Date:      date,
			Slot:      slot,
			Court:     court,
			MatchType: matchType,
			Players:   append([]string(nil), players...),
			Origin:    OriginTraining,
		}
		s.reservations = append(s.reservations, committed)
	}

	snap := snapshotReservations(s.reservations)
	out := copyReservation(committed)
	return &out, snap, nil
}

// RemoveReservation clears one court cell. Administrator or participant.
func (s *Service) RemoveReservation(actor identity.Actor, date, slot string, court int) error {
	if !actor.Authenticated() {
		return ErrNotAllowed
	}

	s.mu.Lock()
	idx := s.findLocked(date, slot, court)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNoReservation
	}
	if !actor.Admin && !contains(s.reservations[idx].Players, actor.Name) {
		s.mu.Unlock()
		return ErrNotAllowed
	}
	s.reservations = append(s.reservations[:idx], s.reservations[idx+1:]...)
	snap := snapshotReservations(s.reservations)
	s.mu.Unlock()

	obslog.L().Info("reservation_remove",
		zap.String("date", date),
		zap.String("slot", slot),
		zap.Int("court", court),
		zap.String("actor", actor.Name),
	)
	s.saveReservations(snap)
	return nil
}

// BookChallenge commits the singles reservation for an accepted challenge:
// both parties must be available and unbooked in the hour, and a court must
// be free. The lowest free court is taken.
func (s *Service) BookChallenge(from, to, date, slot, challengeID string) (*Reservation, error) {
	s.mu.Lock()

	if !s.availability.Available(date, slot, from) || !s.availability.Available(date, slot, to) {
		s.mu.Unlock()
		return nil, ErrPlayerUnavailable
	}
	booked := playersBooked(s.reservations, date, slot)
	if _, ok := booked[from]; ok {
		s.mu.Unlock()
		return nil, ErrPlayerBooked
	}
	if _, ok := booked[to]; ok {
		s.mu.Unlock()
		return nil, ErrPlayerBooked
	}
	court, ok := freeCourt(s.reservations, date, slot, s.grid.Courts)
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoFreeCourt
	}

	r := Reservation{
		Date:        date,
		Slot:        slot,
		Court:       court,
		MatchType:   Single,
		Players:     []string{from, to},
		Origin:      OriginChallenge,
		ChallengeID: challengeID,
	}
	s.reservations = append(s.reservations, r)
	snap := snapshotReservations(s.reservations)
	s.mu.Unlock()

	s.saveReservations(snap)
	out := copyReservation(r)
	return &out, nil
}

// RecordChallengeResult stamps a result onto the reservation linked to a
// challenge. Returns ErrNoReservation when the booking no longer exists
// (for instance after a replan), which callers may treat as benign.
func (s *Service) RecordChallengeResult(challengeID string, result Result) (*Reservation, error) {
	s.mu.Lock()
	idx := -1
	for i, r := range s.reservations {
		if r.ChallengeID == challengeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, ErrNoReservation
	}
	res := result
	s.reservations[idx].Result = &res
	committed := copyReservation(s.reservations[idx])
	snap := snapshotReservations(s.reservations)
	s.mu.Unlock()

	s.saveReservations(snap)
	return &committed, nil
}

func (s *Service) findLocked(date, slot string, court int) int {
	for i, r := range s.reservations {
		if r.Date == date && r.Slot == slot && r.Court == court {
			return i
		}
	}
	return -1
}

func (s *Service) saveReservations(snap []Reservation) {
	if s.saver == nil {
		return
	}
	if err := s.saver.SaveReservations(context.Background(), snap); err != nil {
		obslog.L().Error("reservations_persist_error", zap.Error(err))
	}
}

func (s *Service) saveAvailability(snap Availability) {
	if s.saver == nil {
		return
	}
	if err := s.saver.SaveAvailability(context.Background(), snap); err != nil {
		obslog.L().Error("availability_persist_error", zap.Error(err))
	}
}

func snapshotReservations(rs []Reservation) []Reservation {
	out := make([]Reservation, len(rs))
	for i, r := range rs {
		out[i] = copyReservation(r)
	}
	return out
}

func copyReservation(r Reservation) Reservation {
	r.Players = append([]string(nil), r.Players...)
	if r.Result != nil {
		res := *r.Result
		r.Result = &res
	}
	return r
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
