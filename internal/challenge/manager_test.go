package challenge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bdevroede/courtplan/internal/identity"
	"github.com/bdevroede/courtplan/internal/msgcat"
	"github.com/bdevroede/courtplan/internal/notify"
	"github.com/bdevroede/courtplan/internal/roster"
	"github.com/bdevroede/courtplan/internal/schedule"
)

type challengeSaver struct {
	last  []Challenge
	calls int
}

func (s *challengeSaver) SaveChallenges(_ context.Context, items []Challenge) error {
	s.last = items
	s.calls++
	return nil
}

type archiveStub struct{ got []Challenge }

func (a *archiveStub) SaveResult(_ context.Context, ch Challenge) error {
	a.got = append(a.got, ch)
	return nil
}

const date, slot = "2025-09-28", "18u30-19u30"

var (
	ann   = identity.Actor{Name: "Ann"}
	bo    = identity.Actor{Name: "Bo"}
	cy    = identity.Actor{Name: "Cy"}
	admin = identity.Actor{Name: "Dex", Admin: true}
)

func testFixture(t *testing.T) (*Manager, *schedule.Service, *notify.Center, *challengeSaver) {
	t.Helper()
	r, err := roster.Parse([]byte(`players:
  - name: Ann
    score: 40
  - name: Bo
    score: 45
  - name: Cy
    score: 55
  - name: Dex
    score: 60
`))
	if err != nil {
		t.Fatalf("roster.Parse: %v", err)
	}
	grid := schedule.NewGrid(time.Date(2025, time.September, 28, 0, 0, 0, 0, time.UTC), 2, schedule.DefaultSlots, 1)
	svc := schedule.NewService(r, grid, schedule.NoTieBreak(), nil)

	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	center := notify.NewCenter(cat, nil)

	saver := &challengeSaver{}
	m := NewManager(r, svc, saver)
	m.AttachNotifier(center)
	return m, svc, center, saver
}

func TestCreateValidation(t *testing.T) {
	m, _, _, _ := testFixture(t)

	if _, err := m.Create(identity.Actor{}, "Bo", date, slot); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("guest: %v", err)
	}
	if _, err := m.Create(ann, "Ann", date, slot); !errors.Is(err, ErrSelfChallenge) {
		t.Fatalf("self: %v", err)
	}
	if _, err := m.Create(ann, "Zorro", date, slot); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("unknown: %v", err)
	}
	if _, err := m.Create(ann, "Bo", "1999-01-01", slot); !errors.Is(err, schedule.ErrUnknownDate) {
		t.Fatalf("bad date: %v", err)
	}
	if _, err := m.Create(ann, "Bo", date, "21u00-22u00"); !errors.Is(err, schedule.ErrUnknownSlot) {
		t.Fatalf("bad slot: %v", err)
	}

	if _, err := m.Create(ann, "Bo", date, slot); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create(bo, "Ann", date, slot); !errors.Is(err, ErrAlreadyPending) {
		t.Fatalf("duplicate pending: %v", err)
	}
	// A pending challenge with someone else is fine.
	if _, err := m.Create(ann, "Cy", date, slot); err != nil {
		t.Fatalf("second opponent: %v", err)
	}
}

func TestCreateNotifiesBothParties(t *testing.T) {
	m, _, center, saver := testFixture(t)
	ch, err := m.Create(ann, "Bo", date, slot)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ch.Status != StatusPending || ch.ID == "" {
		t.Fatalf("unexpected challenge: %+v", ch)
	}
	if center.Unread("Bo") != 1 {
		t.Fatalf("recipient must get an unread notification")
	}
	if center.Unread("Ann") != 0 || len(center.For("Ann")) != 1 {
		t.Fatalf("sender ack must be born read")
	}
	if saver.calls == 0 || len(saver.last) != 1 {
		t.Fatalf("persist missing: calls=%d", saver.calls)
	}
}

func TestAcceptBooksCourt(t *testing.T) {
	m, svc, center, _ := testFixture(t)
	ch, err := m.Create(ann, "Bo", date, slot)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := m.Accept(ann, ch.ID); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("only the challenged player accepts: %v", err)
	}
	if _, err := m.Accept(bo, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown id: %v", err)
	}

	got, err := m.Accept(bo, ch.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if got.Status != StatusAccepted {
		t.Fatalf("status = %s", got.Status)
	}

	rs := svc.ReservationsOn(date)
	if len(rs) != 1 {
		t.Fatalf("expected one reservation, got %d", len(rs))
	}
	r := rs[0]
	if r.Court != 1 || r.Origin != schedule.OriginChallenge || r.ChallengeID != ch.ID {
		t.Fatalf("unexpected reservation: %+v", r)
	}
	if r.MatchType != schedule.Single {
		t.Fatalf("challenge matches are singles, got %s", r.MatchType)
	}

	if center.Unread("Ann") != 1 {
		t.Fatalf("challenger must hear about the acceptance")
	}
	if _, err := m.Accept(bo, ch.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("double accept: %v", err)
	}
}

func TestAcceptKeepsPendingWhenCourtFull(t *testing.T) {
	m, svc, _, _ := testFixture(t)
	// One court only: fill it first.
	if _, err := svc.Reserve(admin, date, slot, 1, schedule.Single, []string{"Cy", "Dex"}); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	ch, err := m.Create(ann, "Bo", date, slot)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Accept(bo, ch.ID); !errors.Is(err, schedule.ErrNoFreeCourt) {
		t.Fatalf("expected ErrNoFreeCourt, got %v", err)
	}
	got, _ := m.Get(ch.ID)
	if got.Status != StatusPending {
		t.Fatalf("failed accept must leave the challenge pending, got %s", got.Status)
	}
}

func TestDecline(t *testing.T) {
	m, svc, center, _ := testFixture(t)
	ch, err := m.Create(ann, "Bo", date, slot)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := m.Decline(bo, ch.ID)
	if err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if got.Status != StatusDeclined {
		t.Fatalf("status = %s", got.Status)
	}
	if len(svc.ReservationsOn(date)) != 0 {
		t.Fatalf("decline must not book a court")
	}
	if center.Unread("Ann") != 1 {
		t.Fatalf("challenger must hear about the decline")
	}
	if _, err := m.Decline(bo, ch.ID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("double decline: %v", err)
	}
	if _, err := m.RecordResult(ann, ch.ID, "Ann"); !errors.Is(err, ErrNotAccepted) {
		t.Fatalf("result on declined challenge: %v", err)
	}
}

func TestRecordResult(t *testing.T) {
	m, svc, _, _ := testFixture(t)
	archive := &archiveStub{}
	m.AttachArchive(archive)

	ch, err := m.Create(ann, "Bo", date, slot)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := m.RecordResult(ann, ch.ID, "Ann"); !errors.Is(err, ErrNotAccepted) {
		t.Fatalf("result before accept: %v", err)
	}
	if _, err := m.Accept(bo, ch.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := m.RecordResult(cy, ch.ID, "Ann"); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("bystander result: %v", err)
	}
	if _, err := m.RecordResult(ann, ch.ID, "Cy"); !errors.Is(err, ErrBadWinner) {
		t.Fatalf("winner outside the pair: %v", err)
	}

	got, err := m.RecordResult(ann, ch.ID, "Ann")
	if err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if got.Status != StatusCompleted || got.Result == nil || got.Result.Winner != "Ann" || got.Result.Loser != "Bo" {
		t.Fatalf("unexpected challenge: %+v", got)
	}

	rs := svc.ReservationsOn(date)
	if len(rs) != 1 || rs[0].Result == nil || rs[0].Result.Winner != "Ann" {
		t.Fatalf("reservation missing result: %+v", rs)
	}

	ladder := svc.Ladder()
	if len(ladder) != 2 || ladder[0].Player != "Ann" || ladder[0].Wins != 1 || ladder[1].Losses != 1 {
		t.Fatalf("ladder: %+v", ladder)
	}

	if len(archive.got) != 1 || archive.got[0].ID != ch.ID {
		t.Fatalf("archive not fed: %+v", archive.got)
	}
	if _, err := m.RecordResult(ann, ch.ID, "Ann"); !errors.Is(err, ErrNotAccepted) {
		t.Fatalf("double result: %v", err)
	}
}

func TestResultSurvivesClearedCourt(t *testing.T) {
	m, svc, _, _ := testFixture(t)
	ch, err := m.Create(ann, "Bo", date, slot)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Accept(bo, ch.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if err := svc.RemoveReservation(admin, date, slot, 1); err != nil {
		t.Fatalf("RemoveReservation: %v", err)
	}
	got, err := m.RecordResult(bo, ch.ID, "Bo")
	if err != nil {
		t.Fatalf("RecordResult after cleared court: %v", err)
	}
	if got.Status != StatusCompleted || got.Result.Winner != "Bo" {
		t.Fatalf("unexpected challenge: %+v", got)
	}
}

func TestByPlayer(t *testing.T) {
	m, _, _, _ := testFixture(t)
	if _, err := m.Create(ann, "Bo", date, slot); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := m.Create(cy, "Dex", date, slot); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := m.ByPlayer("Ann"); len(got) != 1 || got[0].To != "Bo" {
		t.Fatalf("ByPlayer Ann: %+v", got)
	}
	if got := m.ByPlayer("Dex"); len(got) != 1 || got[0].From != "Cy" {
		t.Fatalf("ByPlayer Dex: %+v", got)
	}
	if got := m.List(); len(got) != 2 {
		t.Fatalf("List: %d", len(got))
	}
}
