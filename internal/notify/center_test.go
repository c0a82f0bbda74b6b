package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bdevroede/courtplan/internal/msgcat"
)

type memorySaver struct {
	last  []Notification
	calls int
}

func (s *memorySaver) SaveNotifications(_ context.Context, items []Notification) error {
	s.last = items
	s.calls++
	return nil
}

type captureSink struct{ got []Notification }

func (s *captureSink) Deliver(n Notification) { s.got = append(s.got, n) }

func testCatalog(t *testing.T) *msgcat.Catalog {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	return cat
}

func TestPushAndUnread(t *testing.T) {
	saver := &memorySaver{}
	sink := &captureSink{}
	c := NewCenter(testCatalog(t), saver)
	c.AddSink(sink)

	c.Push("Ruben", ChallengeReceived{From: "Aaron", To: "Ruben", Date: "2025-09-28", Slot: "18u30-19u30", ChallengeID: "ch-1"})
	c.PushRead("Aaron", ChallengeSent{From: "Aaron", To: "Ruben", Date: "2025-09-28", Slot: "18u30-19u30", ChallengeID: "ch-1"})

	if got := c.Unread("Ruben"); got != 1 {
		t.Fatalf("Ruben unread = %d, want 1", got)
	}
	if got := c.Unread("Aaron"); got != 0 {
		t.Fatalf("acknowledgements are born read, Aaron unread = %d", got)
	}
	if len(c.For("Aaron")) != 1 {
		t.Fatalf("born-read entries still land in the inbox")
	}
	if len(sink.got) != 2 {
		t.Fatalf("sink deliveries = %d, want 2", len(sink.got))
	}
	if saver.calls != 2 {
		t.Fatalf("persist calls = %d, want 2", saver.calls)
	}
	if sink.got[0].Text == "" || sink.got[0].Text == KindChallenge {
		t.Fatalf("text not rendered from catalog: %q", sink.got[0].Text)
	}
}

func TestMarkAllRead(t *testing.T) {
	saver := &memorySaver{}
	c := NewCenter(testCatalog(t), saver)
	c.Push("Ruben", MatchResult{Winner: "Aaron", Loser: "Ruben", Date: "2025-09-28"})
	c.Push("Ruben", MatchReminder{Player: "Ruben", Date: "2025-09-28", Slot: "18u30-19u30", Court: 1})
	c.Push("Aaron", MatchResult{Winner: "Aaron", Loser: "Ruben", Date: "2025-09-28"})

	persisted := saver.calls
	if got := c.MarkAllRead("Ruben"); got != 2 {
		t.Fatalf("marked = %d, want 2", got)
	}
	if c.Unread("Ruben") != 0 {
		t.Fatalf("unread should be 0 after mark-all-read")
	}
	if c.Unread("Aaron") != 1 {
		t.Fatalf("other inboxes must be untouched")
	}
	if saver.calls != persisted+1 {
		t.Fatalf("mark-all-read must persist once")
	}
	if got := c.MarkAllRead("Ruben"); got != 0 {
		t.Fatalf("second mark-all-read marked %d", got)
	}
	if saver.calls != persisted+1 {
		t.Fatalf("no-op mark-all-read must not persist")
	}
}

func TestNewestFirst(t *testing.T) {
	c := NewCenter(nil, nil)
	c.Push("Ruben", MatchResult{Winner: "A", Loser: "Ruben", Date: "2025-09-28"})
	c.Push("Ruben", MatchResult{Winner: "B", Loser: "Ruben", Date: "2025-10-05"})

	list := c.For("Ruben")
	if len(list) != 2 {
		t.Fatalf("len = %d", len(list))
	}
	ev := list[0].Event.(MatchResult)
	if ev.Winner != "B" {
		t.Fatalf("expected newest first, got %+v", ev)
	}
}

func TestNotificationJSONRoundTrip(t *testing.T) {
	c := NewCenter(testCatalog(t), nil)
	orig := c.Push("Ruben", ChallengeAccepted{
		From: "Aaron", To: "Ruben", Date: "2025-09-28", Slot: "18u30-19u30", Court: 2, ChallengeID: "ch-9",
	})

	raw, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Notification
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ev, ok := back.Event.(ChallengeAccepted)
	if !ok {
		t.Fatalf("payload type lost: %T", back.Event)
	}
	if ev.Court != 2 || ev.ChallengeID != "ch-9" {
		t.Fatalf("payload fields lost: %+v", ev)
	}
	if back.Kind != KindChallengeAccepted || back.Read {
		t.Fatalf("envelope fields lost: %+v", back)
	}

	var wire map[string]any
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("wire: %v", err)
	}
	payload, ok := wire["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload not an object: %v", wire["payload"])
	}
	if payload["timeSlot"] != "18u30-19u30" || payload["challengeId"] != "ch-9" {
		t.Fatalf("wire keys wrong: %v", payload)
	}
}
