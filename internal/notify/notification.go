package notify

import (
	"encoding/json"
	"fmt"
	"time"
)

// Notification is one inbox entry for one player. The Event payload is
// serialized under "payload" and resolved back to its concrete type by kind.
type Notification struct {
	ID        string
	Player    string
	Kind      string
	Text      string
	Read      bool
	CreatedAt time.Time
	Event     Event
}

type notificationWire struct {
	ID        string          `json:"id"`
	Player    string          `json:"player"`
	Kind      string          `json:"kind"`
	Text      string          `json:"text"`
	Read      bool            `json:"read"`
	CreatedAt time.Time       `json:"createdAt"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func (n Notification) MarshalJSON() ([]byte, error) {
	w := notificationWire{
		ID:        n.ID,
		Player:    n.Player,
		Kind:      n.Kind,
		Text:      n.Text,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.Event != nil {
		raw, err := json.Marshal(n.Event)
		if err != nil {
			return nil, err
		}
		w.Payload = raw
	}
	return json.Marshal(w)
}

func (n *Notification) UnmarshalJSON(b []byte) error {
	var w notificationWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	n.ID = w.ID
	n.Player = w.Player
	n.Kind = w.Kind
	n.Text = w.Text
	n.Read = w.Read
	n.CreatedAt = w.CreatedAt
	n.Event = nil
	if len(w.Payload) == 0 {
		return nil
	}
	ev, err := decodeEvent(w.Kind, w.Payload)
	if err != nil {
		return err
	}
	n.Event = ev
	return nil
}

func decodeEvent(kind string, raw json.RawMessage) (Event, error) {
	switch kind {
	case KindChallenge:
		var ev ChallengeReceived
		return ev, json.Unmarshal(raw, &ev)
	case KindChallengeSent:
		var ev ChallengeSent
		return ev, json.Unmarshal(raw, &ev)
	case KindChallengeAccepted:
		var ev ChallengeAccepted
		return ev, json.Unmarshal(raw, &ev)
	case KindChallengeDeclined:
		var ev ChallengeDeclined
		return ev, json.Unmarshal(raw, &ev)
	case KindMatchReminder:
		var ev MatchReminder
		return ev, json.Unmarshal(raw, &ev)
	case KindMatchResult:
		var ev MatchResult
		return ev, json.Unmarshal(raw, &ev)
	default:
		return nil, fmt.Errorf("unknown notification kind: %s", kind)
	}
}
