package challenge

import (
	"time"

	"github.com/bdevroede/courtplan/internal/schedule"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusCompleted Status = "completed"
)

// Challenge is one singles invitation between two club members. Accepting it
// books a court; recording the result completes it and feeds the ladder.
type Challenge struct {
	ID        string           `json:"id"`
	From      string           `json:"from"`
	To        string           `json:"to"`
	Date      string           `json:"date"`
	Slot      string           `json:"timeSlot"`
	Status    Status           `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	Result    *schedule.Result `json:"result,omitempty"`
}

func (c Challenge) involves(player string) bool {
	return c.From == player || c.To == player
}

func cloneChallenge(c Challenge) Challenge {
	if c.Result != nil {
		r := *c.Result
		c.Result = &r
	}
	return c
}
