package schedule

import (
	"fmt"
	"time"
)

// DateFormat is the canonical yyyy-mm-dd encoding used for reservation and
// availability keys.
const DateFormat = "2006-01-02"

type MatchType string

const (
	Single MatchType = "single"
	Double MatchType = "double"
)

// PlayerCount returns the number of players a match of this type holds.
func (t MatchType) PlayerCount() int {
	if t == Double {
		return 4
	}
	return 2
}

// Origin tags how a reservation came to be.
type Origin string

const (
	OriginTraining  Origin = "training"
	OriginChallenge Origin = "challenge"
)

// TimeSlot is a fixed named time window within a play day.
type TimeSlot struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// DefaultSlots are the club's two evening hours.
var DefaultSlots = []TimeSlot{
	{ID: "18u30-19u30", Label: "18u30-19u30"},
	{ID: "19u30-20u30", Label: "19u30-20u30"},
}

// Result records the outcome of a singles match.
type Result struct {
	Winner string `json:"winner"`
	Loser  string `json:"loser"`
}

// Reservation is one committed court booking. The (Date, Slot, Court) triple
// is unique. Players holds 2 names for singles (the opponents) or 4 for
// doubles (positions 0,1 and 2,3 are the team pairs).
type Reservation struct {
	Date        string    `json:"date"`
	Slot        string    `json:"timeSlot"`
	Court       int       `json:"court"`
	MatchType   MatchType `json:"matchType"`
	Players     []string  `json:"players"`
	Origin      Origin    `json:"origin"`
	ChallengeID string    `json:"challengeId,omitempty"`
	Result      *Result   `json:"result,omitempty"`
}

// Key identifies the court cell a reservation occupies.
func (r Reservation) Key() string {
	return fmt.Sprintf("%s-%s-%d", r.Date, r.Slot, r.Court)
}

// Hour is one (date, slot) pair, the unit over which courts are filled.
type Hour struct {
	Date string
	Slot string
}

// Grid is the fixed slot and court topology of a season.
type Grid struct {
	Start  time.Time // first play day
	Weeks  int
	Slots  []TimeSlot
	Courts int
}

// NewGrid builds a season grid. Start is truncated to its date.
func NewGrid(start time.Time, weeks int, slots []TimeSlot, courts int) Grid {
	return Grid{
		Start:  time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		Weeks:  weeks,
		Slots:  slots,
		Courts: courts,
	}
}

// Dates returns all play dates of the season in order.
func (g Grid) Dates() []string {
	out := make([]string, 0, g.Weeks)
	for i := 0; i < g.Weeks; i++ {
		out = append(out, g.Start.AddDate(0, 0, 7*i).Format(DateFormat))
	}
	return out
}

// HasDate reports whether date is one of the season's play dates.
func (g Grid) HasDate(date string) bool {
	for _, d := range g.Dates() {
		if d == date {
			return true
		}
	}
	return false
}

// HasSlot reports whether id names one of the grid's time slots.
func (g Grid) HasSlot(id string) bool {
	for _, s := range g.Slots {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Hours returns every (date, slot) pair of the season in planning order:
// all slots of the first date, then the next date, and so on. The index of
// an hour in this sequence drives the court group pattern.
func (g Grid) Hours() []Hour {
	out := make([]Hour, 0, g.Weeks*len(g.Slots))
	for _, d := range g.Dates() {
		for _, s := range g.Slots {
			out = append(out, Hour{Date: d, Slot: s.ID})
		}
	}
	return out
}

// pairKey normalizes an unordered player pair to a stable map key.
func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}
