package schedule

import (
	"github.com/bdevroede/courtplan/internal/roster"
)

// Court group patterns, alternating on the hour index across the whole
// season sequence (not reset per day). Position in the pattern is the court
// number minus one; 4 plays doubles, 2 plays singles.
var (
	groupsEven = []int{4, 4, 2}
	groupsOdd  = []int{4, 2, 2}
)

// groupsForHour sizes the pattern to the actual court count: fewer courts
// truncate it, extra courts beyond the pattern play singles.
func groupsForHour(hourIdx, courts int) []int {
	base := groupsOdd
	if hourIdx%2 == 0 {
		base = groupsEven
	}
	if courts <= len(base) {
		return base[:courts]
	}
	out := make([]int, courts)
	copy(out, base)
	for i := len(base); i < courts; i++ {
		out[i] = 2
	}
	return out
}

// Planner drives the pairing heuristic across the season grid. It is a pure
// orchestrator: it reads availability and history and produces reservations
// without touching shared state.
type Planner struct {
	roster *roster.Roster
	grid   Grid
	tie    TieBreak
}

func NewPlanner(r *roster.Roster, grid Grid, tie TieBreak) *Planner {
	if tie == nil {
		tie = NoTieBreak()
	}
	return &Planner{roster: r, grid: grid, tie: tie}
}

// PlanAll fills every hour of the season and returns the full training
// reservation set. history should be built from the reservations the new
// plan replaces.
func (p *Planner) PlanAll(avail Availability, history OpponentHistory) []Reservation {
	var out []Reservation
	for idx, hr := range p.grid.Hours() {
		out = append(out, p.planHour(hr, idx, avail, history)...)
	}
	return out
}

// PlanDate fills the hours of a single date, using the date's position in
// the season sequence so the court group alternation stays aligned with a
// full-season plan.
func (p *Planner) PlanDate(date string, avail Availability, history OpponentHistory) []Reservation {
	dateIdx := -1
	for i, d := range p.grid.Dates() {
		if d == date {
			dateIdx = i
			break
		}
	}
	if dateIdx < 0 {
		return nil
	}
	var out []Reservation
	for slotIdx, slot := range p.grid.Slots {
		hr := Hour{Date: date, Slot: slot.ID}
		hourIdx := dateIdx*len(p.grid.Slots) + slotIdx
		out = append(out, p.planHour(hr, hourIdx, avail, history)...)
	}
	return out
}

// planHour fills the courts of one hour greedily. Selected players leave
// the pool before the next court is considered, so a late court may find no
// valid group when the pool runs short; that court simply stays empty.
func (p *Planner) planHour(hr Hour, hourIdx int, avail Availability, history OpponentHistory) []Reservation {
	used := make(map[string]bool)
	var out []Reservation

	pool := func() []roster.Player {
		var c []roster.Player
		for _, pl := range p.roster.Players() {
			if used[pl.Name] {
				continue
			}
			if !avail.Available(hr.Date, hr.Slot, pl.Name) {
				continue
			}
			c = append(c, pl)
		}
		return c
	}

	for courtIdx, size := range groupsForHour(hourIdx, p.grid.Courts) {
		court := courtIdx + 1
		if size == 2 {
			pair, ok := PickSingles(pool(), history, p.tie)
			if !ok {
				continue
			}
			used[pair.A] = true
			used[pair.B] = true
			out = append(out, Reservation{
				Date:      hr.Date,
				Slot:      hr.Slot,
				Court:     court,
				MatchType: Single,
				Players:   []string{pair.A, pair.B},
				Origin:    OriginTraining,
			})
		} else {
			grp, ok := PickDoubles(pool(), history, p.tie)
			if !ok {
				continue
			}
			for _, name := range grp.Players() {
				used[name] = true
			}
			out = append(out, Reservation{
				Date:      hr.Date,
				Slot:      hr.Slot,
				Court:     court,
				MatchType: Double,
				Players:   grp.Players(),
				Origin:    OriginTraining,
			})
		}
	}
	return out
}
