package schedule

import "sort"

// LadderEntry aggregates one player's singles record.
type LadderEntry struct {
	Player  string `json:"player"`
	Wins    int    `json:"wins"`
	Losses  int    `json:"losses"`
	Matches int    `json:"matches"`
}

// ComputeLadder derives the club ladder from the reservation set: only
// singles with a recorded result contribute. Ordering is wins descending,
// then matches played descending, then name ascending, which makes the
// ranking a deterministic total order.
func ComputeLadder(reservations []Reservation) []LadderEntry {
	byName := make(map[string]*LadderEntry)
	entry := func(name string) *LadderEntry {
		e, ok := byName[name]
		if !ok {
			e = &LadderEntry{Player: name}
			byName[name] = e
		}
		return e
	}

	for _, r := range reservations {
		if r.MatchType != Single || r.Result == nil {
			continue
		}
		w := entry(r.Result.Winner)
		w.Wins++
		w.Matches++
		l := entry(r.Result.Loser)
		l.Losses++
		l.Matches++
	}

	out := make([]LadderEntry, 0, len(byName))
	for _, e := range byName {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		if out[i].Matches != out[j].Matches {
			return out[i].Matches > out[j].Matches
		}
		return out[i].Player < out[j].Player
	})
	return out
}

// Ladder returns the current club ladder.
func (s *Service) Ladder() []LadderEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeLadder(s.reservations)
}
