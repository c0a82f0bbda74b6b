package schedule

// OpponentHistory counts prior head-to-head matches per unordered player
// pair. It is derived from the committed reservation set, never stored.
type OpponentHistory map[string]int

// BuildHistory recomputes opponent counts from reservations. When
// excludeDate is non-empty, reservations on that date are skipped, which is
// how single-week replanning forgets the week being replaced.
func BuildHistory(reservations []Reservation, excludeDate string) OpponentHistory {
	h := make(OpponentHistory)
	for _, r := range reservations {
		if excludeDate != "" && r.Date == excludeDate {
			continue
		}
		switch r.MatchType {
		case Single:
			if len(r.Players) >= 2 {
				h[pairKey(r.Players[0], r.Players[1])]++
			}
		case Double:
			if len(r.Players) >= 4 {
				// Cross-team opponent pairs only; partners are not counted.
				for _, a := range r.Players[:2] {
					for _, b := range r.Players[2:4] {
						h[pairKey(a, b)]++
					}
				}
			}
		}
	}
	return h
}

// Matches returns the number of prior matches between a and b.
func (h OpponentHistory) Matches(a, b string) int {
	return h[pairKey(a, b)]
}
