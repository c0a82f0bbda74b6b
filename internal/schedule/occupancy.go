package schedule

// playersBooked returns every player holding a reservation at (date, slot),
// scanned from the committed set. No cache is kept; the reservation slice is
// the single source of truth.
func playersBooked(reservations []Reservation, date, slot string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, r := range reservations {
		if r.Date != date || r.Slot != slot {
			continue
		}
		for _, p := range r.Players {
			out[p] = struct{}{}
		}
	}
	return out
}

// freeCourt returns the lowest-numbered court at (date, slot) without a
// reservation, or false when every court is taken.
func freeCourt(reservations []Reservation, date, slot string, courts int) (int, bool) {
	taken := make(map[int]bool, courts)
	for _, r := range reservations {
		if r.Date == date && r.Slot == slot {
			taken[r.Court] = true
		}
	}
	for c := 1; c <= courts; c++ {
		if !taken[c] {
			return c, true
		}
	}
	return 0, false
}
