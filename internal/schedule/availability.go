package schedule

// Availability maps date -> slot -> player -> flag. A missing entry means
// available; only an explicit false marks a player out. The nested shape
// round-trips the persisted JSON collection unchanged.
type Availability map[string]map[string]map[string]bool

// Available reports whether player may be scheduled at (date, slot).
func (a Availability) Available(date, slot, player string) bool {
	v, ok := a[date][slot][player]
	return !ok || v
}

// Set marks player as available or not for (date, slot).
func (a Availability) Set(date, slot, player string, available bool) {
	if a[date] == nil {
		a[date] = make(map[string]map[string]bool)
	}
	if a[date][slot] == nil {
		a[date][slot] = make(map[string]bool)
	}
	a[date][slot][player] = available
}

// Clone deep-copies the availability mapping.
func (a Availability) Clone() Availability {
	out := make(Availability, len(a))
	for d, slots := range a {
		out[d] = make(map[string]map[string]bool, len(slots))
		for s, players := range slots {
			m := make(map[string]bool, len(players))
			for p, v := range players {
				m[p] = v
			}
			out[d][s] = m
		}
	}
	return out
}
