package identity

import "github.com/bdevroede/courtplan/internal/roster"

// Actor is the player a request runs as. The zero value is an
// unauthenticated guest.
type Actor struct {
	Name  string
	Admin bool
}

// Authenticated reports whether the actor is a known, logged-in player.
func (a Actor) Authenticated() bool { return a.Name != "" }

// Provider resolves request identities against the roster. One player name
// carries the administrator flag.
type Provider struct {
	roster *roster.Roster
	admin  string
}

func NewProvider(r *roster.Roster, adminPlayer string) *Provider {
	return &Provider{roster: r, admin: adminPlayer}
}

// AdminName returns the configured administrator player.
func (p *Provider) AdminName() string { return p.admin }

// Resolve maps a claimed player name to an Actor. An empty name yields a
// guest; an unknown name yields false.
func (p *Provider) Resolve(name string) (Actor, bool) {
	if name == "" {
		return Actor{}, true
	}
	if !p.roster.Has(name) {
		return Actor{}, false
	}
	return Actor{Name: name, Admin: name == p.admin}, true
}
