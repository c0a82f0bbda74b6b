package identity

import (
	"testing"

	"github.com/bdevroede/courtplan/internal/roster"
)

func TestResolve(t *testing.T) {
	r, err := roster.Load()
	if err != nil {
		t.Fatalf("roster.Load: %v", err)
	}
	p := NewProvider(r, "Mattias")

	guest, ok := p.Resolve("")
	if !ok || guest.Authenticated() {
		t.Fatalf("empty name must resolve to a guest: %+v ok=%v", guest, ok)
	}
	if _, ok := p.Resolve("Zorro"); ok {
		t.Fatalf("unknown name must not resolve")
	}
	a, ok := p.Resolve("Aaron")
	if !ok || !a.Authenticated() || a.Admin {
		t.Fatalf("regular player: %+v ok=%v", a, ok)
	}
	m, ok := p.Resolve("Mattias")
	if !ok || !m.Admin {
		t.Fatalf("admin player: %+v ok=%v", m, ok)
	}
	if p.AdminName() != "Mattias" {
		t.Fatalf("AdminName: %s", p.AdminName())
	}
}
