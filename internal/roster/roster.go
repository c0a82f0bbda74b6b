package roster

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

//go:embed players.yaml
var defaultFiles embed.FS

// Player is a club member with a static skill score.
type Player struct {
	Name  string `yaml:"name" json:"name"`
	Score int    `yaml:"score" json:"score"`
}

// Roster is the immutable set of club players, loaded once at startup.
// Order is the declaration order of the source file and is stable.
type Roster struct {
	players []Player
	scores  map[string]int
}

type rosterFile struct {
	Players []Player `yaml:"players"`
}

// Load reads the embedded default roster.
func Load() (*Roster, error) {
	raw, err := fs.ReadFile(defaultFiles, "players.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded roster: %w", err)
	}
	return Parse(raw)
}

// LoadFile reads a roster from an external YAML file.
func LoadFile(path string) (*Roster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}
	return Parse(raw)
}

// Parse builds a Roster from YAML bytes. Duplicate or blank names are
// rejected.
func Parse(raw []byte) (*Roster, error) {
	var f rosterFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if len(f.Players) == 0 {
		return nil, fmt.Errorf("roster is empty")
	}
	r := &Roster{scores: make(map[string]int, len(f.Players))}
	for _, p := range f.Players {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("roster contains a player without a name")
		}
		if _, dup := r.scores[name]; dup {
			return nil, fmt.Errorf("duplicate player %q in roster", name)
		}
		r.players = append(r.players, Player{Name: name, Score: p.Score})
		r.scores[name] = p.Score
	}
	return r, nil
}

// Has reports whether name is a roster player.
func (r *Roster) Has(name string) bool {
	_, ok := r.scores[name]
	return ok
}

// ScoreOf returns the skill score for name, 0 when unknown.
func (r *Roster) ScoreOf(name string) int {
	return r.scores[name]
}

// Players returns the players in roster order.
func (r *Roster) Players() []Player {
	out := make([]Player, len(r.players))
	copy(out, r.players)
	return out
}

// Names returns the player names in roster order.
func (r *Roster) Names() []string {
	out := make([]string, len(r.players))
	for i, p := range r.players {
		out[i] = p.Name
	}
	return out
}

// Len returns the roster size.
func (r *Roster) Len() int { return len(r.players) }
