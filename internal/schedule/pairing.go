package schedule

import (
	"math"
	"math/rand"
	"sort"

	"github.com/bdevroede/courtplan/internal/roster"
)

// Cost weights. The repetition penalty for singles dominates the skill-gap
// penalty so the heuristic avoids rematches before it optimizes parity.
const (
	singlesSkillWeight      = 12
	singlesRepetitionWeight = 60
	doublesSkillWeight      = 15
)

// TieBreak supplies the small random term added to every candidate cost so
// repeated planning runs do not lock onto one assignment. Tests inject
// NoTieBreak for deterministic ranking.
type TieBreak func() float64

// RandomTieBreak returns a tie-break source drawing uniformly from [0, 0.5).
func RandomTieBreak(rng *rand.Rand) TieBreak {
	return func() float64 { return rng.Float64() * 0.5 }
}

// NoTieBreak disables the random term.
func NoTieBreak() TieBreak {
	return func() float64 { return 0 }
}

// SinglesPair is a balanced pair of opponents.
type SinglesPair struct {
	A, B string
}

// DoublesGroup is a four-some split into two teams of two.
type DoublesGroup struct {
	TeamA [2]string
	TeamB [2]string
}

// Players returns the group in reservation order: team A then team B.
func (g DoublesGroup) Players() []string {
	return []string{g.TeamA[0], g.TeamA[1], g.TeamB[0], g.TeamB[1]}
}

// PickSingles selects the pair from pool minimizing
// 12*|scoreA-scoreB| + 60*priorMatches + tie(). Returns false when fewer
// than two players remain; that is a normal outcome, not an error.
func PickSingles(pool []roster.Player, history OpponentHistory, tie TieBreak) (SinglesPair, bool) {
	if len(pool) < 2 {
		return SinglesPair{}, false
	}
	cand := make([]roster.Player, len(pool))
	copy(cand, pool)
	sort.SliceStable(cand, func(i, j int) bool { return cand[i].Score < cand[j].Score })

	best := SinglesPair{}
	bestCost := math.Inf(1)
	for i := 0; i < len(cand)-1; i++ {
		for j := i + 1; j < len(cand); j++ {
			a, b := cand[i], cand[j]
			cost := float64(singlesSkillWeight*abs(a.Score-b.Score)) +
				float64(singlesRepetitionWeight*history.Matches(a.Name, b.Name)) +
				tie()
			if cost < bestCost {
				bestCost = cost
				best = SinglesPair{A: a.Name, B: b.Name}
			}
		}
	}
	return best, true
}

// PickDoubles selects the 4-subset of pool and the team split minimizing
// 15*|teamSumA-teamSumB| + sum of cross-team prior matches + tie(). For each
// subset all three splits are scored; partner repetition within a team is
// not penalized. Returns false when fewer than four players remain.
func PickDoubles(pool []roster.Player, history OpponentHistory, tie TieBreak) (DoublesGroup, bool) {
	if len(pool) < 4 {
		return DoublesGroup{}, false
	}

	best := DoublesGroup{}
	bestCost := math.Inf(1)
	n := len(pool)
	for i := 0; i < n-3; i++ {
		for j := i + 1; j < n-2; j++ {
			for k := j + 1; k < n-1; k++ {
				for l := k + 1; l < n; l++ {
					quad := [4]roster.Player{pool[i], pool[j], pool[k], pool[l]}
					for _, split := range [3][2][2]int{
						{{0, 1}, {2, 3}},
						{{0, 2}, {1, 3}},
						{{0, 3}, {1, 2}},
					} {
						x1, x2 := quad[split[0][0]], quad[split[0][1]]
						y1, y2 := quad[split[1][0]], quad[split[1][1]]
						cost := float64(doublesSkillWeight*abs(x1.Score+x2.Score-y1.Score-y2.Score)) +
							float64(history.Matches(x1.Name, y1.Name)+
								history.Matches(x1.Name, y2.Name)+
								history.Matches(x2.Name, y1.Name)+
								history.Matches(x2.Name, y2.Name)) +
							tie()
						if cost < bestCost {
							bestCost = cost
							best = DoublesGroup{
								TeamA: [2]string{x1.Name, x2.Name},
								TeamB: [2]string{y1.Name, y2.Name},
							}
						}
					}
				}
			}
		}
	}
	return best, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
