package campaign

import "math/rand"

// fixedRand returns the same draw every time, which makes single steps of the
// engine predictable.
type fixedRand struct {
	f float64
	i int
}

func (r fixedRand) Float64() float64 { return r.f }

func (r fixedRand) Intn(n int) int {
	if r.i >= n {
		return n - 1
	}
	return r.i
}

// quiet never fires events or detection rolls.
var quiet = fixedRand{f: 0.99}

func newTestGame(rng Rand, budget int) *Game {
	gs := NewGameState(DefaultRegions())
	return NewGame(gs, rng, FixedBudget(budget))
}

func startedGame(t interface{ Fatalf(string, ...any) }, rng Rand, budget int) *Game {
	g := newTestGame(rng, budget)
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return g
}

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
