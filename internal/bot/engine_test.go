package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

// calmRand never fires events or detection and always takes the lowest roll.
type calmRand struct{}

func (calmRand) Float64() float64 { return 0.99 }
func (calmRand) Intn(int) int     { return 0 }

// directTable runs callbacks against a game with no locking.
type directTable struct{ g *campaign.Game }

func (d directTable) Do(fn func(g *campaign.Game) error) error { return fn(d.g) }

// opponentToMove starts a game and hands the first turn to the opponent.
func opponentToMove(t *testing.T, budget int) *campaign.Game {
	t.Helper()
	g := campaign.NewGame(campaign.NewGameState(campaign.DefaultRegions()), calmRand{}, campaign.FixedBudget(budget))
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := g.EndTurn(campaign.Primary); err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	return g
}

func TestPlayTurnSpendsBudgetAndHandsBack(t *testing.T) {
	SeedBotRng(1)
	defer ResetBotRng()

	g := opponentToMove(t, 3)
	e := NewEngine(Medium, "", NoDelay{}, 0)
	report, err := e.PlayTurn(context.Background(), directTable{g}, campaign.Opponent)
	if err != nil {
		t.Fatalf("PlayTurn: %v", err)
	}
	if len(report.Steps) != 3 {
		t.Errorf("steps = %d, want 3", len(report.Steps))
	}
	gs := g.State()
	if gs.Current != campaign.Primary || gs.Turn != 2 {
		t.Errorf("current = %s turn = %d", gs.Current, gs.Turn)
	}
	if report.Summary() == "" {
		t.Error("empty summary")
	}
}

func TestPlayTurnBrokeOpponentPasses(t *testing.T) {
	g := opponentToMove(t, 2)
	g.State().Opponent.Funds = 0

	report, err := NewEngine(Easy, "", NoDelay{}, 0).PlayTurn(context.Background(), directTable{g}, campaign.Opponent)
	if err != nil {
		t.Fatalf("PlayTurn: %v", err)
	}
	if len(report.Steps) != 0 {
		t.Errorf("broke opponent took %d actions", len(report.Steps))
	}
	if g.State().Current != campaign.Primary {
		t.Error("turn was not handed back")
	}
}

// exposedRand fires every roll and takes the lowest value.
type exposedRand struct{}

func (exposedRand) Float64() float64 { return 0 }
func (exposedRand) Intn(int) int     { return 0 }

func TestPlayTurnBrokeOpponentLeavesRegionsAlone(t *testing.T) {
	g := campaign.NewGame(campaign.NewGameState(campaign.DefaultRegions()), exposedRand{}, campaign.FixedBudget(2))
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := g.EndTurn(campaign.Primary); err != nil {
		t.Fatalf("EndTurn: %v", err)
	}
	gs := g.State()
	gs.Opponent.Funds = 50_000
	gs.OpponentShadow.Allocation = 28

	before := make(map[string]float64, len(gs.Regions))
	for _, r := range gs.Regions {
		before[r.ID] = r.OpponentSupport
	}

	report, err := NewEngine(Easy, Reckless, NoDelay{}, 0).PlayTurn(context.Background(), directTable{g}, campaign.Opponent)
	if err != nil {
		t.Fatalf("PlayTurn: %v", err)
	}
	if len(report.Steps) != 0 || report.Allocation != 0 {
		t.Errorf("steps = %d allocation = %v, want a silent pass", len(report.Steps), report.Allocation)
	}
	if n := len(gs.OpponentShadow.Scandals); n != 0 {
		t.Errorf("scandals = %d, want none", n)
	}
	for _, r := range gs.Regions {
		if r.OpponentSupport != before[r.ID] {
			t.Errorf("%s opponent support %v -> %v", r.ID, before[r.ID], r.OpponentSupport)
		}
	}
	if gs.Current != campaign.Primary {
		t.Error("turn was not handed back")
	}
}

func TestPlayTurnNotOurTurn(t *testing.T) {
	g := opponentToMove(t, 2)
	report, err := NewEngine(Medium, "", NoDelay{}, 0).PlayTurn(context.Background(), directTable{g}, campaign.Primary)
	if err != nil {
		t.Fatalf("PlayTurn: %v", err)
	}
	if len(report.Steps) != 0 || g.State().Current != campaign.Opponent {
		t.Error("engine acted out of turn")
	}
}

func TestPlayTurnCancelled(t *testing.T) {
	g := opponentToMove(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(Medium, "", NoDelay{}, 0).PlayTurn(ctx, directTable{g}, campaign.Opponent)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if g.State().Current != campaign.Opponent {
		t.Error("cancelled turn should not be ended")
	}
}

func TestPlayTurnHardRunsCovertOp(t *testing.T) {
	SeedBotRng(7)
	defer ResetBotRng()

	g := opponentToMove(t, 1)
	report, err := NewEngine(Hard, Reckless, NoDelay{}, 0).PlayTurn(context.Background(), directTable{g}, campaign.Opponent)
	if err != nil {
		t.Fatalf("PlayTurn: %v", err)
	}
	if report.Allocation < 15 {
		t.Errorf("reckless allocation = %v", report.Allocation)
	}
	if report.CovertOp == nil || report.CovertOp.Op != campaign.OppositionDirt {
		t.Errorf("covert op = %+v", report.CovertOp)
	}
}

func TestRealClockHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := (RealClock{}).Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("sleep ignored cancellation")
	}
	if err := (RealClock{}).Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("short sleep: %v", err)
	}
}

func TestPersonalityAllocation(t *testing.T) {
	SeedBotRng(3)
	defer ResetBotRng()

	gs := stateWithLead(0)
	tests := []struct {
		p      Personality
		lo, hi float64
	}{
		{Moralist, 0, 4},
		{Cautious, 8, 12},
		{Reckless, 15, 20},
	}
	for _, tt := range tests {
		for range 20 {
			if a := tt.p.Allocation(gs, campaign.Opponent); a < tt.lo || a > tt.hi {
				t.Fatalf("%s allocation %v outside [%v,%v]", tt.p, a, tt.lo, tt.hi)
			}
		}
	}

	losing := stateWithLead(-20)
	if a := Reckless.Allocation(losing, campaign.Opponent); a < 22 {
		t.Errorf("losing reckless allocation = %v", a)
	}
	losing.Shadow(campaign.Opponent).Caught = true
	if a := Machiavellian.Allocation(losing, campaign.Opponent); a != 0 {
		t.Errorf("caught allocation = %v", a)
	}
}

func TestPickCovertOp(t *testing.T) {
	gs := stateWithLead(0)
	shadow := gs.Shadow(campaign.Opponent)

	shadow.Allocation = 30
	if op, ok := pickCovertOp(gs, campaign.Opponent); !ok || op != campaign.OppositionDirt {
		t.Errorf("got %s ok=%v", op, ok)
	}

	shadow.Allocation = 10
	if op, _ := pickCovertOp(gs, campaign.Opponent); op != campaign.MediaManipulation {
		t.Errorf("allocation 10: got %s", op)
	}

	gs.Shadow(campaign.Primary).Integrity.Shield = true
	if op, _ := pickCovertOp(gs, campaign.Opponent); op != campaign.Sabotage {
		t.Errorf("shielded rival: got %s", op)
	}

	gs.Opponent.Funds = 1_000_000
	if _, ok := pickCovertOp(gs, campaign.Opponent); ok {
		t.Error("should not spend without a reserve")
	}
}

func TestParseDifficulty(t *testing.T) {
	if d, err := ParseDifficulty(""); err != nil || d != Medium {
		t.Errorf("empty: %s %v", d, err)
	}
	if _, err := ParseDifficulty("nightmare"); err == nil {
		t.Error("expected error")
	}
	if NewEngine(Expert, "", nil, 0).Personality != Machiavellian {
		t.Error("expert should default to machiavellian")
	}
}
