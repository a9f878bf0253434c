package bot

import (
	"testing"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

// stateWithLead builds a race where the opponent leads by lead electoral votes,
// plus one tied battleground worth ten.
func stateWithLead(lead int) *campaign.GameState {
	p, o := 0, 0
	if lead >= 0 {
		o = lead
	} else {
		p = -lead
	}
	gs := campaign.NewGameState([]campaign.Region{
		{ID: "PP", ElectoralVotes: p, PrimarySupport: 60, OpponentSupport: 30},
		{ID: "OO", ElectoralVotes: o, PrimarySupport: 30, OpponentSupport: 60},
		{ID: "BB", ElectoralVotes: 10, PrimarySupport: 45, OpponentSupport: 45},
	})
	gs.Phase = campaign.PhasePlaying
	return gs
}

func TestChooseStrategy(t *testing.T) {
	tests := []struct {
		name  string
		d     Difficulty
		funds float64
		lead  int
		turn  int
		want  Kind
	}{
		{"broke", Medium, 1_000_000, 0, 5, Fundraising},
		{"easy refills earlier", Easy, 4_000_000, 0, 5, Fundraising},
		{"hard tolerates lower funds", Hard, 2_500_000, 0, 5, Aggressive},
		{"hard late rich", Hard, 20_000_000, 0, 15, MultiState},
		{"medium never multi", Medium, 20_000_000, 0, 15, Aggressive},
		{"commanding lead", Medium, 50_000_000, 60, 5, Defensive},
		{"desperate late", Medium, 50_000_000, -40, 15, Aggressive},
		{"early deficit", Medium, 50_000_000, -10, 2, Balanced},
		{"close race", Medium, 50_000_000, 10, 8, Aggressive},
		{"comfortable", Medium, 50_000_000, 40, 8, Balanced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := stateWithLead(tt.lead)
			gs.Turn = tt.turn
			gs.Opponent.Funds = tt.funds
			if got := ChooseStrategy(gs, campaign.Opponent, tt.d); got != tt.want {
				t.Errorf("ChooseStrategy = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAggressiveTargetsCheapestGain(t *testing.T) {
	gs := campaign.NewGameState([]campaign.Region{
		{ID: "XX", ElectoralVotes: 20, PrimarySupport: 48, OpponentSupport: 44},
		{ID: "YY", ElectoralVotes: 10, PrimarySupport: 45, OpponentSupport: 45},
		{ID: "ZZ", ElectoralVotes: 50, PrimarySupport: 70, OpponentSupport: 20},
	})
	a, ok := StrategyFor(Aggressive).Plan(gs, campaign.Opponent, Medium)
	if !ok {
		t.Fatal("expected an action")
	}
	if a.Type != campaign.AdCampaign || len(a.Regions) != 1 || a.Regions[0] != "YY" {
		t.Errorf("got %s %v", a.Type, a.Regions)
	}
}

func TestAggressiveSkipsRegionsAlreadyHeld(t *testing.T) {
	gs := campaign.NewGameState(campaign.DefaultRegions())
	a, ok := StrategyFor(Aggressive).Plan(gs, campaign.Opponent, Medium)
	if !ok {
		t.Fatal("expected an action")
	}
	if !a.Type.Regional() {
		return
	}
	r := gs.Region(a.Regions[0])
	if r.Margin(campaign.Opponent) > 0 && !r.IsBattleground() {
		t.Errorf("targeted %s, already led by %v", r.ID, r.Margin(campaign.Opponent))
	}

	held := campaign.NewGameState([]campaign.Region{
		{ID: "TX", ElectoralVotes: 40, PrimarySupport: 40, OpponentSupport: 49},
		{ID: "OH", ElectoralVotes: 17, PrimarySupport: 46, OpponentSupport: 44},
		{ID: "NV", ElectoralVotes: 6, PrimarySupport: 47, OpponentSupport: 43},
	})
	a, ok = StrategyFor(Aggressive).Plan(held, campaign.Opponent, Medium)
	if !ok || len(a.Regions) != 1 || a.Regions[0] != "OH" {
		t.Errorf("got %s %v ok=%v, want OH", a.Type, a.Regions, ok)
	}
}

func TestAggressiveFallsBackToCheaperAction(t *testing.T) {
	gs := campaign.NewGameState([]campaign.Region{
		{ID: "YY", ElectoralVotes: 10, PrimarySupport: 45, OpponentSupport: 45},
	})
	gs.Opponent.Funds = 1_000_000
	a, ok := StrategyFor(Aggressive).Plan(gs, campaign.Opponent, Medium)
	if !ok || a.Type != campaign.Rally {
		t.Errorf("got %s ok=%v, want rally", a.Type, ok)
	}
}

func TestDefensiveShoresUpNarrowLeads(t *testing.T) {
	gs := campaign.NewGameState([]campaign.Region{
		{ID: "XX", ElectoralVotes: 20, PrimarySupport: 44, OpponentSupport: 48},
		{ID: "YY", ElectoralVotes: 10, PrimarySupport: 45, OpponentSupport: 47},
		{ID: "SF", ElectoralVotes: 30, PrimarySupport: 20, OpponentSupport: 70},
	})
	a, ok := StrategyFor(Defensive).Plan(gs, campaign.Opponent, Medium)
	if !ok || a.Type != campaign.TownHall || a.Regions[0] != "XX" {
		t.Errorf("got %s %v ok=%v", a.Type, a.Regions, ok)
	}

	gs.Regions = gs.Regions[2:]
	if _, ok := StrategyFor(Defensive).Plan(gs, campaign.Opponent, Medium); ok {
		t.Error("no narrow leads should mean no defensive action")
	}
}

func TestBalancedUsesEffectivenessOnHard(t *testing.T) {
	var eff campaign.Effectiveness
	eff[campaign.Rally] = 1
	eff[campaign.AdCampaign] = 1
	eff[campaign.TownHall] = 2
	eff[campaign.Grassroots] = 3
	gs := campaign.NewGameState([]campaign.Region{
		{ID: "XX", ElectoralVotes: 20, PrimarySupport: 45, OpponentSupport: 46, Effectiveness: eff},
	})

	a, ok := StrategyFor(Balanced).Plan(gs, campaign.Opponent, Hard)
	if !ok || a.Type != campaign.Grassroots {
		t.Errorf("hard: got %s ok=%v, want grassroots", a.Type, ok)
	}
	a, ok = StrategyFor(Balanced).Plan(gs, campaign.Opponent, Medium)
	if !ok || a.Type != campaign.Rally {
		t.Errorf("medium: got %s ok=%v, want rally", a.Type, ok)
	}
}

func TestFundraisingStrategy(t *testing.T) {
	gs := stateWithLead(0)
	gs.Opponent.Funds = 2_000_000
	a, ok := StrategyFor(Fundraising).Plan(gs, campaign.Opponent, Medium)
	if !ok || a.Type != campaign.Fundraiser {
		t.Errorf("got %s ok=%v", a.Type, ok)
	}

	gs.Opponent.Funds = 50_000
	if _, ok := StrategyFor(Fundraising).Plan(gs, campaign.Opponent, Medium); ok {
		t.Error("a broke campaign should have nothing to play")
	}
}

func TestMultiStateWidth(t *testing.T) {
	gs := campaign.NewGameState([]campaign.Region{
		{ID: "AA", ElectoralVotes: 30, PrimarySupport: 45, OpponentSupport: 46},
		{ID: "BB", ElectoralVotes: 20, PrimarySupport: 45, OpponentSupport: 46},
		{ID: "CC", ElectoralVotes: 10, PrimarySupport: 45, OpponentSupport: 46},
		{ID: "DD", ElectoralVotes: 5, PrimarySupport: 45, OpponentSupport: 46},
	})
	a, ok := StrategyFor(MultiState).Plan(gs, campaign.Opponent, Expert)
	if !ok || a.Type != campaign.AdCampaign || len(a.Regions) != 3 || a.Regions[0] != "AA" {
		t.Errorf("expert: got %s %v ok=%v", a.Type, a.Regions, ok)
	}
	a, _ = StrategyFor(MultiState).Plan(gs, campaign.Opponent, Hard)
	if len(a.Regions) != 2 {
		t.Errorf("hard width = %d, want 2", len(a.Regions))
	}
}

func TestPlanWithFallback(t *testing.T) {
	gs := campaign.NewGameState([]campaign.Region{
		{ID: "XX", ElectoralVotes: 20, PrimarySupport: 45, OpponentSupport: 45},
	})
	a, used, ok := PlanWithFallback(gs, campaign.Opponent, Medium, Defensive)
	if !ok || used != Balanced || a.Actor != campaign.Opponent {
		t.Errorf("got %+v used=%s ok=%v", a, used, ok)
	}

	gs.Opponent.Funds = 0
	if _, _, ok := PlanWithFallback(gs, campaign.Opponent, Medium, MultiState); ok {
		t.Error("nothing should be playable with no funds")
	}
}
