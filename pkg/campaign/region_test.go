package campaign

import "testing"

func TestRegionUndecidedAndBattleground(t *testing.T) {
	r := Region{PrimarySupport: 45, OpponentSupport: 40}
	if got := r.Undecided(); got != 15 {
		t.Errorf("Undecided = %v, want 15", got)
	}
	if !r.IsBattleground() {
		t.Error("45/40 should be a battleground")
	}
	r.SetSupport(60, 35)
	if r.IsBattleground() {
		t.Error("60/35 should not be a battleground")
	}
	if !r.Leaning(Primary) || r.Leaning(Opponent) {
		t.Error("60/35 should lean primary only")
	}
}

func TestAddSupportClamps(t *testing.T) {
	tests := []struct {
		name         string
		primary, opp float64
		role         Role
		delta        float64
		wantP, wantO float64
	}{
		{"gain within room", 40, 40, Primary, 5, 45, 40},
		{"gain capped by rival share", 47, 48, Primary, 100, 52, 48},
		{"loss floors at zero", 3, 50, Primary, -10, 0, 50},
		{"opponent gain capped", 60, 35, Opponent, 20, 60, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Region{PrimarySupport: tt.primary, OpponentSupport: tt.opp}
			r.AddSupport(tt.role, tt.delta)
			if r.PrimarySupport != tt.wantP || r.OpponentSupport != tt.wantO {
				t.Errorf("got %v/%v, want %v/%v", r.PrimarySupport, r.OpponentSupport, tt.wantP, tt.wantO)
			}
			if r.PrimarySupport+r.OpponentSupport > 100 {
				t.Errorf("support sum %v exceeds 100", r.PrimarySupport+r.OpponentSupport)
			}
		})
	}
}

func TestSetSupportNormalises(t *testing.T) {
	var r Region
	r.SetSupport(80, 60)
	if sum := r.PrimarySupport + r.OpponentSupport; sum > 100.0001 {
		t.Errorf("sum = %v, want <= 100", sum)
	}
	if r.PrimarySupport <= r.OpponentSupport {
		t.Error("scaling should preserve order")
	}
}

func TestDefaultRegionsAreValid(t *testing.T) {
	regions := DefaultRegions()
	if len(regions) != 14 {
		t.Fatalf("got %d regions, want 14", len(regions))
	}
	seen := map[string]bool{}
	for _, r := range regions {
		if seen[r.ID] {
			t.Errorf("duplicate region %s", r.ID)
		}
		seen[r.ID] = true
		if r.PrimarySupport+r.OpponentSupport > 100 {
			t.Errorf("%s: support sum exceeds 100", r.ID)
		}
		if r.Tier < 1 || r.Tier > 4 {
			t.Errorf("%s: tier %d out of range", r.ID, r.Tier)
		}
		for _, at := range AllActionTypes() {
			if s := r.Score(at); s < 1 || s > 3 {
				t.Errorf("%s: %s effectiveness %d out of range", r.ID, at, s)
			}
		}
	}
	if got := TotalElectoralVotes(regions); got != 294 {
		t.Errorf("TotalElectoralVotes = %d, want 294", got)
	}
}

func TestTallyIgnoresTies(t *testing.T) {
	gs := NewGameState([]Region{
		{ID: "A", ElectoralVotes: 10, PrimarySupport: 50, OpponentSupport: 40},
		{ID: "B", ElectoralVotes: 20, PrimarySupport: 45, OpponentSupport: 45},
		{ID: "C", ElectoralVotes: 5, PrimarySupport: 30, OpponentSupport: 60},
	})
	p, o := gs.Tally()
	if p != 10 || o != 5 {
		t.Errorf("Tally = %d/%d, want 10/5", p, o)
	}
	if gs.VoteLead(Primary) != 5 || gs.VoteLead(Opponent) != -5 {
		t.Errorf("VoteLead mismatch")
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name     string
		p, o     float64
		wantWin  Role
		outright bool
		draw     bool
	}{
		{"primary outright", 60, 30, Primary, true, false},
		{"opponent on plurality", 30, 60, Opponent, false, false},
		{"draw", 45, 45, "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := 300
			if !tt.outright {
				ev = 100
			}
			gs := NewGameState([]Region{{ID: "X", ElectoralVotes: ev, PrimarySupport: tt.p, OpponentSupport: tt.o}})
			out := gs.Outcome()
			if out.Winner != tt.wantWin || out.Outright != tt.outright || out.Draw != tt.draw {
				t.Errorf("Outcome = %+v", out)
			}
		})
	}
}

func TestClonePreservesAndIsolates(t *testing.T) {
	g := startedGame(t, quiet, 2)
	gs := g.State()
	gs.PrimaryShadow.Leverage = []string{"dirt"}
	c := gs.Clone()
	c.Regions[0].PrimarySupport = 99
	c.PrimaryShadow.Leverage[0] = "changed"
	c.History[0].Primary = -1
	if gs.Regions[0].PrimarySupport == 99 {
		t.Error("clone shares regions")
	}
	if gs.PrimaryShadow.Leverage[0] != "dirt" {
		t.Error("clone shares leverage")
	}
	if gs.History[0].Primary == -1 {
		t.Error("clone shares history")
	}
}
