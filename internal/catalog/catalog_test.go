package catalog

import (
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }
func (f fixedRand) Intn(n int) int   { return 0 }

func TestLoadJSON(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "campaign.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	regions := c.Regions(nil)
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions))
	}

	pa := regions[0]
	if pa.ID != "PA" || pa.ElectoralVotes != 19 || pa.Group != "Northeast" || pa.Tier != 1 {
		t.Errorf("unexpected PA header: %+v", pa)
	}
	// weighted margin 2.8, carried by the incumbent's party in 2020
	if !approx(pa.PrimarySupport, 51.4) || !approx(pa.OpponentSupport, 48.6) {
		t.Errorf("PA support = %v/%v, want 51.4/48.6", pa.PrimarySupport, pa.OpponentSupport)
	}
	if pa.ROI != 2.0 {
		t.Errorf("PA ROI = %v, want 2.0", pa.ROI)
	}
	if pa.Score(campaign.TownHall) != 3 || pa.Score(campaign.Fundraiser) != 1 || pa.Score(campaign.DebatePrep) != 2 {
		t.Errorf("unexpected PA effectiveness: %v", pa.Effectiveness)
	}

	oh := regions[1]
	if !approx(oh.PrimarySupport, 47.715) || !approx(oh.OpponentSupport, 52.285) {
		t.Errorf("OH support = %v/%v, want 47.715/52.285", oh.PrimarySupport, oh.OpponentSupport)
	}
	if oh.Score(campaign.OppositionResearch) != 3 {
		t.Errorf("out-of-range score should clamp to 3, got %d", oh.Score(campaign.OppositionResearch))
	}
	if oh.CostIndex != 1 {
		t.Errorf("missing cost index should default to 1, got %v", oh.CostIndex)
	}
}

func TestLoadYAML(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "campaign.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	regions := c.Regions(nil)
	if len(regions) != 1 || regions[0].ID != "WI" {
		t.Fatalf("unexpected regions: %+v", regions)
	}
	if regions[0].ROI != 1.6 {
		t.Errorf("WI ROI = %v, want 1.6", regions[0].ROI)
	}
	if regions[0].PrimarySupport <= regions[0].OpponentSupport {
		t.Errorf("WI should lean primary: %v/%v", regions[0].PrimarySupport, regions[0].OpponentSupport)
	}
}

func TestRegionsNoiseStaysInBounds(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "campaign.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	base := c.Regions(nil)
	for _, f := range []float64{0, 0.5, 0.999} {
		got := c.Regions(fixedRand(f))
		for i := range got {
			shift := got[i].PrimarySupport - base[i].PrimarySupport
			if math.Abs(shift) > marginNoise/2+1e-9 {
				t.Errorf("noise %v moved %s by %v", f, got[i].ID, shift)
			}
		}
	}

	rng := rand.New(rand.NewSource(7))
	for range 50 {
		for _, r := range c.Regions(rng) {
			for _, s := range []float64{r.PrimarySupport, r.OpponentSupport} {
				if s < minSupport || s > maxSupport {
					t.Fatalf("%s support %v outside [%v,%v]", r.ID, s, minSupport, maxSupport)
				}
			}
		}
	}
}

func TestSupportClamped(t *testing.T) {
	c := &Catalog{file: File{States: []State{{
		Abbreviation:   "DC",
		ElectoralVotes: 3,
		Historical:     Historical{Winner2020: "D", Margin2020: 86, Margin2016: 86, Margin2012: 83, Margin2008: 86},
	}}}}
	r := c.Regions(nil)[0]
	if r.PrimarySupport != maxSupport || r.OpponentSupport != minSupport {
		t.Errorf("expected clamp to %v/%v, got %v/%v", maxSupport, minSupport, r.PrimarySupport, r.OpponentSupport)
	}
}

func TestStartingFunds(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "campaign.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, o, ok := c.StartingFunds()
	if !ok || p != 110_000_000 || o != 90_000_000 {
		t.Errorf("StartingFunds = %v, %v, %v", p, o, ok)
	}

	y, err := Load(filepath.Join("testdata", "campaign.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, o, ok = y.StartingFunds()
	if ok || p != campaign.PrimaryStartingFunds || o != campaign.OpponentStartingFunds {
		t.Errorf("catalog without budget should keep seed funds, got %v, %v, %v", p, o, ok)
	}
}

func TestApply(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "campaign.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	gs := campaign.NewGameState(nil)
	c.Apply(gs, nil)
	if len(gs.Regions) != 2 {
		t.Errorf("expected 2 regions, got %d", len(gs.Regions))
	}
	if gs.Primary.Funds != 110_000_000 || gs.Opponent.Funds != 90_000_000 {
		t.Errorf("funds = %v/%v", gs.Primary.Funds, gs.Opponent.Funds)
	}
}

func TestLookups(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "campaign.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, ok := c.WeeklyTarget("PA", 2)
	if !ok || p.Staff != 140 || p.BudgetK != 1100 {
		t.Errorf("WeeklyTarget(PA, 2) = %+v, %v", p, ok)
	}
	if _, ok := c.WeeklyTarget("PA", 20); ok {
		t.Error("expected no pacing for week 20")
	}
	if s, ok := c.StaffingFor("Ohio"); !ok || s.TotalStaff != 300 {
		t.Errorf("StaffingFor(Ohio) = %+v, %v", s, ok)
	}
	if b, ok := c.BudgetFor("pa"); !ok || b.TotalBudgetM != 120 {
		t.Errorf("BudgetFor(pa) = %+v, %v", b, ok)
	}
	if _, ok := c.BudgetFor("ZZ"); ok {
		t.Error("expected unknown state to miss")
	}
}

func TestLoadFailures(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join("testdata", "nope.json")},
		{"no states", filepath.Join("testdata", "empty.json")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path); err == nil {
				t.Fatal("expected error")
			}
			if c := LoadOrDefault(tt.path); c != nil {
				t.Fatal("expected nil catalog")
			}
		})
	}

	if _, err := Load(filepath.Join("testdata", "empty.json")); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	if _, err := Parse([]byte("{"), "json"); err == nil {
		t.Error("expected decode error")
	}
	if _, err := Parse([]byte(`{"states":[{"name":"X"}]}`), "json"); err == nil {
		t.Error("expected validation error for state without abbreviation")
	}
}

func TestNilCatalogServesDefaults(t *testing.T) {
	var c *Catalog
	if got, want := len(c.Regions(nil)), len(campaign.DefaultRegions()); got != want {
		t.Errorf("nil catalog regions = %d, want %d", got, want)
	}
	if c.States() != nil {
		t.Error("nil catalog should have no states")
	}
	if c := LoadOrDefault(""); c != nil {
		t.Error("empty path should return nil")
	}
}
