package advisor

import (
	"reflect"
	"testing"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

func TestAnalyticsBands(t *testing.T) {
	gs := campaign.NewGameState([]campaign.Region{
		{ID: "S", ElectoralVotes: 10, PrimarySupport: 60, OpponentSupport: 35},
		{ID: "L", ElectoralVotes: 8, PrimarySupport: 50, OpponentSupport: 43},
		{ID: "N", ElectoralVotes: 6, PrimarySupport: 48, OpponentSupport: 46},
		{ID: "T", ElectoralVotes: 4, PrimarySupport: 45, OpponentSupport: 48},
		{ID: "X", ElectoralVotes: 2, PrimarySupport: 30, OpponentSupport: 60},
	})
	a := New().Analytics(gs, campaign.Primary)
	if a.Secure != 10 || a.Likely != 8 || a.Leaning != 6 || a.Tossup != 4 {
		t.Errorf("bands = %d/%d/%d/%d", a.Secure, a.Likely, a.Leaning, a.Tossup)
	}
	if a.ElectoralVotes != 24 {
		t.Errorf("ElectoralVotes = %d", a.ElectoralVotes)
	}
}

func TestAnalyticsFunds(t *testing.T) {
	gs := campaign.NewGameState(campaign.DefaultRegions())
	gs.Turn = 5
	gs.Primary.Funds = 20_000_000
	a := New().Analytics(gs, campaign.Primary)
	if a.WeeksRemaining != 15 {
		t.Errorf("WeeksRemaining = %d", a.WeeksRemaining)
	}
	if a.ProjectedFunds != 20_000_000-15*AverageActionCost {
		t.Errorf("ProjectedFunds = %v", a.ProjectedFunds)
	}
	if a.FundingAlert == "" {
		t.Error("expected a funding alert for a negative projection")
	}

	gs.Primary.Funds = 200_000_000
	if a := New().Analytics(gs, campaign.Primary); a.FundingAlert != "" {
		t.Errorf("unexpected alert %q", a.FundingAlert)
	}
}

func TestPathToThreshold(t *testing.T) {
	gs := campaign.NewGameState([]campaign.Region{
		{ID: "BASE", ElectoralVotes: 200, PrimarySupport: 60, OpponentSupport: 30},
		{ID: "Y", ElectoralVotes: 40, PrimarySupport: 45, OpponentSupport: 50},
		{ID: "Z", ElectoralVotes: 50, PrimarySupport: 46, OpponentSupport: 49},
		{ID: "W", ElectoralVotes: 30, PrimarySupport: 35, OpponentSupport: 50},
		{ID: "V", ElectoralVotes: 10, PrimarySupport: 44, OpponentSupport: 46},
	})
	path, total, ok := PathToThreshold(gs, campaign.Primary)
	if !reflect.DeepEqual(path, []string{"Z", "Y"}) || total != 290 || !ok {
		t.Errorf("path = %v total = %d ok = %v", path, total, ok)
	}

	gs.Regions[0].ElectoralVotes = 300
	path, total, ok = PathToThreshold(gs, campaign.Primary)
	if len(path) != 0 || total != 300 || !ok {
		t.Errorf("secured: path = %v total = %d ok = %v", path, total, ok)
	}

	gs.Regions[0].ElectoralVotes = 100
	path, total, ok = PathToThreshold(gs, campaign.Primary)
	if ok || len(path) != 3 || total != 200 {
		t.Errorf("unreachable: path = %v total = %d ok = %v", path, total, ok)
	}
}

func TestInfrastructureProjection(t *testing.T) {
	gs := campaign.NewGameState(campaign.DefaultRegions())
	gs.Seed = 99
	fl := gs.Region("FL")

	a := InfrastructureFor(gs, campaign.Primary, fl)
	b := InfrastructureFor(gs, campaign.Primary, fl)
	if a != b {
		t.Error("projection should be deterministic for the same ledger")
	}
	if a.Score < 0 || a.Score > 100 {
		t.Errorf("score %v out of range", a.Score)
	}
	if a.RecommendedStaff < fl.ElectoralVotes*8 {
		t.Errorf("recommended staff %d below base", a.RecommendedStaff)
	}

	gs.Turn = gs.MaxTurns
	late := InfrastructureFor(gs, campaign.Primary, fl)
	if late.RecommendedStaff <= a.RecommendedStaff {
		t.Errorf("urgency should raise staffing needs: %d -> %d", a.RecommendedStaff, late.RecommendedStaff)
	}
}
