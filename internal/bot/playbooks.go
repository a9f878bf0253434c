package bot

import (
	"sort"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

// aggressiveStrategy pushes into regions the rival leads or ties by a small
// margin, favouring the best electoral value per point of deficit. Battlegrounds
// the role already leads are only targeted once no contested region remains.
type aggressiveStrategy struct{}

func (aggressiveStrategy) Kind() Kind { return Aggressive }

func (aggressiveStrategy) Plan(gs *campaign.GameState, role campaign.Role, d Difficulty) (campaign.Action, bool) {
	var contested, held []*campaign.Region
	for i := range gs.Regions {
		r := &gs.Regions[i]
		switch m := r.Margin(role.Other()); {
		case m >= 0 && m < AggressiveMaxTrail:
			contested = append(contested, r)
		case m < 0 && r.IsBattleground():
			held = append(held, r)
		}
	}
	sort.SliceStable(contested, func(i, j int) bool {
		vi := float64(contested[i].ElectoralVotes) / (contested[i].Margin(role.Other()) + 1)
		vj := float64(contested[j].ElectoralVotes) / (contested[j].Margin(role.Other()) + 1)
		return vi > vj
	})
	sort.SliceStable(held, func(i, j int) bool {
		return held[i].Margin(role) < held[j].Margin(role)
	})
	prefs := []campaign.ActionType{campaign.AdCampaign, campaign.Rally, campaign.OppositionResearch}
	return firstAffordable(gs, role, d, prefs, pickTarget(append(contested, held...), d))
}

// defensiveStrategy shores up regions the role leads narrowly.
type defensiveStrategy struct{}

func (defensiveStrategy) Kind() Kind { return Defensive }

func (defensiveStrategy) Plan(gs *campaign.GameState, role campaign.Role, d Difficulty) (campaign.Action, bool) {
	var candidates []*campaign.Region
	for i := range gs.Regions {
		r := &gs.Regions[i]
		if m := r.Margin(role); m > 0 && m < DefensiveMaxLead {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return campaign.Action{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ElectoralVotes > candidates[j].ElectoralVotes
	})
	prefs := []campaign.ActionType{campaign.TownHall, campaign.Grassroots, campaign.Rally}
	return firstAffordable(gs, role, d, prefs, pickTarget(candidates, d))
}

// balancedStrategy works the battlegrounds weighted by swing potential.
type balancedStrategy struct{}

func (balancedStrategy) Kind() Kind { return Balanced }

func (balancedStrategy) Plan(gs *campaign.GameState, role campaign.Role, d Difficulty) (campaign.Action, bool) {
	var candidates []*campaign.Region
	for i := range gs.Regions {
		if gs.Regions[i].IsBattleground() {
			candidates = append(candidates, &gs.Regions[i])
		}
	}
	if len(candidates) == 0 {
		for i := range gs.Regions {
			r := &gs.Regions[i]
			if m := r.Margin(role); m > -15 && m < 15 {
				candidates = append(candidates, r)
			}
		}
	}
	weight := func(r *campaign.Region) float64 {
		return float64(r.ElectoralVotes) * (1 + r.SwingPotential/100)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return weight(candidates[i]) > weight(candidates[j])
	})
	target := pickTarget(candidates, d)

	prefs := []campaign.ActionType{campaign.Rally, campaign.AdCampaign, campaign.TownHall, campaign.Grassroots}
	if target != nil && d.AtLeast(Hard) {
		sort.SliceStable(prefs, func(i, j int) bool {
			return target.Score(prefs[i]) > target.Score(prefs[j])
		})
	}
	return firstAffordable(gs, role, d, prefs, target)
}

// fundraisingStrategy refills the treasury. When even a fundraiser is out of
// reach it spends on the cheapest thing it can still buy.
type fundraisingStrategy struct{}

func (fundraisingStrategy) Kind() Kind { return Fundraising }

func (fundraisingStrategy) Plan(gs *campaign.GameState, role campaign.Role, _ Difficulty) (campaign.Action, bool) {
	funds := gs.Agent(role).Funds
	if funds >= campaign.Fundraiser.Cost() {
		return campaign.Action{Type: campaign.Fundraiser, Actor: role}, true
	}
	if len(gs.Regions) == 0 {
		return campaign.Action{}, false
	}
	var cheapest campaign.ActionType = -1
	for _, t := range campaign.AllActionTypes() {
		if !t.Regional() || t.Cost() > funds {
			continue
		}
		if cheapest < 0 || t.Cost() < cheapest.Cost() {
			cheapest = t
		}
	}
	if cheapest < 0 {
		return campaign.Action{}, false
	}
	r := gs.Regions[botIntn(len(gs.Regions))]
	return campaign.Action{Type: cheapest, Regions: []string{r.ID}, Actor: role}, true
}

// multiStateStrategy spends a late-game war chest on one action across the
// largest battlegrounds.
type multiStateStrategy struct{}

func (multiStateStrategy) Kind() Kind { return MultiState }

func (multiStateStrategy) Plan(gs *campaign.GameState, role campaign.Role, d Difficulty) (campaign.Action, bool) {
	var candidates []*campaign.Region
	for i := range gs.Regions {
		if gs.Regions[i].IsBattleground() {
			candidates = append(candidates, &gs.Regions[i])
		}
	}
	if len(candidates) < 2 {
		return campaign.Action{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ElectoralVotes > candidates[j].ElectoralVotes
	})
	n := min(d.MultiStateWidth(), len(candidates))
	ids := make([]string, n)
	for i := range n {
		ids[i] = candidates[i].ID
	}

	funds := gs.Agent(role).Funds
	for _, t := range []campaign.ActionType{campaign.AdCampaign, campaign.Rally, campaign.TownHall} {
		if campaign.MultiRegionCost(t, n)*d.SafetyMargin() <= funds {
			return campaign.Action{Type: t, Regions: ids, Actor: role}, true
		}
	}
	return campaign.Action{}, false
}
