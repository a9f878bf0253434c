package campaign

import "math"

// BattlegroundMargin is the support gap below which a region counts as contested.
const BattlegroundMargin = 10

// Effectiveness holds a 1-3 score per action type. Zero means "not rated".
type Effectiveness [NumActionTypes]int

// Region is one electoral unit of the map.
type Region struct {
	ID             string        `json:"id"` // postal abbreviation
	Name           string        `json:"name"`
	ElectoralVotes int           `json:"electoralVotes"`
	Group          string        `json:"group"`
	Tier           int           `json:"tier"` // 1 = top priority, 4 = safe
	SwingPotential float64       `json:"swingPotential"`
	ROI            float64       `json:"roi"`
	CostIndex      float64       `json:"costIndex"`
	Effectiveness  Effectiveness `json:"effectiveness"`

	PrimarySupport  float64 `json:"primarySupport"`
	OpponentSupport float64 `json:"opponentSupport"`
}

// Support returns the share held by the given role.
func (r *Region) Support(role Role) float64 {
	if role == Primary {
		return r.PrimarySupport
	}
	return r.OpponentSupport
}

// Margin returns the role's lead (negative when trailing).
func (r *Region) Margin(role Role) float64 {
	return r.Support(role) - r.Support(role.Other())
}

// Undecided returns the share committed to neither side.
func (r *Region) Undecided() float64 {
	return 100 - r.PrimarySupport - r.OpponentSupport
}

// IsBattleground reports whether the two shares are within BattlegroundMargin.
func (r *Region) IsBattleground() bool {
	return math.Abs(r.PrimarySupport-r.OpponentSupport) < BattlegroundMargin
}

// Leaning reports whether the role leads by more than five points.
func (r *Region) Leaning(role Role) bool {
	return r.Margin(role) > 5
}

// Leader returns the role with strictly greater support, or "" on a tie.
func (r *Region) Leader() Role {
	switch {
	case r.PrimarySupport > r.OpponentSupport:
		return Primary
	case r.OpponentSupport > r.PrimarySupport:
		return Opponent
	}
	return ""
}

// Score returns the effectiveness rating of an action type here.
func (r *Region) Score(t ActionType) int {
	if !t.Valid() {
		return 0
	}
	return r.Effectiveness[t]
}

// AddSupport shifts the role's share by delta, keeping it inside [0,100]
// and never letting the two shares sum past 100.
func (r *Region) AddSupport(role Role, delta float64) {
	other := r.Support(role.Other())
	v := clampFloat(r.Support(role)+delta, 0, 100-other)
	if role == Primary {
		r.PrimarySupport = v
	} else {
		r.OpponentSupport = v
	}
}

// SetSupport assigns both shares, scaling them down when they overflow 100.
func (r *Region) SetSupport(primary, opponent float64) {
	primary = clampFloat(primary, 0, 100)
	opponent = clampFloat(opponent, 0, 100)
	if sum := primary + opponent; sum > 100 {
		primary = primary * 100 / sum
		opponent = opponent * 100 / sum
	}
	r.PrimarySupport = primary
	r.OpponentSupport = opponent
}

// rated builds an effectiveness table from scores for the four
// region-targeted actions; national actions are rated 2.
func rated(rally, ad, townHall, grassroots int) Effectiveness {
	var e Effectiveness
	for i := range e {
		e[i] = 2
	}
	e[Rally] = rally
	e[AdCampaign] = ad
	e[TownHall] = townHall
	e[Grassroots] = grassroots
	return e
}

// DefaultRegions returns the built-in fourteen-state map used when no
// catalog file can be loaded.
func DefaultRegions() []Region {
	return []Region{
		{ID: "FL", Name: "Florida", ElectoralVotes: 29, Group: "South", Tier: 1, SwingPotential: 85, ROI: 1.8, CostIndex: 1.3, Effectiveness: rated(3, 3, 2, 2), PrimarySupport: 47, OpponentSupport: 48},
		{ID: "PA", Name: "Pennsylvania", ElectoralVotes: 20, Group: "Northeast", Tier: 1, SwingPotential: 82, ROI: 1.7, CostIndex: 1.1, Effectiveness: rated(3, 2, 3, 2), PrimarySupport: 48, OpponentSupport: 47},
		{ID: "MI", Name: "Michigan", ElectoralVotes: 16, Group: "Midwest", Tier: 1, SwingPotential: 80, ROI: 1.6, CostIndex: 1.0, Effectiveness: rated(2, 2, 3, 3), PrimarySupport: 46, OpponentSupport: 48},
		{ID: "WI", Name: "Wisconsin", ElectoralVotes: 10, Group: "Midwest", Tier: 1, SwingPotential: 84, ROI: 1.6, CostIndex: 0.9, Effectiveness: rated(2, 2, 3, 3), PrimarySupport: 48, OpponentSupport: 47},
		{ID: "AZ", Name: "Arizona", ElectoralVotes: 11, Group: "West", Tier: 1, SwingPotential: 78, ROI: 1.5, CostIndex: 1.0, Effectiveness: rated(3, 2, 2, 2), PrimarySupport: 47, OpponentSupport: 48},
		{ID: "NC", Name: "North Carolina", ElectoralVotes: 15, Group: "South", Tier: 1, SwingPotential: 76, ROI: 1.5, CostIndex: 1.0, Effectiveness: rated(2, 3, 2, 2), PrimarySupport: 48, OpponentSupport: 47},
		{ID: "GA", Name: "Georgia", ElectoralVotes: 16, Group: "South", Tier: 1, SwingPotential: 79, ROI: 1.6, CostIndex: 1.1, Effectiveness: rated(3, 2, 2, 3), PrimarySupport: 47, OpponentSupport: 48},
		{ID: "NV", Name: "Nevada", ElectoralVotes: 6, Group: "West", Tier: 2, SwingPotential: 70, ROI: 1.3, CostIndex: 0.8, Effectiveness: rated(2, 2, 2, 3), PrimarySupport: 48, OpponentSupport: 47},
		{ID: "CA", Name: "California", ElectoralVotes: 55, Group: "West", Tier: 4, SwingPotential: 15, ROI: 0.4, CostIndex: 1.8, Effectiveness: rated(1, 2, 1, 1), PrimarySupport: 58, OpponentSupport: 36},
		{ID: "NY", Name: "New York", ElectoralVotes: 29, Group: "Northeast", Tier: 4, SwingPotential: 18, ROI: 0.5, CostIndex: 1.7, Effectiveness: rated(1, 2, 1, 1), PrimarySupport: 56, OpponentSupport: 38},
		{ID: "IL", Name: "Illinois", ElectoralVotes: 20, Group: "Midwest", Tier: 3, SwingPotential: 25, ROI: 0.7, CostIndex: 1.2, Effectiveness: rated(1, 2, 2, 1), PrimarySupport: 54, OpponentSupport: 40},
		{ID: "TX", Name: "Texas", ElectoralVotes: 38, Group: "South", Tier: 2, SwingPotential: 45, ROI: 1.1, CostIndex: 1.4, Effectiveness: rated(2, 3, 1, 2), PrimarySupport: 43, OpponentSupport: 52},
		{ID: "OH", Name: "Ohio", ElectoralVotes: 18, Group: "Midwest", Tier: 2, SwingPotential: 55, ROI: 1.2, CostIndex: 1.0, Effectiveness: rated(2, 2, 3, 2), PrimarySupport: 44, OpponentSupport: 51},
		{ID: "IN", Name: "Indiana", ElectoralVotes: 11, Group: "Midwest", Tier: 3, SwingPotential: 22, ROI: 0.6, CostIndex: 0.8, Effectiveness: rated(2, 1, 2, 2), PrimarySupport: 40, OpponentSupport: 55},
	}
}

// TotalElectoralVotes sums the weight of every region.
func TotalElectoralVotes(regions []Region) int {
	total := 0
	for i := range regions {
		total += regions[i].ElectoralVotes
	}
	return total
}
