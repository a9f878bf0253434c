package advisor

import (
	"fmt"
	"sort"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

// AverageActionCost is the assumed weekly spend used for projections.
const AverageActionCost = 1_500_000

// Confidence band lower bounds, in support points.
const (
	SecureMargin  = 10
	LikelyMargin  = 5
	LeaningMargin = 0
	TossupMargin  = -5
	PathMargin    = 10
)

// Analytics summarises a campaign's position.
type Analytics struct {
	Funds          float64  `json:"funds"`
	BurnRate       float64  `json:"burnRate"`
	WeeksRemaining int      `json:"weeksRemaining"`
	ProjectedFunds float64  `json:"projectedFunds"`
	FundingAlert   string   `json:"fundingAlert,omitempty"`
	ElectoralVotes int      `json:"electoralVotes"`
	Secure         int      `json:"secure"`
	Likely         int      `json:"likely"`
	Leaning        int      `json:"leaning"`
	Tossup         int      `json:"tossup"`
	Path           []string `json:"path"`
	PathVotes      int      `json:"pathVotes"`
	PathComplete   bool     `json:"pathComplete"`
}

// Analytics computes the role's financial and electoral picture.
func (a *Advisor) Analytics(gs *campaign.GameState, role campaign.Role) Analytics {
	funds := gs.Agent(role).Funds
	weeks := gs.TurnsRemaining()
	out := Analytics{
		Funds:          funds,
		BurnRate:       AverageActionCost,
		WeeksRemaining: weeks,
		ProjectedFunds: funds - AverageActionCost*float64(weeks),
		ElectoralVotes: gs.ElectoralVotes(role),
	}
	if out.ProjectedFunds < 0 {
		out.FundingAlert = fmt.Sprintf("At %s per week, funds run out in %d week(s)",
			campaign.FormatMoney(AverageActionCost), int(funds/AverageActionCost))
	}

	for i := range gs.Regions {
		r := &gs.Regions[i]
		switch m := r.Margin(role); {
		case m > SecureMargin:
			out.Secure += r.ElectoralVotes
		case m > LikelyMargin:
			out.Likely += r.ElectoralVotes
		case m > LeaningMargin:
			out.Leaning += r.ElectoralVotes
		case m > TossupMargin:
			out.Tossup += r.ElectoralVotes
		}
	}

	out.Path, out.PathVotes, out.PathComplete = PathToThreshold(gs, role)
	return out
}

// PathToThreshold greedily adds regions the role trails by fewer than
// PathMargin points, largest electoral weight first, until the win threshold
// is reached. It returns the regions to flip, the total those would leave
// the role with, and whether that total reaches the threshold. A role that
// already holds the threshold needs no regions.
func PathToThreshold(gs *campaign.GameState, role campaign.Role) ([]string, int, bool) {
	total := gs.ElectoralVotes(role)
	if total >= gs.WinThreshold {
		return []string{}, total, true
	}
	var candidates []*campaign.Region
	for i := range gs.Regions {
		m := gs.Regions[i].Margin(role)
		if m < 0 && m > -PathMargin {
			candidates = append(candidates, &gs.Regions[i])
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ElectoralVotes > candidates[j].ElectoralVotes
	})
	path := []string{}
	for _, r := range candidates {
		if total >= gs.WinThreshold {
			break
		}
		path = append(path, r.ID)
		total += r.ElectoralVotes
	}
	return path, total, total >= gs.WinThreshold
}
