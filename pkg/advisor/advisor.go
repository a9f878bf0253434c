// Package advisor produces prioritised campaign recommendations, the
// per-turn action budget derived from them, and campaign analytics.
// Everything here is a pure function of the ledger.
package advisor

import (
	"fmt"
	"sort"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

// Priority ranks recommendations. Higher values sort first.
type Priority int

const (
	Low Priority = iota + 1
	Medium
	High
	Critical
)

func (p Priority) String() string {
	switch p {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	case Critical:
		return "critical"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

func (p Priority) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Priority) UnmarshalText(b []byte) error {
	for c := Low; c <= Critical; c++ {
		if c.String() == string(b) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("unknown priority %q", b)
}

// Category groups recommendations by intent.
type Category string

const (
	Defensive         Category = "defensive"
	Offensive         Category = "offensive"
	InfrastructureGap Category = "infrastructure"
	Fundraising       Category = "fundraising"
	Momentum          Category = "momentum"
)

// Sources a recommendation can come from.
const (
	SourceAdvisor  = "advisor"
	SourceExternal = "external"
)

// Recommendation is a single piece of strategic advice.
type Recommendation struct {
	Category         Category              `json:"category"`
	Priority         Priority              `json:"priority"`
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	Regions          []string              `json:"regions,omitempty"`
	SuggestedActions []campaign.ActionType `json:"suggestedActions,omitempty"`
	EstimatedCost    float64               `json:"estimatedCost"`
	ExpectedImpact   string                `json:"expectedImpact"`
	Reasoning        string                `json:"reasoning"`
	Source           string                `json:"source"`
}

// Thresholds that trigger recommendations.
const (
	VulnerableMargin    = 7
	FlippableMargin     = 8
	InfrastructureFloor = 60
	LowFundsThreshold   = 10_000_000
	CriticalFunds       = 5_000_000
	MomentumDeficit     = 50
	MaxRegionsPerAdvice = 3
	MaxInfraRegions     = 2
)

// Advisor is stateless; the zero value is ready to use.
type Advisor struct{}

// New returns an Advisor.
func New() *Advisor { return &Advisor{} }

// Recommendations returns the role's advice, highest priority first.
func (a *Advisor) Recommendations(gs *campaign.GameState, role campaign.Role) []Recommendation {
	var recs []Recommendation

	if regions := filterRegions(gs, func(r *campaign.Region) bool {
		m := r.Margin(role)
		return m > 0 && m < VulnerableMargin
	}); len(regions) > 0 {
		top := head(regions, MaxRegionsPerAdvice)
		recs = append(recs, Recommendation{
			Category:         Defensive,
			Priority:         Critical,
			Title:            "Shore Up Vulnerable States",
			Description:      fmt.Sprintf("You're leading in %d key state(s) but margins are thin. Defensive action needed.", len(top)),
			Regions:          ids(top),
			SuggestedActions: []campaign.ActionType{campaign.Grassroots, campaign.TownHall, campaign.AdCampaign},
			EstimatedCost:    float64(len(top)) * 2_000_000,
			ExpectedImpact:   fmt.Sprintf("Secure %d electoral votes", votes(top)),
			Reasoning:        "These states have narrow margins (<7 points). Grassroots organizing and town halls will solidify support.",
			Source:           SourceAdvisor,
		})
	}

	if regions := filterRegions(gs, func(r *campaign.Region) bool {
		m := r.Margin(role)
		return m < 0 && m > -FlippableMargin
	}); len(regions) > 0 {
		top := head(regions, MaxRegionsPerAdvice)
		recs = append(recs, Recommendation{
			Category:         Offensive,
			Priority:         High,
			Title:            "Flip Competitive States",
			Description:      fmt.Sprintf("Target %d winnable state(s) worth %d electoral votes.", len(top), votes(top)),
			Regions:          ids(top),
			SuggestedActions: []campaign.ActionType{campaign.Rally, campaign.AdCampaign, campaign.TownHall},
			EstimatedCost:    float64(len(top)) * 2_500_000,
			ExpectedImpact:   fmt.Sprintf("Potential to gain %d electoral votes", votes(top)),
			Reasoning:        "You're within striking distance (<8 points behind). Rallies and ad campaigns can close the gap.",
			Source:           SourceAdvisor,
		})
	}

	if regions := filterRegions(gs, func(r *campaign.Region) bool {
		return r.IsBattleground() && InfrastructureFor(gs, role, r).Score < InfrastructureFloor
	}); len(regions) > 0 {
		top := head(regions, MaxInfraRegions)
		recs = append(recs, Recommendation{
			Category:         InfrastructureGap,
			Priority:         High,
			Title:            "Build Ground Game",
			Description:      fmt.Sprintf("Your field organization is weak in %d battleground state(s).", len(top)),
			Regions:          ids(top),
			SuggestedActions: []campaign.ActionType{campaign.Grassroots, campaign.TownHall},
			EstimatedCost:    float64(len(top)) * 800_000,
			ExpectedImpact:   "Improved turnout and long-term support",
			Reasoning:        "Infrastructure score is below 60%. Building field offices and recruiting volunteers will pay off.",
			Source:           SourceAdvisor,
		})
	}

	if funds := gs.Agent(role).Funds; funds < LowFundsThreshold {
		p := High
		if funds < CriticalFunds {
			p = Critical
		}
		recs = append(recs, Recommendation{
			Category:         Fundraising,
			Priority:         p,
			Title:            "Replenish Campaign Funds",
			Description:      fmt.Sprintf("Treasury is running low at %s. Fundraising needed.", campaign.FormatMoney(funds)),
			SuggestedActions: []campaign.ActionType{campaign.Fundraiser},
			EstimatedCost:    campaign.Fundraiser.Cost(),
			ExpectedImpact:   "Raise $1-3M to continue operations",
			Reasoning:        "Current funds won't sustain the campaign through election day. Hold multiple fundraisers.",
			Source:           SourceAdvisor,
		})
	}

	if deficit := -gs.VoteLead(role); deficit > MomentumDeficit {
		recs = append(recs, Recommendation{
			Category:         Momentum,
			Priority:         Critical,
			Title:            "Change Campaign Narrative",
			Description:      fmt.Sprintf("You're down %d electoral votes. Need to shift momentum.", deficit),
			SuggestedActions: []campaign.ActionType{campaign.DebatePrep, campaign.OppositionResearch, campaign.Rally},
			EstimatedCost:    2_000_000,
			ExpectedImpact:   "Boost national profile and momentum",
			Reasoning:        "Facing a significant deficit. Debate prep and opposition research can change the race dynamics.",
			Source:           SourceAdvisor,
		})
	}

	SortByPriority(recs)
	return recs
}

// ActionBudget grants 1 + min(critical, 2) + min(high, 1) actions, at most
// campaign.MaxActionsPerTurn. It satisfies campaign.ActionBudgeter.
func (a *Advisor) ActionBudget(gs *campaign.GameState, role campaign.Role) int {
	return BudgetFor(a.Recommendations(gs, role))
}

// BudgetFor computes the action allowance a set of recommendations earns.
func BudgetFor(recs []Recommendation) int {
	critical, high := 0, 0
	for _, r := range recs {
		switch r.Priority {
		case Critical:
			critical++
		case High:
			high++
		}
	}
	return min(1+min(critical, 2)+min(high, 1), campaign.MaxActionsPerTurn)
}

// SortByPriority orders recommendations highest priority first, keeping
// the relative order of equal priorities.
func SortByPriority(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Priority > recs[j].Priority })
}

// filterRegions returns matching regions, largest electoral weight first.
func filterRegions(gs *campaign.GameState, keep func(*campaign.Region) bool) []*campaign.Region {
	var out []*campaign.Region
	for i := range gs.Regions {
		if keep(&gs.Regions[i]) {
			out = append(out, &gs.Regions[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ElectoralVotes > out[j].ElectoralVotes })
	return out
}

func head(rs []*campaign.Region, n int) []*campaign.Region {
	if len(rs) > n {
		return rs[:n]
	}
	return rs
}

func ids(rs []*campaign.Region) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func votes(rs []*campaign.Region) int {
	total := 0
	for _, r := range rs {
		total += r.ElectoralVotes
	}
	return total
}
