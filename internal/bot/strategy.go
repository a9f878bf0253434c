package bot

import (
	"github.com/freeeve/polforge/api/pkg/campaign"
)

// Kind names one of the opponent's playbooks.
type Kind string

const (
	Aggressive  Kind = "aggressive"
	Defensive   Kind = "defensive"
	Balanced    Kind = "balanced"
	Fundraising Kind = "fundraising"
	MultiState  Kind = "multiState"
)

// Decision tree tuning.
const (
	LateGameTurns      = 10
	EarlyGameTurns     = 15
	MultiStateFunds    = 10_000_000
	CommandingLead     = 50
	DesperateDeficit   = 30
	ComfortableLead    = 30
	AggressiveMaxTrail = 15
	DefensiveMaxLead   = 8
)

// Strategy plans a single action for role. ok is false when the strategy has
// nothing it can afford.
type Strategy interface {
	Kind() Kind
	Plan(gs *campaign.GameState, role campaign.Role, d Difficulty) (a campaign.Action, ok bool)
}

var strategies = map[Kind]Strategy{
	Aggressive:  aggressiveStrategy{},
	Defensive:   defensiveStrategy{},
	Balanced:    balancedStrategy{},
	Fundraising: fundraisingStrategy{},
	MultiState:  multiStateStrategy{},
}

// fallbacks lists what to try when a strategy cannot act.
var fallbacks = map[Kind]Kind{
	MultiState: Aggressive,
	Aggressive: Balanced,
	Defensive:  Balanced,
	Balanced:   Fundraising,
}

// StrategyFor returns the playbook for kind.
func StrategyFor(kind Kind) Strategy {
	if s, ok := strategies[kind]; ok {
		return s
	}
	return strategies[Balanced]
}

// ChooseStrategy picks a playbook from funds, electoral lead and turns left.
func ChooseStrategy(gs *campaign.GameState, role campaign.Role, d Difficulty) Kind {
	funds := gs.Agent(role).Funds
	lead := gs.VoteLead(role)
	left := gs.TurnsRemaining()

	switch {
	case funds < d.FundraisingThreshold():
		return Fundraising
	case d.AtLeast(Hard) && left < LateGameTurns && funds > MultiStateFunds:
		return MultiState
	case lead > CommandingLead:
		return Defensive
	case lead < -DesperateDeficit && left < LateGameTurns:
		return Aggressive
	case left > EarlyGameTurns && lead < 0:
		return Balanced
	case lead < ComfortableLead:
		return Aggressive
	}
	return Balanced
}

// PlanWithFallback runs kind and then its fallbacks until one produces an
// action. It returns the strategy that produced it.
func PlanWithFallback(gs *campaign.GameState, role campaign.Role, d Difficulty, kind Kind) (campaign.Action, Kind, bool) {
	for {
		if a, ok := StrategyFor(kind).Plan(gs, role, d); ok {
			a.Actor = role
			return a, kind, true
		}
		next, ok := fallbacks[kind]
		if !ok {
			return campaign.Action{}, kind, false
		}
		kind = next
	}
}

func affordable(gs *campaign.GameState, role campaign.Role, cost float64, d Difficulty) bool {
	return gs.Agent(role).Funds >= cost*d.SafetyMargin()
}

// pickTarget returns the best candidate, or on Easy a random one of the top three.
func pickTarget(candidates []*campaign.Region, d Difficulty) *campaign.Region {
	if len(candidates) == 0 {
		return nil
	}
	if d == Easy {
		return candidates[botIntn(min(3, len(candidates)))]
	}
	return candidates[0]
}

// firstAffordable walks prefs and returns the first action the role can pay
// for with its safety margin. Regional actions target target.
func firstAffordable(gs *campaign.GameState, role campaign.Role, d Difficulty, prefs []campaign.ActionType, target *campaign.Region) (campaign.Action, bool) {
	for _, t := range prefs {
		if t.Regional() && target == nil {
			continue
		}
		if !affordable(gs, role, t.Cost(), d) {
			continue
		}
		a := campaign.Action{Type: t, Actor: role}
		if t.Regional() {
			a.Regions = []string{target.ID}
		}
		return a, true
	}
	return campaign.Action{}, false
}
