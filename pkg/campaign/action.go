package campaign

import "fmt"

// ActionType enumerates the campaign moves an agent can spend a turn slot on.
type ActionType int

const (
	Rally ActionType = iota
	AdCampaign
	Fundraiser
	TownHall
	DebatePrep
	Grassroots
	OppositionResearch

	NumActionTypes
)

type actionSpec struct {
	name     string
	label    string
	cost     float64
	regional bool
}

// actionSpecs is indexed by ActionType; action_test.go checks every slot is filled.
var actionSpecs = [NumActionTypes]actionSpec{
	Rally:              {"rally", "Rally", 500_000, true},
	AdCampaign:         {"adCampaign", "Ad Campaign", 2_000_000, true},
	Fundraiser:         {"fundraiser", "Fundraiser", 100_000, false},
	TownHall:           {"townHall", "Town Hall", 250_000, true},
	DebatePrep:         {"debatePrep", "Debate Prep", 750_000, false},
	Grassroots:         {"grassroots", "Grassroots", 300_000, true},
	OppositionResearch: {"oppositionResearch", "Opposition Research", 1_000_000, false},
}

// MultiRegionSurcharge is the cost added per extra targeted region.
const MultiRegionSurcharge = 0.2

// AllActionTypes lists every action type in declaration order.
func AllActionTypes() []ActionType {
	out := make([]ActionType, 0, NumActionTypes)
	for t := ActionType(0); t < NumActionTypes; t++ {
		out = append(out, t)
	}
	return out
}

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	return t >= 0 && t < NumActionTypes
}

func (t ActionType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ActionType(%d)", int(t))
	}
	return actionSpecs[t].name
}

// Label is the human-readable name.
func (t ActionType) Label() string {
	if !t.Valid() {
		return t.String()
	}
	return actionSpecs[t].label
}

// Cost is the single-region base cost in dollars.
func (t ActionType) Cost() float64 {
	if !t.Valid() {
		return 0
	}
	return actionSpecs[t].cost
}

// Regional reports whether the action must target at least one region.
func (t ActionType) Regional() bool {
	return t.Valid() && actionSpecs[t].regional
}

// MarshalText encodes the action type by name.
func (t ActionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid action type %d", int(t))
	}
	return []byte(actionSpecs[t].name), nil
}

// UnmarshalText decodes an action type name.
func (t *ActionType) UnmarshalText(b []byte) error {
	parsed, err := ParseActionType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseActionType looks up an action type by its wire name.
func ParseActionType(s string) (ActionType, error) {
	for i, spec := range actionSpecs {
		if spec.name == s {
			return ActionType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action type %q", s)
}

// MultiRegionCost returns the cost of running t across n regions:
// base × (1 + 0.2 × (n-1)).
func MultiRegionCost(t ActionType, n int) float64 {
	if n <= 1 {
		return t.Cost()
	}
	return t.Cost() * (1 + MultiRegionSurcharge*float64(n-1))
}

// CheapestActionCost is the lowest base cost of any action.
func CheapestActionCost() float64 {
	min := actionSpecs[0].cost
	for _, spec := range actionSpecs[1:] {
		if spec.cost < min {
			min = spec.cost
		}
	}
	return min
}

// Action is one move submitted by an agent.
type Action struct {
	Type    ActionType `json:"type"`
	Regions []string   `json:"regions,omitempty"`
	Actor   Role       `json:"actor"`
	Turn    int        `json:"turn"`
}

// Cost is what the action will deduct from the actor's funds.
func (a Action) Cost() float64 {
	if !a.Type.Regional() {
		return a.Type.Cost()
	}
	return MultiRegionCost(a.Type, len(a.Regions))
}
