package campaign

import "fmt"

// Role identifies one of the two sides of the race.
type Role string

const (
	Primary  Role = "primary"
	Opponent Role = "opponent"
)

// Roles lists both sides in turn order.
var Roles = [2]Role{Primary, Opponent}

// Other returns the rival role.
func (r Role) Other() Role {
	if r == Primary {
		return Opponent
	}
	return Primary
}

// Valid reports whether r names one of the two sides.
func (r Role) Valid() bool {
	return r == Primary || r == Opponent
}

// ParseRole converts a wire string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Agent is one campaign: its purse and its national standing.
type Agent struct {
	Role     Role    `json:"role"`
	Name     string  `json:"name"`
	Party    string  `json:"party"`
	AI       bool    `json:"ai"`
	Funds    float64 `json:"funds"`
	Momentum int     `json:"momentum"`
	Polling  float64 `json:"polling"`
}

// Starting values for a fresh race.
const (
	PrimaryStartingFunds  = 220_000_000
	OpponentStartingFunds = 150_000_000

	MomentumMin = -100
	MomentumMax = 100
)

// NewPrimaryAgent returns the incumbent campaign with its seed values.
func NewPrimaryAgent() Agent {
	return Agent{
		Role:     Primary,
		Name:     "President Morgan",
		Party:    "Liberty Party",
		Funds:    PrimaryStartingFunds,
		Momentum: 5,
		Polling:  48,
	}
}

// NewOpponentAgent returns the challenger campaign with its seed values.
// The challenger is AI-controlled unless the caller says otherwise.
func NewOpponentAgent() Agent {
	return Agent{
		Role:     Opponent,
		Name:     "Senator Davis",
		Party:    "Progress Party",
		AI:       true,
		Funds:    OpponentStartingFunds,
		Momentum: -5,
		Polling:  46,
	}
}

func (a *Agent) addMomentum(d int) {
	a.Momentum = clampInt(a.Momentum+d, MomentumMin, MomentumMax)
}

func (a *Agent) addPolling(d float64) {
	a.Polling = clampFloat(a.Polling+d, 0, 100)
}

func (a *Agent) spend(amount float64) {
	a.Funds -= amount
	if a.Funds < 0 {
		a.Funds = 0
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
