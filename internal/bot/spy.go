package bot

import (
	"fmt"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

// Personality shapes how the opponent uses the shadow budget.
type Personality string

const (
	Moralist      Personality = "moralist"
	Machiavellian Personality = "machiavellian"
	Cautious      Personality = "cautious"
	Reckless      Personality = "reckless"
)

// ParsePersonality maps a request string to a Personality. Empty means
// "use the difficulty default" and returns "".
func ParsePersonality(s string) (Personality, error) {
	switch p := Personality(s); p {
	case "", Moralist, Machiavellian, Cautious, Reckless:
		return p, nil
	}
	return "", fmt.Errorf("unknown personality %q", s)
}

// Allocation picks a shadow budget percentage for this turn. A campaign that
// has already been caught goes clean.
func (p Personality) Allocation(gs *campaign.GameState, role campaign.Role) float64 {
	if gs.Shadow(role).Caught {
		return 0
	}
	losing := gs.VoteLead(role) < 0
	switch p {
	case Machiavellian:
		if gs.Turn%5 == 0 || losing {
			return float64(botRange(25, 30))
		}
		return float64(botRange(0, 3))
	case Cautious:
		return float64(botRange(8, 12))
	case Reckless:
		if losing {
			return float64(botRange(22, 28))
		}
		return float64(botRange(15, 20))
	}
	return float64(botRange(0, 4))
}

// covertPreference is the order in which a bot considers off-book operations.
var covertPreference = []campaign.CovertOp{
	campaign.OppositionDirt,
	campaign.MediaManipulation,
	campaign.Sabotage,
	campaign.DataTheft,
	campaign.VoterSuppression,
}

// CovertReserve is how many times an operation's price the bot must hold
// before spending on it.
const CovertReserve = 3

// pickCovertOp returns the first operation the role is allowed and can
// comfortably afford, skipping smears against a shielded rival.
func pickCovertOp(gs *campaign.GameState, role campaign.Role) (campaign.CovertOp, bool) {
	shadow := gs.Shadow(role)
	rivalShielded := gs.Shadow(role.Other()).Integrity.Shield
	funds := gs.Agent(role).Funds
	for _, op := range covertPreference {
		if shadow.Allocation < op.MinAllocation() {
			continue
		}
		if funds < CovertReserve*shadow.OperationCost(op) {
			continue
		}
		if rivalShielded && (op == campaign.OppositionDirt || op == campaign.MediaManipulation) {
			continue
		}
		if op == campaign.DataTheft && shadow.StolenData {
			continue
		}
		return op, true
	}
	return 0, false
}
