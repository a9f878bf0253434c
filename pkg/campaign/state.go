package campaign

import "fmt"

// Phase is the lifecycle stage of a race.
type Phase string

const (
	PhaseSetup   Phase = "setup"
	PhasePlaying Phase = "playing"
	PhaseEnded   Phase = "ended"
)

// Defaults for a standard race.
const (
	DefaultMaxTurns     = 20
	DefaultWinThreshold = 270
	MaxActionsPerTurn   = 4
	MaxRecentEvents     = 5
)

// TallySnapshot records the electoral count at a turn boundary.
type TallySnapshot struct {
	Turn     int `json:"turn"`
	Primary  int `json:"primary"`
	Opponent int `json:"opponent"`
}

// GameState is the campaign ledger: everything needed to resume a race.
type GameState struct {
	Phase        Phase  `json:"phase"`
	Turn         int    `json:"turn"`
	MaxTurns     int    `json:"maxTurns"`
	WinThreshold int    `json:"winThreshold"`
	Current      Role   `json:"current"`
	Seed         int64  `json:"seed"`
	Difficulty   string `json:"difficulty,omitempty"`

	ActionsRemaining int      `json:"actionsRemaining"`
	ActionsGranted   int      `json:"actionsGranted"`
	ActionsUsed      []Action `json:"actionsUsed"`

	Primary  Agent    `json:"primaryAgent"`
	Opponent Agent    `json:"opponentAgent"`
	Regions  []Region `json:"regions"`

	Events  []Event         `json:"events"`
	History []TallySnapshot `json:"history"`

	PrimaryShadow  ShadowState `json:"primaryShadow"`
	OpponentShadow ShadowState `json:"opponentShadow"`
}

// NewGameState returns a race in setup over the given regions.
func NewGameState(regions []Region) *GameState {
	rs := make([]Region, len(regions))
	copy(rs, regions)
	return &GameState{
		Phase:          PhaseSetup,
		Turn:           1,
		MaxTurns:       DefaultMaxTurns,
		WinThreshold:   DefaultWinThreshold,
		Current:        Primary,
		Primary:        NewPrimaryAgent(),
		Opponent:       NewOpponentAgent(),
		Regions:        rs,
		PrimaryShadow:  NewShadowState(),
		OpponentShadow: NewShadowState(),
	}
}

// Agent returns the mutable agent for the role.
func (gs *GameState) Agent(role Role) *Agent {
	if role == Primary {
		return &gs.Primary
	}
	return &gs.Opponent
}

// Shadow returns the mutable shadow state for the role.
func (gs *GameState) Shadow(role Role) *ShadowState {
	if role == Primary {
		return &gs.PrimaryShadow
	}
	return &gs.OpponentShadow
}

// Region returns the region with the given ID, or nil.
func (gs *GameState) Region(id string) *Region {
	for i := range gs.Regions {
		if gs.Regions[i].ID == id {
			return &gs.Regions[i]
		}
	}
	return nil
}

// Tally returns the electoral count for each side. A region with equal
// support is awarded to neither.
func (gs *GameState) Tally() (primary, opponent int) {
	for i := range gs.Regions {
		switch gs.Regions[i].Leader() {
		case Primary:
			primary += gs.Regions[i].ElectoralVotes
		case Opponent:
			opponent += gs.Regions[i].ElectoralVotes
		}
	}
	return primary, opponent
}

// ElectoralVotes returns the count currently held by the role.
func (gs *GameState) ElectoralVotes(role Role) int {
	p, o := gs.Tally()
	if role == Primary {
		return p
	}
	return o
}

// VoteLead returns the role's electoral lead (negative when behind).
func (gs *GameState) VoteLead(role Role) int {
	p, o := gs.Tally()
	if role == Primary {
		return p - o
	}
	return o - p
}

// TurnsRemaining returns how many full turns are left after the current one.
func (gs *GameState) TurnsRemaining() int {
	if n := gs.MaxTurns - gs.Turn; n > 0 {
		return n
	}
	return 0
}

// WeekLabel renders the turn counter the way saves are listed.
func (gs *GameState) WeekLabel() string {
	return fmt.Sprintf("Week %d of %d", gs.Turn, gs.MaxTurns)
}

// CanAffordAny reports whether the role can pay for the cheapest action.
func (gs *GameState) CanAffordAny(role Role) bool {
	return gs.Agent(role).Funds >= CheapestActionCost()
}

// IsOver reports whether the race has ended.
func (gs *GameState) IsOver() bool {
	return gs.Phase == PhaseEnded
}

// Outcome is the result of a race. Winner is "" on a draw.
type Outcome struct {
	Winner        Role `json:"winner,omitempty"`
	Outright      bool `json:"outright"`
	Draw          bool `json:"draw"`
	PrimaryVotes  int  `json:"primaryVotes"`
	OpponentVotes int  `json:"opponentVotes"`
}

// Outcome decides the race from the current tally. The side holding strictly
// more electoral votes wins; reaching WinThreshold marks the win outright.
// An exact tie is a draw.
func (gs *GameState) Outcome() Outcome {
	p, o := gs.Tally()
	out := Outcome{PrimaryVotes: p, OpponentVotes: o}
	switch {
	case p > o:
		out.Winner = Primary
		out.Outright = p >= gs.WinThreshold
	case o > p:
		out.Winner = Opponent
		out.Outright = o >= gs.WinThreshold
	default:
		out.Draw = true
	}
	return out
}

func (gs *GameState) recordTally() {
	p, o := gs.Tally()
	gs.History = append(gs.History, TallySnapshot{Turn: gs.Turn, Primary: p, Opponent: o})
}

func (gs *GameState) pushEvent(e Event) {
	gs.Events = append([]Event{e}, gs.Events...)
	if len(gs.Events) > MaxRecentEvents {
		gs.Events = gs.Events[:MaxRecentEvents]
	}
}

// Clone returns a deep copy of the state.
func (gs *GameState) Clone() *GameState {
	c := *gs
	c.ActionsUsed = make([]Action, len(gs.ActionsUsed))
	for i, a := range gs.ActionsUsed {
		a.Regions = append([]string(nil), a.Regions...)
		c.ActionsUsed[i] = a
	}
	c.Regions = append([]Region(nil), gs.Regions...)
	c.Events = append([]Event(nil), gs.Events...)
	c.History = append([]TallySnapshot(nil), gs.History...)
	c.PrimaryShadow = gs.PrimaryShadow.clone()
	c.OpponentShadow = gs.OpponentShadow.clone()
	return &c
}
