package campaign

import "errors"

var (
	ErrGameNotPlaying     = errors.New("game is not in progress")
	ErrGameEnded          = errors.New("game has ended")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrNoActionsRemaining = errors.New("no actions remaining this turn")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidTarget      = errors.New("invalid action target")
	ErrInvalidAction      = errors.New("invalid action type")
	ErrInvalidAllocation  = errors.New("shadow allocation out of range")
	ErrAllocationTooLow   = errors.New("shadow allocation too low for operation")
	ErrScandalNotFound    = errors.New("scandal not found")
	ErrAlreadyDenied      = errors.New("scandal already denied this turn")
	ErrNoRegions          = errors.New("region catalog is empty")
)

// Rand is the random source the engine draws from. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// ActionBudgeter decides how many actions an agent gets when its turn starts.
type ActionBudgeter interface {
	ActionBudget(gs *GameState, role Role) int
}

// FixedBudget grants the same allowance every turn.
type FixedBudget int

func (b FixedBudget) ActionBudget(*GameState, Role) int { return int(b) }

// Game drives a GameState through its command surface. A Game is not safe
// for concurrent use; its owner serialises access.
type Game struct {
	state    *GameState
	rng      Rand
	budgeter ActionBudgeter
	feed     []Event
}

// NewGame wraps state with the collaborators that drive it.
func NewGame(state *GameState, rng Rand, budgeter ActionBudgeter) *Game {
	if budgeter == nil {
		budgeter = FixedBudget(1)
	}
	return &Game{state: state, rng: rng, budgeter: budgeter}
}

// State returns the live ledger. Callers must not mutate it.
func (g *Game) State() *GameState { return g.state }

// Start moves a game out of setup and hands the first turn to the primary.
func (g *Game) Start() error {
	gs := g.state
	if gs.Phase != PhaseSetup {
		return ErrGameNotPlaying
	}
	if len(gs.Regions) == 0 {
		return ErrNoRegions
	}
	gs.Phase = PhasePlaying
	gs.Current = Primary
	if gs.Turn < 1 {
		gs.Turn = 1
	}
	p, o := gs.Tally()
	gs.History = []TallySnapshot{{Turn: 0, Primary: p, Opponent: o}}
	g.grantActions()
	return nil
}

func (g *Game) guard(role Role) error {
	gs := g.state
	switch gs.Phase {
	case PhasePlaying:
	case PhaseEnded:
		return ErrGameEnded
	default:
		return ErrGameNotPlaying
	}
	if role != gs.Current {
		return ErrNotYourTurn
	}
	return nil
}

func (g *Game) validateTargets(a Action) error {
	if !a.Type.Valid() {
		return ErrInvalidAction
	}
	if !a.Type.Regional() {
		if len(a.Regions) > 0 {
			return ErrInvalidTarget
		}
		return nil
	}
	if len(a.Regions) == 0 {
		return ErrInvalidTarget
	}
	seen := make(map[string]bool, len(a.Regions))
	for _, id := range a.Regions {
		if seen[id] || g.state.Region(id) == nil {
			return ErrInvalidTarget
		}
		seen[id] = true
	}
	return nil
}

// Submit validates and resolves an action for its actor. Nothing is mutated
// when an error is returned. The actor's turn ends when its allowance runs
// out or it can no longer afford the cheapest action.
func (g *Game) Submit(a Action) (Resolution, error) {
	gs := g.state
	if err := g.guard(a.Actor); err != nil {
		return Resolution{}, err
	}
	if gs.ActionsRemaining <= 0 {
		return Resolution{}, ErrNoActionsRemaining
	}
	if err := g.validateTargets(a); err != nil {
		return Resolution{}, err
	}
	if gs.Agent(a.Actor).Funds < a.Cost() {
		return Resolution{}, ErrInsufficientFunds
	}

	a.Regions = append([]string(nil), a.Regions...)
	a.Turn = gs.Turn
	res := g.resolve(a)
	gs.ActionsUsed = append(gs.ActionsUsed, a)
	gs.ActionsRemaining--

	if gs.ActionsRemaining == 0 || !gs.CanAffordAny(a.Actor) {
		g.endTurn()
		res.TurnEnded = true
	}
	return res, nil
}

// EndTurn ends the role's turn early.
func (g *Game) EndTurn(role Role) error {
	if err := g.guard(role); err != nil {
		return err
	}
	g.endTurn()
	return nil
}

func (g *Game) endTurn() {
	gs := g.state
	actor := gs.Current

	g.processShadowTurn(actor)
	g.rollEvent()

	gs.ActionsUsed = nil
	gs.Current = actor.Other()
	if gs.Current == Primary {
		gs.Turn++
		gs.recordTally()
	}
	if gs.Turn > gs.MaxTurns {
		gs.Phase = PhaseEnded
		gs.ActionsRemaining = 0
		gs.ActionsGranted = 0
		return
	}
	g.grantActions()
}

func (g *Game) grantActions() {
	gs := g.state
	n := clampInt(g.budgeter.ActionBudget(gs, gs.Current), 1, MaxActionsPerTurn)
	gs.ActionsGranted = n
	gs.ActionsRemaining = n
}

// SetShadowAllocation sets the role's shadow allocation percentage.
func (g *Game) SetShadowAllocation(role Role, pct float64) error {
	if err := g.guard(role); err != nil {
		return err
	}
	if pct < 0 || pct > MaxShadowAllocation {
		return ErrInvalidAllocation
	}
	g.state.Shadow(role).Allocation = pct
	return nil
}

// ExecuteCovertOp runs a covert operation for the role.
func (g *Game) ExecuteCovertOp(role Role, op CovertOp) (OperationResult, error) {
	if err := g.guard(role); err != nil {
		return OperationResult{}, err
	}
	if !op.Valid() {
		return OperationResult{}, ErrInvalidAction
	}
	return g.runCovertOp(role, op)
}

// AttemptDenial tries to make one of the role's scandals go away.
func (g *Game) AttemptDenial(role Role, scandalID string) (bool, error) {
	if err := g.guard(role); err != nil {
		return false, err
	}
	return g.attemptDenial(role, scandalID)
}

// EstablishShellCompany opens or deepens the role's shell company and
// returns what it cost.
func (g *Game) EstablishShellCompany(role Role) (float64, error) {
	if err := g.guard(role); err != nil {
		return 0, err
	}
	return g.establishShell(role)
}

// DrainEvents returns the events emitted since the last call.
func (g *Game) DrainEvents() []Event {
	out := g.feed
	g.feed = nil
	return out
}

func (g *Game) emit(e Event) {
	g.state.pushEvent(e)
	g.feed = append(g.feed, e)
}
