package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

// Table gives the engine serialised access to a live game. Do must not be
// held across the thinking delay, so the player can watch and query between
// opponent actions.
type Table interface {
	Do(fn func(g *campaign.Game) error) error
}

// Step records one opponent action for the last-action report.
type Step struct {
	Strategy Kind                `json:"strategy"`
	Action   campaign.Action     `json:"action"`
	Cost     float64             `json:"cost"`
	Summary  string              `json:"summary"`
	Result   campaign.Resolution `json:"-"`
}

// Report summarises an opponent turn.
type Report struct {
	Turn       int                       `json:"turn"`
	Role       campaign.Role             `json:"role"`
	Allocation float64                   `json:"allocation"`
	Denials    int                       `json:"denials"`
	CovertOp   *campaign.OperationResult `json:"covertOp,omitempty"`
	Steps      []Step                    `json:"steps"`
}

// Summary is a one-line description of the turn.
func (r *Report) Summary() string {
	if r == nil || len(r.Steps) == 0 {
		return "The opposing campaign held its fire this week."
	}
	last := r.Steps[len(r.Steps)-1]
	return fmt.Sprintf("Opponent played %d action(s); last: %s", len(r.Steps), last.Summary)
}

// Engine plays full turns for an AI-controlled agent.
type Engine struct {
	Difficulty  Difficulty
	Personality Personality
	Clock       Clock
	Delay       time.Duration
}

// NewEngine returns an engine for the given difficulty. An empty personality
// falls back to the difficulty default.
func NewEngine(d Difficulty, p Personality, clock Clock, delay time.Duration) *Engine {
	if d == "" {
		d = Medium
	}
	if p == "" {
		p = d.DefaultPersonality()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &Engine{Difficulty: d, Personality: p, Clock: clock, Delay: delay}
}

var errStop = errors.New("stop")

// PlayTurn runs one turn for role: shadow planning, then actions until the
// budget is spent or nothing is affordable, then ends the turn if the engine
// has not already done so. A role that cannot afford any action drops its
// shadow allocation to zero and passes. A cancelled ctx aborts between
// actions.
func (e *Engine) PlayTurn(ctx context.Context, t Table, role campaign.Role) (*Report, error) {
	report := &Report{Role: role}

	err := t.Do(func(g *campaign.Game) error {
		gs := g.State()
		if gs.Phase != campaign.PhasePlaying || gs.Current != role {
			return errStop
		}
		report.Turn = gs.Turn
		if !gs.CanAffordAny(role) {
			// A campaign that cannot act runs no shadow operation either.
			if err := g.SetShadowAllocation(role, 0); err != nil {
				return err
			}
			return nil
		}
		e.planShadow(g, role, report)
		return nil
	})
	if errors.Is(err, errStop) {
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("plan shadow: %w", err)
	}

	for {
		var done bool
		if err := t.Do(func(g *campaign.Game) error {
			done = e.finished(g.State(), role)
			return nil
		}); err != nil {
			return report, err
		}
		if done {
			break
		}
		if err := e.Clock.Sleep(ctx, e.Delay); err != nil {
			return report, err
		}

		var stop bool
		if err := t.Do(func(g *campaign.Game) error {
			gs := g.State()
			if e.finished(gs, role) {
				stop = true
				return nil
			}
			kind := ChooseStrategy(gs, role, e.Difficulty)
			a, used, ok := PlanWithFallback(gs, role, e.Difficulty, kind)
			if !ok {
				stop = true
				return nil
			}
			res, err := g.Submit(a)
			if err != nil {
				return fmt.Errorf("submit %s: %w", a.Type, err)
			}
			step := Step{Strategy: used, Action: a, Cost: res.Cost, Summary: describe(a, res), Result: res}
			report.Steps = append(report.Steps, step)
			log.Debug().Str("role", string(role)).Str("strategy", string(used)).Str("action", a.Type.String()).
				Strs("regions", a.Regions).Msg("Opponent acted")
			return nil
		}); err != nil {
			return report, err
		}
		if stop {
			break
		}
	}

	if err := t.Do(func(g *campaign.Game) error {
		gs := g.State()
		if gs.Phase == campaign.PhasePlaying && gs.Current == role {
			return g.EndTurn(role)
		}
		return nil
	}); err != nil {
		return report, fmt.Errorf("end turn: %w", err)
	}
	return report, nil
}

// finished reports whether the engine should stop acting this turn.
func (e *Engine) finished(gs *campaign.GameState, role campaign.Role) bool {
	return gs.Phase != campaign.PhasePlaying ||
		gs.Current != role ||
		gs.ActionsRemaining <= 0 ||
		!gs.CanAffordAny(role)
}

// planShadow sets the allocation, disputes open scandals and, on the harder
// settings, runs at most one covert operation.
func (e *Engine) planShadow(g *campaign.Game, role campaign.Role, report *Report) {
	gs := g.State()
	alloc := e.Personality.Allocation(gs, role)
	if err := g.SetShadowAllocation(role, alloc); err != nil {
		log.Warn().Err(err).Float64("allocation", alloc).Msg("Opponent allocation rejected")
	}
	report.Allocation = gs.Shadow(role).Allocation

	if e.Difficulty.AtLeast(Medium) {
		ids := make([]string, 0, len(gs.Shadow(role).Scandals))
		for _, s := range gs.Shadow(role).Scandals {
			ids = append(ids, s.ID)
		}
		for _, id := range ids {
			if ok, err := g.AttemptDenial(role, id); err == nil && ok {
				report.Denials++
			}
		}
	}

	if !e.Difficulty.AtLeast(Hard) {
		return
	}
	op, ok := pickCovertOp(gs, role)
	if !ok {
		return
	}
	res, err := g.ExecuteCovertOp(role, op)
	if err != nil {
		log.Debug().Err(err).Str("op", op.String()).Msg("Opponent covert op skipped")
		return
	}
	report.CovertOp = &res
}

func describe(a campaign.Action, res campaign.Resolution) string {
	s := a.Type.Label()
	if len(a.Regions) > 0 {
		s += " in " + strings.Join(a.Regions, ", ")
	}
	s += " (" + campaign.FormatMoney(res.Cost) + ")"
	if res.Blocked {
		s += ", blocked"
	}
	return s
}

