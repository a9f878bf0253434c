package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

// ShadowView is one agent's off-book position as the player may see it.
// The rival's view hides its leverage and operations.
type ShadowView struct {
	Role            campaign.Role         `json:"role"`
	Zone            campaign.Zone         `json:"zone"`
	DetectionChance float64               `json:"detectionChance"`
	Scandals        []campaign.Scandal    `json:"scandals"`
	Caught          bool                  `json:"caught"`
	State           *campaign.ShadowState `json:"state,omitempty"`
}

// Shadow returns the shadow state of both agents: the player's in full and
// the opponent's public side.
func (s *GameService) Shadow(ctx context.Context, gameID, userID string) ([]ShadowView, error) {
	sess, err := s.session(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	gs := sess.view()
	out := make([]ShadowView, 0, len(campaign.Roles))
	for _, role := range campaign.Roles {
		st := gs.Shadow(role)
		v := ShadowView{
			Role:            role,
			Zone:            st.Zone(),
			DetectionChance: campaign.DetectionProbability(st.Allocation, st.CounterIntel, st.Shell),
			Scandals:        st.Scandals,
			Caught:          st.Caught,
		}
		if v.Scandals == nil {
			v.Scandals = []campaign.Scandal{}
		}
		if role == campaign.Primary {
			v.State = st
		} else {
			v.DetectionChance = 0
		}
		out = append(out, v)
	}
	return out, nil
}

// SetShadowAllocation commits the player's shadow budget share for this turn.
func (s *GameService) SetShadowAllocation(ctx context.Context, gameID, userID string, pct float64) error {
	return s.shadowCommand(ctx, gameID, userID, func(g *campaign.Game) (any, error) {
		return map[string]any{"allocation": pct}, g.SetShadowAllocation(campaign.Primary, pct)
	})
}

// ExecuteCovertOp runs a named covert operation for the player.
func (s *GameService) ExecuteCovertOp(ctx context.Context, gameID, userID string, op campaign.CovertOp) (campaign.OperationResult, error) {
	var res campaign.OperationResult
	err := s.shadowCommand(ctx, gameID, userID, func(g *campaign.Game) (any, error) {
		var err error
		res, err = g.ExecuteCovertOp(campaign.Primary, op)
		return res, err
	})
	return res, err
}

// AttemptDenial disputes one of the player's scandals.
func (s *GameService) AttemptDenial(ctx context.Context, gameID, userID, scandalID string) (bool, error) {
	var ok bool
	err := s.shadowCommand(ctx, gameID, userID, func(g *campaign.Game) (any, error) {
		var err error
		ok, err = g.AttemptDenial(campaign.Primary, scandalID)
		return map[string]any{"scandalId": scandalID, "denied": ok}, err
	})
	return ok, err
}

// EstablishShellCompany opens or deepens the player's shell company.
func (s *GameService) EstablishShellCompany(ctx context.Context, gameID, userID string) (float64, error) {
	var cost float64
	err := s.shadowCommand(ctx, gameID, userID, func(g *campaign.Game) (any, error) {
		var err error
		cost, err = g.EstablishShellCompany(campaign.Primary)
		return map[string]any{"shellCost": cost}, err
	})
	return cost, err
}

func (s *GameService) shadowCommand(ctx context.Context, gameID, userID string, fn func(g *campaign.Game) (any, error)) error {
	sess, err := s.session(ctx, gameID, userID)
	if err != nil {
		return err
	}
	var payload any
	if err := sess.Do(func(g *campaign.Game) error {
		var err error
		payload, err = fn(g)
		return err
	}); err != nil {
		return err
	}
	log.Debug().Str("gameId", gameID).Interface("result", payload).Msg("Shadow command applied")
	s.broadcaster.BroadcastGameEvent(gameID, EventShadowUpdate, payload)
	s.touch(ctx, gameID)
	return nil
}
