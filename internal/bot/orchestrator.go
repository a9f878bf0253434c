package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

// WebSocket event types the orchestrator reacts to. They match the server's
// event names.
const (
	eventSubscribed  = "subscribed"
	eventSubscribeNo = "subscribe_denied"
	eventTurnChanged = "turn_changed"
	eventGameEnded   = "game_ended"
)

// Orchestrator plays the primary campaign against a running server, using
// the same playbooks the server's opponent uses.
type Orchestrator struct {
	client     *Client
	difficulty Difficulty
	opponent   Difficulty
	seed       int64
	turnWait   time.Duration
}

// NewOrchestrator creates an Orchestrator. difficulty drives the bot's own
// planning; opponent is the tier requested for the server's AI.
func NewOrchestrator(baseURL string, difficulty, opponent Difficulty, seed int64, turnWait time.Duration) *Orchestrator {
	return &Orchestrator{
		client:     NewClient("Bot "+string(difficulty), baseURL),
		difficulty: difficulty,
		opponent:   opponent,
		seed:       seed,
		turnWait:   turnWait,
	}
}

// Run executes a full race: login, create, subscribe, start, play loop. It
// returns the final outcome.
func (o *Orchestrator) Run(ctx context.Context) (*campaign.Outcome, error) {
	log.Info().Str("difficulty", string(o.difficulty)).Str("opponent", string(o.opponent)).Msg("Starting bot race")

	c := o.client
	if err := c.Login(); err != nil {
		return nil, fmt.Errorf("login %s: %w", c.Name(), err)
	}

	gameID, err := c.CreateGame(fmt.Sprintf("%s vs %s", o.difficulty, o.opponent), o.opponent, o.seed)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	log.Info().Str("gameId", gameID).Msg("Game created")

	if err := c.ConnectWS(); err != nil {
		return nil, fmt.Errorf("ws connect: %w", err)
	}
	defer c.CloseWS()
	if err := c.SubscribeGame(gameID); err != nil {
		return nil, fmt.Errorf("ws subscribe: %w", err)
	}
	ev, err := o.waitForEvent(ctx, eventSubscribed, eventSubscribeNo)
	if err != nil {
		return nil, fmt.Errorf("wait for subscription: %w", err)
	}
	if ev.Type == eventSubscribeNo {
		return nil, fmt.Errorf("subscription refused: %v", ev.Data["error"])
	}

	if err := c.StartGame(gameID); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	log.Info().Msg("Game started")

	return o.playLoop(ctx, gameID)
}

// playLoop plays each of the primary's turns, then waits for the opponent to
// hand back or for the race to end.
func (o *Orchestrator) playLoop(ctx context.Context, gameID string) (*campaign.Outcome, error) {
	for {
		if ctx.Err() != nil {
			log.Info().Msg("Context cancelled, stopping bot")
			return nil, ctx.Err()
		}

		gs, err := o.client.State(gameID)
		if err != nil {
			return nil, fmt.Errorf("get state: %w", err)
		}
		if gs.IsOver() {
			out := gs.Outcome()
			return &out, nil
		}
		if gs.Current == campaign.Primary {
			if err := o.playTurn(gameID, gs); err != nil {
				return nil, err
			}
		}

		ev, err := o.waitForTurn(ctx)
		if err != nil {
			return nil, fmt.Errorf("wait for turn: %w", err)
		}
		if ev.Type == eventGameEnded {
			log.Info().Any("winner", ev.Data["winner"]).Msg("Game ended")
		}
	}
}

// playTurn submits actions until the budget or the purse runs out, then ends
// the turn.
func (o *Orchestrator) playTurn(gameID string, gs *campaign.GameState) error {
	log.Info().Int("turn", gs.Turn).Int("actions", gs.ActionsRemaining).Msg("Playing turn")
	for gs.Current == campaign.Primary && gs.ActionsRemaining > 0 && gs.CanAffordAny(campaign.Primary) {
		kind := ChooseStrategy(gs, campaign.Primary, o.difficulty)
		a, used, ok := PlanWithFallback(gs, campaign.Primary, o.difficulty, kind)
		if !ok {
			break
		}
		if _, err := o.client.SubmitAction(gameID, a); err != nil {
			return fmt.Errorf("submit %s: %w", a.Type, err)
		}
		log.Debug().Str("strategy", string(used)).Str("action", a.Type.String()).Strs("regions", a.Regions).Msg("Bot acted")

		next, err := o.client.State(gameID)
		if err != nil {
			return fmt.Errorf("get state: %w", err)
		}
		gs = next
	}
	if gs.Current != campaign.Primary || gs.IsOver() {
		return nil
	}
	if err := o.client.EndTurn(gameID); err != nil {
		return fmt.Errorf("end turn: %w", err)
	}
	return nil
}

// waitForTurn blocks until the primary is to move again or the race ends.
func (o *Orchestrator) waitForTurn(ctx context.Context) (WSEvent, error) {
	for {
		ev, err := o.waitForEvent(ctx, eventTurnChanged, eventGameEnded)
		if err != nil {
			return ev, err
		}
		if ev.Type == eventGameEnded || ev.Data["current"] == string(campaign.Primary) {
			return ev, nil
		}
	}
}

// waitForEvent blocks until one of the given event types is received or context cancels.
func (o *Orchestrator) waitForEvent(ctx context.Context, eventTypes ...string) (WSEvent, error) {
	typeSet := make(map[string]bool)
	for _, t := range eventTypes {
		typeSet[t] = true
	}

	timeout := time.After(o.turnWait)
	for {
		select {
		case <-ctx.Done():
			return WSEvent{}, ctx.Err()
		case <-timeout:
			return WSEvent{}, fmt.Errorf("timeout waiting for events %v", eventTypes)
		case event, ok := <-o.client.Events():
			if !ok {
				return WSEvent{}, fmt.Errorf("ws connection closed")
			}
			if typeSet[event.Type] {
				return event, nil
			}
			log.Debug().Str("type", event.Type).Msg("Ignoring event")
		}
	}
}
