package bot

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/polforge/api/internal/model"
	"github.com/freeeve/polforge/api/internal/repository"
	"github.com/freeeve/polforge/api/pkg/campaign"
)

// ArenaConfig configures a single AI-vs-AI race.
type ArenaConfig struct {
	PrimaryDifficulty   Difficulty
	OpponentDifficulty  Difficulty
	PrimaryPersonality  Personality
	OpponentPersonality Personality
	MaxTurns            int                     // 0 = campaign.DefaultMaxTurns
	Seed                int64                   // 0 = random
	Regions             []campaign.Region       // nil = built-in regions
	Budgeter            campaign.ActionBudgeter // nil = one action per turn
}

// ArenaResult describes the outcome of a completed arena race.
type ArenaResult struct {
	GameID   string           `json:"game_id"`
	Seed     int64            `json:"seed"`
	Outcome  campaign.Outcome `json:"outcome"`
	Turns    int              `json:"turns"`
	Actions  map[string]int   `json:"actions"` // role -> actions played
	Scandals int              `json:"scandals"`
	Duration time.Duration    `json:"duration"`
}

// Match converts the result to its stored form.
func (r *ArenaResult) Match(cfg ArenaConfig) *model.MatchResult {
	return &model.MatchResult{
		ID:                 r.GameID,
		Seed:               r.Seed,
		PrimaryDifficulty:  string(cfg.PrimaryDifficulty),
		OpponentDifficulty: string(cfg.OpponentDifficulty),
		Winner:             string(r.Outcome.Winner),
		Outright:           r.Outcome.Outright,
		PrimaryVotes:       r.Outcome.PrimaryVotes,
		OpponentVotes:      r.Outcome.OpponentVotes,
		Scandals:           r.Scandals,
		DurationMs:         r.Duration.Milliseconds(),
	}
}

// arenaTable is a mutex-guarded game for engines playing without a server.
type arenaTable struct {
	mu   sync.Mutex
	game *campaign.Game
}

func (t *arenaTable) Do(fn func(g *campaign.Game) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := fn(t.game)
	t.game.DrainEvents()
	return err
}

// RunGame plays a full race with both campaigns AI-controlled and records the
// result. Pass a nil repository for dry-run mode.
func RunGame(ctx context.Context, cfg ArenaConfig, matches repository.MatchRepository) (*ArenaResult, error) {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = campaign.DefaultMaxTurns
	}
	if cfg.PrimaryDifficulty == "" {
		cfg.PrimaryDifficulty = Medium
	}
	if cfg.OpponentDifficulty == "" {
		cfg.OpponentDifficulty = Medium
	}
	regions := cfg.Regions
	if regions == nil {
		regions = campaign.DefaultRegions()
	}

	gs := campaign.NewGameState(regions)
	gs.MaxTurns = cfg.MaxTurns
	gs.Seed = cfg.Seed
	gs.Primary.AI = true
	gs.Opponent.AI = true

	table := &arenaTable{game: campaign.NewGame(gs, rand.New(rand.NewSource(cfg.Seed)), cfg.Budgeter)}
	if err := table.Do(func(g *campaign.Game) error { return g.Start() }); err != nil {
		return nil, fmt.Errorf("start race: %w", err)
	}

	engines := map[campaign.Role]*Engine{
		campaign.Primary:  NewEngine(cfg.PrimaryDifficulty, cfg.PrimaryPersonality, NoDelay{}, 0),
		campaign.Opponent: NewEngine(cfg.OpponentDifficulty, cfg.OpponentPersonality, NoDelay{}, 0),
	}

	result := &ArenaResult{
		GameID:  uuid.NewString(),
		Seed:    cfg.Seed,
		Actions: make(map[string]int),
	}
	started := time.Now()

	// Each turn has two halves; the bound only guards against an engine that
	// never hands over.
	for range 2*cfg.MaxTurns + 2 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var role campaign.Role
		var over bool
		table.Do(func(g *campaign.Game) error {
			role = g.State().Current
			over = g.State().IsOver()
			return nil
		})
		if over {
			break
		}
		report, err := engines[role].PlayTurn(ctx, table, role)
		if err != nil {
			return nil, fmt.Errorf("play %s turn: %w", role, err)
		}
		result.Actions[string(role)] += len(report.Steps)
	}

	table.Do(func(g *campaign.Game) error {
		final := g.State()
		result.Outcome = final.Outcome()
		result.Turns = min(final.Turn, final.MaxTurns)
		result.Scandals = len(final.PrimaryShadow.Scandals) + len(final.OpponentShadow.Scandals)
		if !final.IsOver() {
			log.Warn().Str("gameId", result.GameID).Int("turn", final.Turn).Msg("Arena race stopped before election day")
		}
		return nil
	})
	result.Duration = time.Since(started)

	if matches != nil {
		if err := matches.SaveMatch(ctx, result.Match(cfg)); err != nil {
			return result, fmt.Errorf("save match: %w", err)
		}
	}
	return result, nil
}

// ParseMatchup handles "hard-vs-easy" style strings. A single tier plays
// itself.
func ParseMatchup(s string) (primary, opponent Difficulty, err error) {
	left, right, found := strings.Cut(s, "-vs-")
	if !found {
		right = left
	}
	if primary, err = ParseDifficulty(left); err != nil {
		return "", "", err
	}
	if opponent, err = ParseDifficulty(right); err != nil {
		return "", "", err
	}
	return primary, opponent, nil
}
