package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/freeeve/polforge/api/internal/bot"
	"github.com/freeeve/polforge/api/pkg/campaign"
)

// session is a live game held in memory. All access to the game goes through
// Do, which serialises callers: the player's commands, the opponent engine
// and snapshot encoding never overlap.
type session struct {
	id          string
	ownerID     string
	personality bot.Personality
	engine      *bot.Engine
	rngSeed     int64
	publish     func(gameID string, evs []campaign.Event)

	mu         sync.Mutex
	game       *campaign.Game
	report     *bot.Report
	lastActive time.Time
	thinking   bool
	cancel     context.CancelFunc
}

// newSession wraps gs in a live game whose rolls come from rngSeed. A new
// race uses its own seed; a restored one gets a fresh seed so draws made
// since the last save are not replayed.
func newSession(id, ownerID string, gs *campaign.GameState, rngSeed int64, budgeter campaign.ActionBudgeter, engine *bot.Engine, p bot.Personality) *session {
	rng := rand.New(rand.NewSource(rngSeed))
	return &session{
		id:          id,
		ownerID:     ownerID,
		personality: p,
		engine:      engine,
		rngSeed:     rngSeed,
		game:        campaign.NewGame(gs, rng, budgeter),
		lastActive:  time.Now(),
	}
}

// Do runs fn with exclusive access to the game and publishes any events it
// produced once the lock is released. It implements bot.Table.
func (s *session) Do(fn func(g *campaign.Game) error) error {
	s.mu.Lock()
	err := fn(s.game)
	evs := s.game.DrainEvents()
	s.lastActive = time.Now()
	s.mu.Unlock()

	if len(evs) > 0 && s.publish != nil {
		s.publish(s.id, evs)
	}
	return err
}

// view returns a copy of the ledger.
func (s *session) view() *campaign.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.State().Clone()
}

func (s *session) lastReport() *bot.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// claimOpponentTurn marks the opponent as thinking. It returns false when the
// game is not waiting on the opponent or a turn is already being played.
func (s *session) claimOpponentTurn(cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs := s.game.State()
	if s.thinking || s.engine == nil || gs.Phase != campaign.PhasePlaying || gs.Current != campaign.Opponent {
		return false
	}
	s.thinking = true
	s.cancel = cancel
	return true
}

func (s *session) finishOpponentTurn(report *bot.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thinking = false
	s.cancel = nil
	if report != nil {
		s.report = report
	}
}

func (s *session) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thinking
}

// stop cancels an opponent turn in progress.
func (s *session) stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
