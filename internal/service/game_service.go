package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/polforge/api/internal/bot"
	"github.com/freeeve/polforge/api/internal/catalog"
	"github.com/freeeve/polforge/api/internal/model"
	"github.com/freeeve/polforge/api/internal/repository"
	"github.com/freeeve/polforge/api/internal/snapshot"
	"github.com/freeeve/polforge/api/pkg/advisor"
	"github.com/freeeve/polforge/api/pkg/campaign"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrNotOwner       = errors.New("game belongs to another player")
	ErrCouldNotResume = errors.New("could not resume saved game, started a fresh one")
	ErrNeedsResume    = errors.New("saved game must be resumed first")
	ErrNoReport       = errors.New("opponent has not acted yet")
	ErrBadRequest     = errors.New("invalid game settings")
)

const (
	persistTimeout  = 10 * time.Second
	externalTimeout = 5 * time.Second
)

// Recommender supplies advice from outside the built-in advisor.
type Recommender interface {
	Recommendations(ctx context.Context, gs *campaign.GameState, role campaign.Role) ([]advisor.Recommendation, error)
}

// Options tunes a GameService. Zero values fall back to the campaign defaults.
type Options struct {
	MaxTurns      int
	ThinkingDelay time.Duration
	IdleTTL       time.Duration
	Clock         bot.Clock
	Catalog       *catalog.Catalog
	External      Recommender
	Seed          func() int64
}

// GameService owns live campaigns: it routes player commands to the engine,
// plays the AI opponent in the background and persists progress at every
// hand-off between agents.
type GameService struct {
	games       repository.GameRepository
	snapshots   repository.SnapshotRepository
	cache       repository.GameCache
	broadcaster Broadcaster
	advisor     *advisor.Advisor
	opts        Options

	sessions sync.Map // gameID -> *session
	wg       sync.WaitGroup
}

// NewGameService creates a GameService.
func NewGameService(
	games repository.GameRepository,
	snapshots repository.SnapshotRepository,
	cache repository.GameCache,
	broadcaster Broadcaster,
	opts Options,
) *GameService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = campaign.DefaultMaxTurns
	}
	if opts.Clock == nil {
		opts.Clock = bot.RealClock{}
	}
	if opts.Seed == nil {
		opts.Seed = func() int64 { return time.Now().UnixNano() }
	}
	return &GameService{
		games:       games,
		snapshots:   snapshots,
		cache:       cache,
		broadcaster: broadcaster,
		advisor:     advisor.New(),
		opts:        opts,
	}
}

// CreateParams are the player's choices for a new campaign.
type CreateParams struct {
	Name         string `json:"name"`
	Difficulty   string `json:"difficulty"`
	Personality  string `json:"personality"`
	PrimaryName  string `json:"primary_name"`
	OpponentName string `json:"opponent_name"`
	Seed         int64  `json:"seed"`
}

// CreateGame sets up a new race in the setup phase. The player is always the
// primary; the opponent is AI-controlled.
func (s *GameService) CreateGame(ctx context.Context, ownerID string, p CreateParams) (*model.Game, error) {
	d, err := bot.ParseDifficulty(p.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	pers, err := bot.ParsePersonality(p.Personality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if pers == "" {
		pers = d.DefaultPersonality()
	}
	if p.Seed == 0 {
		p.Seed = s.opts.Seed()
	}

	gs := s.newState(p, d)
	rec := &model.Game{
		ID:           uuid.NewString(),
		Name:         p.Name,
		OwnerID:      ownerID,
		Status:       model.StatusSetup,
		Difficulty:   string(d),
		Personality:  string(pers),
		Turn:         gs.Turn,
		MaxTurns:     gs.MaxTurns,
		Week:         gs.WeekLabel(),
		PrimaryName:  gs.Primary.Name,
		OpponentName: gs.Opponent.Name,
	}
	if rec.Name == "" {
		rec.Name = fmt.Sprintf("%s vs %s", gs.Primary.Name, gs.Opponent.Name)
	}
	if err := s.games.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	sess := s.register(rec.ID, ownerID, gs, gs.Seed, d, pers)
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}

	log.Info().Str("gameId", rec.ID).Str("ownerId", ownerID).Str("difficulty", string(d)).
		Str("personality", string(pers)).Int("regions", len(gs.Regions)).Msg("Game created")
	s.broadcaster.BroadcastGameEvent(rec.ID, EventGameCreated, map[string]any{"name": rec.Name})
	return rec, nil
}

// newState builds a fresh ledger over the catalog's regions.
func (s *GameService) newState(p CreateParams, d bot.Difficulty) *campaign.GameState {
	gs := campaign.NewGameState(nil)
	s.opts.Catalog.Apply(gs, rand.New(rand.NewSource(p.Seed)))
	gs.MaxTurns = s.opts.MaxTurns
	gs.Seed = p.Seed
	gs.Difficulty = string(d)
	if p.PrimaryName != "" {
		gs.Primary.Name = p.PrimaryName
	}
	if p.OpponentName != "" {
		gs.Opponent.Name = p.OpponentName
	}
	return gs
}

// wrap builds a session around gs without making it live.
func (s *GameService) wrap(id, ownerID string, gs *campaign.GameState, rngSeed int64, d bot.Difficulty, p bot.Personality) *session {
	var engine *bot.Engine
	if gs.Opponent.AI {
		engine = bot.NewEngine(d, p, s.opts.Clock, s.opts.ThinkingDelay)
	}
	sess := newSession(id, ownerID, gs, rngSeed, s.advisor, engine, p)
	sess.publish = s.publishEvents
	return sess
}

// register wraps gs in a session and makes it the live copy.
func (s *GameService) register(id, ownerID string, gs *campaign.GameState, rngSeed int64, d bot.Difficulty, p bot.Personality) *session {
	sess := s.wrap(id, ownerID, gs, rngSeed, d, p)
	s.sessions.Store(id, sess)
	return sess
}

func (s *GameService) publishEvents(gameID string, evs []campaign.Event) {
	for _, e := range evs {
		s.broadcaster.BroadcastGameEvent(gameID, EventNews, e)
	}
}

// GetGame returns the listing record for a game the caller owns.
func (s *GameService) GetGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	rec, err := s.games.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrGameNotFound
	}
	if rec.OwnerID != userID {
		return nil, ErrNotOwner
	}
	return rec, nil
}

// ListGames returns the caller's saved campaigns, most recently played first.
func (s *GameService) ListGames(ctx context.Context, userID string) ([]model.Game, error) {
	return s.games.ListByOwner(ctx, userID)
}

// session returns the live session for a game, restoring it from storage
// when it is not in memory.
func (s *GameService) session(ctx context.Context, gameID, userID string) (*session, error) {
	if v, ok := s.sessions.Load(gameID); ok {
		sess := v.(*session)
		if sess.ownerID != userID {
			return nil, ErrNotOwner
		}
		return sess, nil
	}
	rec, err := s.GetGame(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	sess, err := s.restore(ctx, rec)
	if err != nil {
		if errors.Is(err, snapshot.ErrIncompatible) {
			return nil, ErrNeedsResume
		}
		return nil, err
	}
	s.startOpponent(sess)
	return sess, nil
}

// restore decodes the newest save for rec and registers it. The cached live
// state is preferred over the durable snapshot when both exist.
func (s *GameService) restore(ctx context.Context, rec *model.Game) (*session, error) {
	data, err := s.latestState(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	env, err := snapshot.Decode(data)
	if err != nil {
		return nil, err
	}

	d, err := bot.ParseDifficulty(firstNonEmpty(env.Meta.Difficulty, rec.Difficulty))
	if err != nil {
		d = bot.Medium
	}
	p, err := bot.ParsePersonality(firstNonEmpty(env.Meta.Personality, rec.Personality))
	if err != nil || p == "" {
		p = d.DefaultPersonality()
	}

	sess := s.wrap(rec.ID, rec.OwnerID, env.State, s.opts.Seed(), d, p)
	if v, loaded := s.sessions.LoadOrStore(rec.ID, sess); loaded {
		return v.(*session), nil
	}
	log.Info().Str("gameId", rec.ID).Str("week", env.Meta.Week).Time("savedAt", env.SavedAt).
		Int64("rngSeed", sess.rngSeed).Msg("Game restored")
	return sess, nil
}

func (s *GameService) latestState(ctx context.Context, gameID string) ([]byte, error) {
	if s.cache != nil {
		data, err := s.cache.GetGameState(ctx, gameID)
		if err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to read cached game state")
		} else if data != nil {
			return data, nil
		}
	}
	snap, err := s.snapshots.LatestSnapshot(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: no save for game %s", snapshot.ErrIncompatible, gameID)
	}
	return snap.Data, nil
}

// ResumeGame loads a saved campaign. When the save cannot be read it is
// discarded, a fresh race is created under the same ID, and ErrCouldNotResume
// is returned together with the fresh record.
func (s *GameService) ResumeGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	rec, err := s.GetGame(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	if _, ok := s.sessions.Load(gameID); ok {
		return rec, nil
	}

	sess, err := s.restore(ctx, rec)
	if err == nil {
		s.startOpponent(sess)
		return rec, nil
	}
	if !errors.Is(err, snapshot.ErrIncompatible) {
		return nil, err
	}

	log.Warn().Err(err).Str("gameId", gameID).Msg("Discarding incompatible save")
	if err := s.snapshots.DeleteSnapshots(ctx, gameID); err != nil {
		return nil, fmt.Errorf("discard snapshots: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.DeleteGameData(ctx, gameID); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to clear cached game state")
		}
	}

	d, _ := bot.ParseDifficulty(rec.Difficulty)
	p, _ := bot.ParsePersonality(rec.Personality)
	if p == "" {
		p = d.DefaultPersonality()
	}
	gs := s.newState(CreateParams{
		Seed:         s.opts.Seed(),
		PrimaryName:  rec.PrimaryName,
		OpponentName: rec.OpponentName,
	}, d)
	sess = s.register(gameID, rec.OwnerID, gs, gs.Seed, d, p)
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	fresh, err := s.games.FindByID(ctx, gameID)
	if err != nil || fresh == nil {
		fresh = rec
	}
	return fresh, ErrCouldNotResume
}

// StartGame moves a campaign from setup to playing.
func (s *GameService) StartGame(ctx context.Context, gameID, userID string) (*campaign.GameState, error) {
	sess, err := s.session(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	if err := sess.Do(func(g *campaign.Game) error { return g.Start() }); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, sess); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to save started game")
	}
	s.touch(ctx, gameID)

	gs := sess.view()
	log.Info().Str("gameId", gameID).Int("actions", gs.ActionsGranted).Msg("Game started")
	s.broadcaster.BroadcastGameEvent(gameID, EventGameStarted, map[string]any{
		"turn":             gs.Turn,
		"actionsRemaining": gs.ActionsRemaining,
	})
	return gs, nil
}

// State returns a copy of the ledger.
func (s *GameService) State(ctx context.Context, gameID, userID string) (*campaign.GameState, error) {
	sess, err := s.session(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	return sess.view(), nil
}

// SubmitAction plays an action for the primary. When it ends the player's
// turn the opponent starts thinking in the background.
func (s *GameService) SubmitAction(ctx context.Context, gameID, userID string, a campaign.Action) (campaign.Resolution, error) {
	sess, err := s.session(ctx, gameID, userID)
	if err != nil {
		return campaign.Resolution{}, err
	}
	a.Actor = campaign.Primary

	var res campaign.Resolution
	if err := sess.Do(func(g *campaign.Game) error {
		var err error
		res, err = g.Submit(a)
		return err
	}); err != nil {
		return campaign.Resolution{}, err
	}

	log.Debug().Str("gameId", gameID).Str("action", a.Type.String()).Strs("regions", a.Regions).
		Float64("cost", res.Cost).Msg("Action resolved")
	s.broadcaster.BroadcastGameEvent(gameID, EventActionResolved, map[string]any{
		"action":     a,
		"resolution": res,
	})
	s.touch(ctx, gameID)
	if res.TurnEnded {
		s.handOff(ctx, sess)
	}
	return res, nil
}

// EndTurn ends the primary's turn early.
func (s *GameService) EndTurn(ctx context.Context, gameID, userID string) error {
	sess, err := s.session(ctx, gameID, userID)
	if err != nil {
		return err
	}
	if err := sess.Do(func(g *campaign.Game) error { return g.EndTurn(campaign.Primary) }); err != nil {
		return err
	}
	s.touch(ctx, gameID)
	s.handOff(ctx, sess)
	return nil
}

// handOff runs after control passes between agents: it saves, announces the
// new turn or the result, and wakes the opponent when it is their move.
func (s *GameService) handOff(ctx context.Context, sess *session) {
	if err := s.persist(ctx, sess); err != nil {
		log.Error().Err(err).Str("gameId", sess.id).Msg("Autosave failed")
	}
	gs := sess.view()
	if gs.Phase == campaign.PhaseEnded {
		s.finish(ctx, sess, gs)
		return
	}
	s.broadcaster.BroadcastGameEvent(sess.id, EventTurnChanged, map[string]any{
		"turn":           gs.Turn,
		"week":           gs.WeekLabel(),
		"current":        gs.Current,
		"actionsGranted": gs.ActionsGranted,
	})
	if gs.Current == campaign.Opponent {
		s.startOpponent(sess)
	}
}

func (s *GameService) finish(ctx context.Context, sess *session, gs *campaign.GameState) {
	out := gs.Outcome()
	log.Info().Str("gameId", sess.id).Str("winner", string(out.Winner)).Bool("outright", out.Outright).
		Int("primaryVotes", out.PrimaryVotes).Int("opponentVotes", out.OpponentVotes).Msg("Game ended")
	if s.cache != nil {
		if err := s.cache.ClearIdle(ctx, sess.id); err != nil {
			log.Warn().Err(err).Str("gameId", sess.id).Msg("Failed to clear idle timer")
		}
	}
	s.broadcaster.BroadcastGameEvent(sess.id, EventGameEnded, out)
}

// Recommendations returns the built-in advice followed by any external advice.
// External failures are logged and skipped.
func (s *GameService) Recommendations(ctx context.Context, gameID, userID string) ([]advisor.Recommendation, error) {
	sess, err := s.session(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	gs := sess.view()
	recs := s.advisor.Recommendations(gs, campaign.Primary)
	if s.opts.External == nil {
		return recs, nil
	}

	ectx, cancel := context.WithTimeout(ctx, externalTimeout)
	defer cancel()
	extra, err := s.opts.External.Recommendations(ectx, gs, campaign.Primary)
	if err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("External advisor unavailable")
		return recs, nil
	}
	return append(recs, extra...), nil
}

// Analytics returns the primary's financial and electoral picture.
func (s *GameService) Analytics(ctx context.Context, gameID, userID string) (advisor.Analytics, error) {
	sess, err := s.session(ctx, gameID, userID)
	if err != nil {
		return advisor.Analytics{}, err
	}
	return s.advisor.Analytics(sess.view(), campaign.Primary), nil
}

// Events returns the recent news feed, newest first.
func (s *GameService) Events(ctx context.Context, gameID, userID string) ([]campaign.Event, error) {
	sess, err := s.session(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	evs := sess.view().Events
	if evs == nil {
		evs = []campaign.Event{}
	}
	return evs, nil
}

// Report returns the opponent's most recent turn.
func (s *GameService) Report(ctx context.Context, gameID, userID string) (*bot.Report, error) {
	sess, err := s.session(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	if r := sess.lastReport(); r != nil {
		return r, nil
	}
	if s.cache != nil {
		raw, err := s.cache.GetReport(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("load report: %w", err)
		}
		if raw != nil {
			var r bot.Report
			if err := json.Unmarshal(raw, &r); err == nil {
				return &r, nil
			}
		}
	}
	return nil, ErrNoReport
}

// DeleteGame stops and removes a campaign with all its saves.
func (s *GameService) DeleteGame(ctx context.Context, gameID, userID string) error {
	if _, err := s.GetGame(ctx, gameID, userID); err != nil {
		return err
	}
	if v, ok := s.sessions.LoadAndDelete(gameID); ok {
		v.(*session).stop()
	}
	if err := s.snapshots.DeleteSnapshots(ctx, gameID); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.DeleteGameData(ctx, gameID); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to delete cached game data")
		}
	}
	if err := s.games.Delete(ctx, gameID); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	log.Info().Str("gameId", gameID).Msg("Game deleted")
	return nil
}

// persist writes the ledger as a snapshot, mirrors it to the cache and
// refreshes the listing record.
func (s *GameService) persist(ctx context.Context, sess *session) error {
	gs := sess.view()
	meta := snapshot.MetaFor(gs)
	meta.Personality = string(sess.personality)
	data, err := snapshot.Encode(gs, meta)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	snap := &model.Snapshot{
		GameID:  sess.id,
		Version: snapshot.Version,
		Turn:    gs.Turn,
		Data:    data,
		SavedAt: time.Now().UTC(),
	}
	if err := s.snapshots.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetGameState(ctx, sess.id, data); err != nil {
			log.Warn().Err(err).Str("gameId", sess.id).Msg("Failed to cache game state")
		}
	}
	if err := s.games.UpdateProgress(ctx, progress(sess.id, gs)); err != nil {
		return fmt.Errorf("update game progress: %w", err)
	}
	return nil
}

// progress summarises a ledger for the listing record.
func progress(id string, gs *campaign.GameState) *model.Game {
	p, o := gs.Tally()
	g := &model.Game{
		ID:            id,
		Status:        string(gs.Phase),
		Turn:          min(gs.Turn, gs.MaxTurns),
		MaxTurns:      gs.MaxTurns,
		Week:          gs.WeekLabel(),
		PrimaryName:   gs.Primary.Name,
		OpponentName:  gs.Opponent.Name,
		PrimaryVotes:  p,
		OpponentVotes: o,
	}
	if gs.Phase == campaign.PhaseEnded {
		g.Week = fmt.Sprintf("Week %d of %d", gs.MaxTurns, gs.MaxTurns)
		out := gs.Outcome()
		g.Winner = string(out.Winner)
		if out.Draw {
			g.Winner = "draw"
		}
		now := time.Now().UTC()
		g.FinishedAt = &now
	}
	return g
}

// touch refreshes the game's idle timer.
func (s *GameService) touch(ctx context.Context, gameID string) {
	if s.cache == nil || s.opts.IdleTTL <= 0 {
		return
	}
	if err := s.cache.TouchIdle(ctx, gameID, s.opts.IdleTTL); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to refresh idle timer")
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
