package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/polforge/api/pkg/campaign"
)

// startOpponent plays the opponent's turn in the background when the game
// is waiting on it. Safe to call at any time; it does nothing otherwise.
func (s *GameService) startOpponent(sess *session) {
	ctx, cancel := context.WithCancel(context.Background())
	if !sess.claimOpponentTurn(cancel) {
		cancel()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		s.broadcaster.BroadcastGameEvent(sess.id, EventOpponentThinking, nil)
		report, err := sess.engine.PlayTurn(ctx, sess, campaign.Opponent)
		sess.finishOpponentTurn(report)

		pctx, pcancel := context.WithTimeout(context.Background(), persistTimeout)
		defer pcancel()

		if errors.Is(err, context.Canceled) {
			log.Info().Str("gameId", sess.id).Msg("Opponent turn cancelled")
			if perr := s.persist(pctx, sess); perr != nil {
				log.Error().Err(perr).Str("gameId", sess.id).Msg("Failed to save after cancelled opponent turn")
			}
			return
		}
		if err != nil {
			log.Error().Err(err).Str("gameId", sess.id).Msg("Opponent turn failed, passing the turn")
			if eerr := sess.Do(func(g *campaign.Game) error {
				gs := g.State()
				if gs.Phase != campaign.PhasePlaying || gs.Current != campaign.Opponent {
					return nil
				}
				return g.EndTurn(campaign.Opponent)
			}); eerr != nil {
				log.Error().Err(eerr).Str("gameId", sess.id).Msg("Failed to end opponent turn")
			}
		}

		log.Info().Str("gameId", sess.id).Int("turn", report.Turn).Int("actions", len(report.Steps)).
			Float64("allocation", report.Allocation).Msg("Opponent turn complete")
		s.storeReport(pctx, sess.id, report)
		s.broadcaster.BroadcastGameEvent(sess.id, EventOpponentReport, map[string]any{
			"summary": report.Summary(),
			"report":  report,
		})
		s.handOff(pctx, sess)
	}()
}

func (s *GameService) storeReport(ctx context.Context, gameID string, report any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to marshal opponent report")
		return
	}
	if err := s.cache.SetReport(ctx, gameID, raw); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to cache opponent report")
	}
}

// Wait blocks until every opponent turn in flight has finished or ctx is done.
func (s *GameService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels opponent turns in flight, waits for them and saves every
// live game.
func (s *GameService) Shutdown(ctx context.Context) error {
	s.sessions.Range(func(_, v any) bool {
		v.(*session).stop()
		return true
	})
	if err := s.Wait(ctx); err != nil {
		return err
	}
	var saved int
	s.sessions.Range(func(_, v any) bool {
		sess := v.(*session)
		if err := s.persist(ctx, sess); err != nil {
			log.Error().Err(err).Str("gameId", sess.id).Msg("Failed to save game on shutdown")
			return true
		}
		saved++
		return true
	})
	log.Info().Int("games", saved).Msg("Live games saved")
	return nil
}

// RecoverActiveGames loads every game that was in play when the server last
// stopped and resumes any opponent turn that was interrupted.
func (s *GameService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.games.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}

	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")
	for i := range games {
		rec := &games[i]
		if _, ok := s.sessions.Load(rec.ID); ok {
			continue
		}
		sess, err := s.restore(ctx, rec)
		if err != nil {
			log.Warn().Err(err).Str("gameId", rec.ID).Msg("Skipping unrecoverable game")
			continue
		}
		s.touch(ctx, rec.ID)
		s.startOpponent(sess)
	}
	return nil
}
