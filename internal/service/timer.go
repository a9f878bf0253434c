package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	redisrepo "github.com/freeeve/polforge/api/internal/repository/redis"
)

const idleSweepInterval = 10 * time.Second

// Evict saves a live game and drops it from memory. A game whose opponent is
// mid-turn is kept. It reports whether the game was evicted.
func (s *GameService) Evict(ctx context.Context, gameID string) bool {
	v, ok := s.sessions.Load(gameID)
	if !ok {
		return false
	}
	sess := v.(*session)
	if sess.busy() {
		s.touch(ctx, gameID)
		return false
	}
	if err := s.persist(ctx, sess); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Failed to save idle game, keeping it live")
		return false
	}
	s.sessions.CompareAndDelete(gameID, sess)
	if s.cache != nil {
		if err := s.cache.DeleteGameData(ctx, gameID); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to drop cached state")
		}
	}
	log.Info().Str("gameId", gameID).Msg("Idle game evicted")
	return true
}

// SweepIdle evicts every live game untouched for longer than the idle TTL
// and returns how many went.
func (s *GameService) SweepIdle(ctx context.Context, now time.Time) int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}
	var ids []string
	s.sessions.Range(func(k, v any) bool {
		if now.Sub(v.(*session).idleSince()) > s.opts.IdleTTL {
			ids = append(ids, k.(string))
		}
		return true
	})
	n := 0
	for _, id := range ids {
		if s.Evict(ctx, id) {
			n++
		}
	}
	return n
}

// IdleListener evicts idle games. With Redis it listens for expired idle
// keys; a periodic sweep runs regardless so stores without expiry events
// still evict.
type IdleListener struct {
	rdb *redis.Client
	svc *GameService
}

// NewIdleListener creates an IdleListener. rdb may be nil.
func NewIdleListener(rdb *redis.Client, svc *GameService) *IdleListener {
	return &IdleListener{rdb: rdb, svc: svc}
}

// Start blocks until ctx is done.
func (t *IdleListener) Start(ctx context.Context) {
	if t.rdb != nil {
		go t.listenKeyspace(ctx)
	}
	t.pollIdle(ctx)
}

// listenKeyspace subscribes to Redis keyspace notifications for expired keys.
func (t *IdleListener) listenKeyspace(ctx context.Context) {
	pubsub := t.rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	defer pubsub.Close()

	log.Info().Msg("Idle listener started, listening for expired keys")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			t.handleExpiry(ctx, msg.Payload)
		}
	}
}

func (t *IdleListener) pollIdle(ctx context.Context) {
	ticker := time.NewTicker(idleSweepInterval)
	defer ticker.Stop()

	log.Info().Dur("interval", idleSweepInterval).Msg("Idle sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Idle sweeper stopped")
			return
		case now := <-ticker.C:
			if n := t.svc.SweepIdle(ctx, now); n > 0 {
				log.Info().Int("count", n).Msg("Sweeper evicted idle games")
			}
		}
	}
}

// handleExpiry acts only on game idle keys.
func (t *IdleListener) handleExpiry(ctx context.Context, key string) {
	gameID := redisrepo.IdleKeyGameID(key)
	if gameID == "" {
		return
	}
	log.Info().Str("gameId", gameID).Msg("Idle timer expired")
	t.svc.Evict(ctx, gameID)
}
