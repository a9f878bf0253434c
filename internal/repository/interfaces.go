package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/freeeve/polforge/api/internal/model"
)

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName string) (*model.User, error)
}

// GameRepository defines campaign listing operations. Lookups return nil, nil
// when the game does not exist.
type GameRepository interface {
	Create(ctx context.Context, g *model.Game) error
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Game, error)
	ListActive(ctx context.Context) ([]model.Game, error)
	UpdateProgress(ctx context.Context, g *model.Game) error
	Delete(ctx context.Context, id string) error
}

// SnapshotRepository stores encoded ledgers. LatestSnapshot returns nil, nil
// when a game has never been saved.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, s *model.Snapshot) error
	LatestSnapshot(ctx context.Context, gameID string) (*model.Snapshot, error)
	DeleteSnapshots(ctx context.Context, gameID string) error
}

// MatchRepository stores AI-vs-AI results.
type MatchRepository interface {
	SaveMatch(ctx context.Context, m *model.MatchResult) error
	ListMatches(ctx context.Context, limit int) ([]model.MatchResult, error)
}

// GameCache defines live game state operations (Redis).
type GameCache interface {
	SetGameState(ctx context.Context, gameID string, state []byte) error
	GetGameState(ctx context.Context, gameID string) ([]byte, error)
	SetReport(ctx context.Context, gameID string, report json.RawMessage) error
	GetReport(ctx context.Context, gameID string) (json.RawMessage, error)
	TouchIdle(ctx context.Context, gameID string, ttl time.Duration) error
	ClearIdle(ctx context.Context, gameID string) error
	DeleteGameData(ctx context.Context, gameID string) error
}
