package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/freeeve/polforge/api/internal/model"
)

// GameRepo handles campaign listing rows.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

const gameColumns = `id, name, owner_id, status, difficulty, personality, turn, max_turns, week,
	primary_name, opponent_name, winner, primary_votes, opponent_votes, created_at, updated_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(s scanner) (*model.Game, error) {
	var g model.Game
	err := s.Scan(&g.ID, &g.Name, &g.OwnerID, &g.Status, &g.Difficulty, &g.Personality, &g.Turn, &g.MaxTurns,
		&g.Week, &g.PrimaryName, &g.OpponentName, &g.Winner, &g.PrimaryVotes, &g.OpponentVotes,
		&g.CreatedAt, &g.UpdatedAt, &g.FinishedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create inserts a new game and fills in its timestamps.
func (r *GameRepo) Create(ctx context.Context, g *model.Game) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO games (id, name, owner_id, status, difficulty, personality, turn, max_turns, week, primary_name, opponent_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING created_at, updated_at`,
		g.ID, g.Name, g.OwnerID, g.Status, g.Difficulty, g.Personality, g.Turn, g.MaxTurns, g.Week,
		g.PrimaryName, g.OpponentName,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// FindByID returns a game by ID, or nil if it does not exist.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	g, err := scanGame(r.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	return g, nil
}

// ListByOwner returns a user's campaigns, most recently played first.
func (r *GameRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Game, error) {
	return r.list(ctx, "list user games",
		`SELECT `+gameColumns+` FROM games WHERE owner_id = $1 ORDER BY updated_at DESC LIMIT 50`, ownerID)
}

// ListActive returns every game still in progress.
func (r *GameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	return r.list(ctx, "list active games",
		`SELECT `+gameColumns+` FROM games WHERE status = 'playing' ORDER BY updated_at DESC`)
}

func (r *GameRepo) list(ctx context.Context, op, query string, args ...any) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// UpdateProgress records the game's status, turn counter and tally.
func (r *GameRepo) UpdateProgress(ctx context.Context, g *model.Game) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = $2, turn = $3, week = $4, winner = $5, primary_votes = $6,
		        opponent_votes = $7, finished_at = $8, updated_at = now()
		 WHERE id = $1`,
		g.ID, g.Status, g.Turn, g.Week, g.Winner, g.PrimaryVotes, g.OpponentVotes, g.FinishedAt)
	if err != nil {
		return fmt.Errorf("update game progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update game progress: game %s not found", g.ID)
	}
	return nil
}

// Delete removes a game; snapshots cascade.
func (r *GameRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}
