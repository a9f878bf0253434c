// Package sqlite stores campaigns, snapshots and AI match results in a local
// SQLite file, for single-binary deployments and offline match runs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/freeeve/polforge/api/internal/model"
)

// snapshotsKept is how many saves per game survive pruning.
const snapshotsKept = 5

// Store wraps a SQLite connection.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (provider, provider_id)
	);

	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		status TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		personality TEXT NOT NULL,
		turn INTEGER NOT NULL,
		max_turns INTEGER NOT NULL,
		week TEXT NOT NULL,
		primary_name TEXT NOT NULL,
		opponent_name TEXT NOT NULL,
		winner TEXT NOT NULL DEFAULT '',
		primary_votes INTEGER NOT NULL DEFAULT 0,
		opponent_votes INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		turn INTEGER NOT NULL,
		data BLOB NOT NULL,
		saved_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		primary_difficulty TEXT NOT NULL,
		opponent_difficulty TEXT NOT NULL,
		winner TEXT NOT NULL,
		outright INTEGER NOT NULL,
		primary_votes INTEGER NOT NULL,
		opponent_votes INTEGER NOT NULL,
		scandals INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_games_owner ON games(owner_id, updated_at);
	CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
	CREATE INDEX IF NOT EXISTS idx_snapshots_game ON snapshots(game_id, id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func now() time.Time { return time.Now().UTC() }

// FindByID looks up a user by ID.
func (s *Store) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.conn.GetContext(ctx, &u, `SELECT * FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &u, nil
}

// Upsert creates a user or refreshes its display name.
func (s *Store) Upsert(ctx context.Context, provider, providerID, displayName string) (*model.User, error) {
	ts := now()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, provider, provider_id, display_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (provider, provider_id)
		 DO UPDATE SET display_name = excluded.display_name, updated_at = excluded.updated_at`,
		uuid.NewString(), provider, providerID, displayName, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	var u model.User
	if err := s.conn.GetContext(ctx, &u,
		`SELECT * FROM users WHERE provider = ? AND provider_id = ?`, provider, providerID); err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return &u, nil
}

// Games returns the games table. It is a separate type because users and
// games both have a FindByID.
func (s *Store) Games() *GameRepo { return &GameRepo{conn: s.conn} }

// GameRepo is the games table.
type GameRepo struct {
	conn *sqlx.DB
}

// Create inserts a new game.
func (r *GameRepo) Create(ctx context.Context, g *model.Game) error {
	ts := now()
	g.CreatedAt, g.UpdatedAt = ts, ts
	_, err := r.conn.NamedExecContext(ctx,
		`INSERT INTO games (id, name, owner_id, status, difficulty, personality, turn, max_turns, week,
		                    primary_name, opponent_name, winner, primary_votes, opponent_votes, created_at, updated_at)
		 VALUES (:id, :name, :owner_id, :status, :difficulty, :personality, :turn, :max_turns, :week,
		         :primary_name, :opponent_name, :winner, :primary_votes, :opponent_votes, :created_at, :updated_at)`, g)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// FindByID returns a game, or nil.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	var g model.Game
	err := r.conn.GetContext(ctx, &g, `SELECT * FROM games WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	return &g, nil
}

// ListByOwner returns a user's campaigns, most recently played first.
func (r *GameRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Game, error) {
	var games []model.Game
	if err := r.conn.SelectContext(ctx, &games,
		`SELECT * FROM games WHERE owner_id = ? ORDER BY updated_at DESC LIMIT 50`, ownerID); err != nil {
		return nil, fmt.Errorf("list user games: %w", err)
	}
	return games, nil
}

// ListActive returns every game in progress.
func (r *GameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	var games []model.Game
	if err := r.conn.SelectContext(ctx, &games,
		`SELECT * FROM games WHERE status = 'playing' ORDER BY updated_at DESC`); err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	return games, nil
}

// UpdateProgress records status, turn and tally.
func (r *GameRepo) UpdateProgress(ctx context.Context, g *model.Game) error {
	g.UpdatedAt = now()
	res, err := r.conn.NamedExecContext(ctx,
		`UPDATE games SET status = :status, turn = :turn, week = :week, winner = :winner,
		        primary_votes = :primary_votes, opponent_votes = :opponent_votes,
		        finished_at = :finished_at, updated_at = :updated_at
		 WHERE id = :id`, g)
	if err != nil {
		return fmt.Errorf("update game progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update game progress: game %s not found", g.ID)
	}
	return nil
}

// Delete removes a game and its snapshots.
func (r *GameRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE game_id = ?`, id); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return tx.Commit()
}

// SaveSnapshot inserts a save and prunes older ones.
func (s *Store) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	snap.SavedAt = now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (game_id, version, turn, data, saved_at) VALUES (?, ?, ?, ?, ?)`,
		snap.GameID, snap.Version, snap.Turn, snap.Data, snap.SavedAt); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE game_id = ? AND id NOT IN (
		   SELECT id FROM snapshots WHERE game_id = ? ORDER BY id DESC LIMIT ?)`,
		snap.GameID, snap.GameID, snapshotsKept); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return tx.Commit()
}

// LatestSnapshot returns the newest save, or nil.
func (s *Store) LatestSnapshot(ctx context.Context, gameID string) (*model.Snapshot, error) {
	var snap model.Snapshot
	err := s.conn.GetContext(ctx, &snap,
		`SELECT game_id, version, turn, data, saved_at FROM snapshots
		 WHERE game_id = ? ORDER BY id DESC LIMIT 1`, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return &snap, nil
}

// DeleteSnapshots removes every save for a game.
func (s *Store) DeleteSnapshots(ctx context.Context, gameID string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM snapshots WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	return nil
}

// SaveMatch records an AI-vs-AI result. An empty ID is filled in.
func (s *Store) SaveMatch(ctx context.Context, m *model.MatchResult) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	_, err := s.conn.NamedExecContext(ctx,
		`INSERT INTO matches (id, seed, primary_difficulty, opponent_difficulty, winner, outright,
		                      primary_votes, opponent_votes, scandals, duration_ms, created_at)
		 VALUES (:id, :seed, :primary_difficulty, :opponent_difficulty, :winner, :outright,
		         :primary_votes, :opponent_votes, :scandals, :duration_ms, :created_at)`, m)
	if err != nil {
		return fmt.Errorf("save match: %w", err)
	}
	return nil
}

// ListMatches returns the most recent results first.
func (s *Store) ListMatches(ctx context.Context, limit int) ([]model.MatchResult, error) {
	var out []model.MatchResult
	if err := s.conn.SelectContext(ctx, &out,
		`SELECT * FROM matches ORDER BY created_at DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return out, nil
}
