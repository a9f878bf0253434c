package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/freeeve/polforge/api/internal/model"
)

// snapshotsKept is how many saves per game survive pruning.
const snapshotsKept = 5

// SnapshotRepo stores encoded ledgers.
type SnapshotRepo struct {
	db *sql.DB
}

// NewSnapshotRepo creates a SnapshotRepo.
func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// SaveSnapshot inserts a save and prunes older ones in the same transaction.
func (r *SnapshotRepo) SaveSnapshot(ctx context.Context, s *model.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx,
		`INSERT INTO snapshots (game_id, version, turn, data) VALUES ($1, $2, $3, $4) RETURNING saved_at`,
		s.GameID, s.Version, s.Turn, s.Data,
	).Scan(&s.SavedAt); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE game_id = $1 AND saved_at NOT IN (
		   SELECT saved_at FROM snapshots WHERE game_id = $1 ORDER BY saved_at DESC LIMIT $2)`,
		s.GameID, snapshotsKept,
	); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return tx.Commit()
}

// LatestSnapshot returns the newest save for a game, or nil.
func (r *SnapshotRepo) LatestSnapshot(ctx context.Context, gameID string) (*model.Snapshot, error) {
	var s model.Snapshot
	err := r.db.QueryRowContext(ctx,
		`SELECT game_id, version, turn, data, saved_at FROM snapshots
		 WHERE game_id = $1 ORDER BY saved_at DESC LIMIT 1`, gameID,
	).Scan(&s.GameID, &s.Version, &s.Turn, &s.Data, &s.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return &s, nil
}

// DeleteSnapshots removes every save for a game.
func (r *SnapshotRepo) DeleteSnapshots(ctx context.Context, gameID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	return nil
}
