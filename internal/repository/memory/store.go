// Package memory keeps campaigns in process memory. Nothing survives a restart.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freeeve/polforge/api/internal/model"
)

// Store implements the user, snapshot and cache repositories. Games() exposes
// the game table.
type Store struct {
	mu        sync.RWMutex
	users     map[string]model.User
	games     map[string]model.Game
	snapshots map[string]model.Snapshot
	states    map[string][]byte
	reports   map[string]json.RawMessage
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:     make(map[string]model.User),
		games:     make(map[string]model.Game),
		snapshots: make(map[string]model.Snapshot),
		states:    make(map[string][]byte),
		reports:   make(map[string]json.RawMessage),
	}
}

// FindByID returns a user, or nil.
func (s *Store) FindByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

// Upsert creates a user or refreshes its display name.
func (s *Store) Upsert(_ context.Context, provider, providerID, displayName string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := time.Now().UTC()
	for id, u := range s.users {
		if u.Provider == provider && u.ProviderID == providerID {
			u.DisplayName = displayName
			u.UpdatedAt = ts
			s.users[id] = u
			return &u, nil
		}
	}
	u := model.User{ID: uuid.NewString(), Provider: provider, ProviderID: providerID,
		DisplayName: displayName, CreatedAt: ts, UpdatedAt: ts}
	s.users[u.ID] = u
	return &u, nil
}

// Games returns the game table.
func (s *Store) Games() *GameRepo { return &GameRepo{s: s} }

// GameRepo is the in-memory games table.
type GameRepo struct {
	s *Store
}

func (r *GameRepo) Create(_ context.Context, g *model.Game) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.games[g.ID]; ok {
		return fmt.Errorf("create game: %s already exists", g.ID)
	}
	ts := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = ts, ts
	r.s.games[g.ID] = *g
	return nil
}

func (r *GameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if g, ok := r.s.games[id]; ok {
		return &g, nil
	}
	return nil, nil
}

func (r *GameRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Game, error) {
	return r.filter(func(g model.Game) bool { return g.OwnerID == ownerID }), nil
}

func (r *GameRepo) ListActive(_ context.Context) ([]model.Game, error) {
	return r.filter(func(g model.Game) bool { return g.Status == model.StatusPlaying }), nil
}

func (r *GameRepo) filter(keep func(model.Game) bool) []model.Game {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Game
	for _, g := range r.s.games {
		if keep(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func (r *GameRepo) UpdateProgress(_ context.Context, g *model.Game) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.games[g.ID]
	if !ok {
		return fmt.Errorf("update game progress: game %s not found", g.ID)
	}
	cur.Status, cur.Turn, cur.Week, cur.Winner = g.Status, g.Turn, g.Week, g.Winner
	cur.PrimaryVotes, cur.OpponentVotes, cur.FinishedAt = g.PrimaryVotes, g.OpponentVotes, g.FinishedAt
	cur.UpdatedAt = time.Now().UTC()
	r.s.games[g.ID] = cur
	return nil
}

func (r *GameRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.games, id)
	delete(r.s.snapshots, id)
	return nil
}

// SaveSnapshot keeps only the latest save per game.
func (s *Store) SaveSnapshot(_ context.Context, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.SavedAt = time.Now().UTC()
	cp := *snap
	cp.Data = append([]byte(nil), snap.Data...)
	s.snapshots[snap.GameID] = cp
	return nil
}

func (s *Store) LatestSnapshot(_ context.Context, gameID string) (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snap, ok := s.snapshots[gameID]; ok {
		return &snap, nil
	}
	return nil, nil
}

func (s *Store) DeleteSnapshots(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, gameID)
	return nil
}

func (s *Store) SetGameState(_ context.Context, gameID string, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[gameID] = append([]byte(nil), state...)
	return nil
}

func (s *Store) GetGameState(_ context.Context, gameID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[gameID], nil
}

func (s *Store) SetReport(_ context.Context, gameID string, report json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[gameID] = append(json.RawMessage(nil), report...)
	return nil
}

func (s *Store) GetReport(_ context.Context, gameID string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reports[gameID], nil
}

// TouchIdle is a no-op; idle sessions are found by the service's sweep.
func (s *Store) TouchIdle(context.Context, string, time.Duration) error { return nil }

func (s *Store) ClearIdle(context.Context, string) error { return nil }

func (s *Store) DeleteGameData(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, gameID)
	delete(s.reports, gameID)
	return nil
}
