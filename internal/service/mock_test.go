package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/freeeve/polforge/api/internal/bot"
	"github.com/freeeve/polforge/api/internal/model"
	"github.com/freeeve/polforge/api/internal/repository/memory"
	"github.com/freeeve/polforge/api/pkg/advisor"
	"github.com/freeeve/polforge/api/pkg/campaign"
)

type broadcastEvent struct {
	gameID    string
	eventType string
	data      any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *recordingBroadcaster) BroadcastGameEvent(gameID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{gameID, eventType, data})
}

func (b *recordingBroadcaster) count(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}

type stubRecommender struct {
	recs []advisor.Recommendation
	err  error
}

func (s stubRecommender) Recommendations(context.Context, *campaign.GameState, campaign.Role) ([]advisor.Recommendation, error) {
	return s.recs, s.err
}

// failingSnapshots refuses every save once broken is set.
type failingSnapshots struct {
	*memory.Store
	mu     sync.Mutex
	broken bool
}

func (f *failingSnapshots) SaveSnapshot(ctx context.Context, s *model.Snapshot) error {
	f.mu.Lock()
	broken := f.broken
	f.mu.Unlock()
	if broken {
		return errors.New("disk full")
	}
	return f.Store.SaveSnapshot(ctx, s)
}

func (f *failingSnapshots) breakSaves() {
	f.mu.Lock()
	f.broken = true
	f.mu.Unlock()
}

type testRig struct {
	svc   *GameService
	store *memory.Store
	bc    *recordingBroadcaster
}

func newTestRig(t *testing.T, opts Options) *testRig {
	t.Helper()
	store := memory.New()
	bc := &recordingBroadcaster{}
	if opts.Clock == nil {
		opts.Clock = bot.NoDelay{}
	}
	if opts.Seed == nil {
		opts.Seed = func() int64 { return 42 }
	}
	svc := NewGameService(store.Games(), store, store, bc, opts)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })
	return &testRig{svc: svc, store: store, bc: bc}
}
