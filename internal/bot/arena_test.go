package bot

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/freeeve/polforge/api/internal/model"
	"github.com/freeeve/polforge/api/internal/repository/sqlite"
	"github.com/freeeve/polforge/api/pkg/campaign"
)

type memMatches struct {
	mu    sync.Mutex
	saved []*model.MatchResult
}

func (m *memMatches) SaveMatch(_ context.Context, r *model.MatchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, r)
	return nil
}

func (m *memMatches) ListMatches(context.Context, int) ([]model.MatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.MatchResult, len(m.saved))
	for i, r := range m.saved {
		out[i] = *r
	}
	return out, nil
}

func TestRunGameDryRun(t *testing.T) {
	SeedBotRng(42)
	defer ResetBotRng()

	cfg := ArenaConfig{
		PrimaryDifficulty:  Easy,
		OpponentDifficulty: Easy,
		MaxTurns:           5,
		Seed:               42,
		Budgeter:           campaign.FixedBudget(2),
	}
	result, err := RunGame(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("RunGame failed: %v", err)
	}

	if result.Turns != 5 {
		t.Errorf("expected 5 turns, got %d", result.Turns)
	}
	if result.Actions["primary"] == 0 || result.Actions["opponent"] == 0 {
		t.Errorf("expected both sides to act, got %v", result.Actions)
	}
	total := campaign.TotalElectoralVotes(campaign.DefaultRegions())
	if got := result.Outcome.PrimaryVotes + result.Outcome.OpponentVotes; got > total {
		t.Errorf("tally %d exceeds %d available votes", got, total)
	}
	if result.Outcome.Draw != (result.Outcome.Winner == "") {
		t.Errorf("inconsistent outcome %+v", result.Outcome)
	}
	t.Logf("Result: winner=%q votes=%d-%d scandals=%d", result.Outcome.Winner,
		result.Outcome.PrimaryVotes, result.Outcome.OpponentVotes, result.Scandals)
}

func TestRunGameRecordsMatch(t *testing.T) {
	SeedBotRng(7)
	defer ResetBotRng()

	repo := &memMatches{}
	cfg := ArenaConfig{OpponentDifficulty: Hard, MaxTurns: 3, Seed: 7}
	result, err := RunGame(context.Background(), cfg, repo)
	if err != nil {
		t.Fatalf("RunGame failed: %v", err)
	}

	matches, _ := repo.ListMatches(context.Background(), 10)
	if len(matches) != 1 {
		t.Fatalf("expected 1 saved match, got %d", len(matches))
	}
	m := matches[0]
	if m.ID != result.GameID || m.Seed != 7 {
		t.Errorf("unexpected match record %+v", m)
	}
	if m.PrimaryDifficulty != "medium" || m.OpponentDifficulty != "hard" {
		t.Errorf("difficulties = %s vs %s", m.PrimaryDifficulty, m.OpponentDifficulty)
	}
	if m.PrimaryVotes != result.Outcome.PrimaryVotes || m.Winner != string(result.Outcome.Winner) {
		t.Errorf("match %+v does not mirror outcome %+v", m, result.Outcome)
	}
}

func TestRunGameSQLite(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "arena.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	for i := range 2 {
		cfg := ArenaConfig{PrimaryDifficulty: Easy, OpponentDifficulty: Medium, MaxTurns: 2, Seed: int64(100 + i)}
		if _, err := RunGame(context.Background(), cfg, store); err != nil {
			t.Fatalf("RunGame %d: %v", i, err)
		}
	}
	matches, err := store.ListMatches(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("expected 2 matches, got %d", len(matches))
	}
}

func TestRunGameCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RunGame(ctx, ArenaConfig{MaxTurns: 2, Seed: 1}, nil); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestParseMatchup(t *testing.T) {
	tests := []struct {
		in       string
		primary  Difficulty
		opponent Difficulty
		wantErr  bool
	}{
		{"hard-vs-easy", Hard, Easy, false},
		{"expert", Expert, Expert, false},
		{"", Medium, Medium, false},
		{"easy-vs-", Easy, Medium, false},
		{"brutal-vs-easy", "", "", true},
		{"easy-vs-brutal", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, o, err := ParseMatchup(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if p != tt.primary || o != tt.opponent {
				t.Errorf("got %s vs %s, want %s vs %s", p, o, tt.primary, tt.opponent)
			}
		})
	}
}
