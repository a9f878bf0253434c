//go:build integration

package bot

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/freeeve/polforge/api/pkg/advisor"
)

// benchNumGames returns BENCH_GAMES env var as int, or the provided default.
func benchNumGames(defaultN int) int {
	if s := os.Getenv("BENCH_GAMES"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return defaultN
}

// benchVerbose returns true when BENCH_VERBOSE=1, enabling per-game logging.
func benchVerbose() bool {
	return os.Getenv("BENCH_VERBOSE") == "1"
}

// BenchmarkResult holds aggregate metrics from a series of arena races,
// counted from the primary's side.
type BenchmarkResult struct {
	Matchup   string
	NumGames  int
	Wins      int
	Outright  int
	Draws     int
	Losses    int
	Votes     []int
	Scandals  int
	Durations []time.Duration
}

// WinRate returns the win rate as a percentage.
func (b *BenchmarkResult) WinRate() float64 {
	return float64(b.Wins) / float64(b.NumGames) * 100
}

// AvgVotes returns the primary's average final electoral count.
func (b *BenchmarkResult) AvgVotes() float64 {
	if len(b.Votes) == 0 {
		return 0
	}
	sum := 0
	for _, v := range b.Votes {
		sum += v
	}
	return float64(sum) / float64(len(b.Votes))
}

// StdDevVotes returns the standard deviation of the primary's final count.
func (b *BenchmarkResult) StdDevVotes() float64 {
	if len(b.Votes) < 2 {
		return 0
	}
	mean := b.AvgVotes()
	sumSq := 0.0
	for _, v := range b.Votes {
		d := float64(v) - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(b.Votes)-1))
}

// MedianDuration returns the median wall-clock time per race.
func (b *BenchmarkResult) MedianDuration() time.Duration {
	if len(b.Durations) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(b.Durations))
	copy(sorted, b.Durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2]
}

func runBenchmarkSuite(t *testing.T, matchup string, numGames int) *BenchmarkResult {
	t.Helper()

	primary, opponent, err := ParseMatchup(matchup)
	if err != nil {
		t.Fatalf("matchup %q: %v", matchup, err)
	}
	result := &BenchmarkResult{Matchup: matchup, NumGames: numGames}
	ctx := context.Background()

	for i := range numGames {
		cfg := ArenaConfig{
			PrimaryDifficulty:  primary,
			OpponentDifficulty: opponent,
			Seed:               int64(i + 1),
			Budgeter:           advisor.New(),
		}
		r, err := RunGame(ctx, cfg, nil)
		if err != nil {
			t.Fatalf("race %d failed: %v", i+1, err)
		}

		result.Durations = append(result.Durations, r.Duration)
		result.Votes = append(result.Votes, r.Outcome.PrimaryVotes)
		result.Scandals += r.Scandals
		switch {
		case r.Outcome.Draw:
			result.Draws++
		case r.Outcome.Winner == "primary":
			result.Wins++
			if r.Outcome.Outright {
				result.Outright++
			}
		default:
			result.Losses++
		}

		if benchVerbose() {
			t.Logf("Race %d/%d: winner=%q votes=%d-%d scandals=%d elapsed=%s",
				i+1, numGames, r.Outcome.Winner, r.Outcome.PrimaryVotes, r.Outcome.OpponentVotes,
				r.Scandals, r.Duration.Round(time.Millisecond))
		}
	}
	return result
}

func logBenchmarkResults(t *testing.T, r *BenchmarkResult) {
	t.Helper()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n=== BENCHMARK: %s (%d races) ===\n", r.Matchup, r.NumGames))
	sb.WriteString(fmt.Sprintf("Win rate:     %d/%d (%.0f%%), %d outright\n", r.Wins, r.NumGames, r.WinRate(), r.Outright))
	sb.WriteString(fmt.Sprintf("Draws:        %d\n", r.Draws))
	sb.WriteString(fmt.Sprintf("Losses:       %d\n", r.Losses))
	sb.WriteString(fmt.Sprintf("Avg votes:    %.1f (stddev=%.1f)\n", r.AvgVotes(), r.StdDevVotes()))
	sb.WriteString(fmt.Sprintf("Scandals:     %d\n", r.Scandals))
	sb.WriteString(fmt.Sprintf("Median Time:  %s\n", r.MedianDuration().Round(time.Millisecond)))
	t.Log(sb.String())
}

// TestDifficultyLadder reports how each tier fares against the one below it.
// Run with: go test -tags integration -run TestDifficultyLadder -v -count=1
func TestDifficultyLadder(t *testing.T) {
	n := benchNumGames(40)
	for _, matchup := range []string{"medium-vs-easy", "hard-vs-medium", "expert-vs-hard"} {
		t.Run(matchup, func(t *testing.T) {
			r := runBenchmarkSuite(t, matchup, n)
			logBenchmarkResults(t, r)
			if r.Wins+r.Draws+r.Losses != n {
				t.Errorf("%s: tallied %d races, ran %d", matchup, r.Wins+r.Draws+r.Losses, n)
			}
		})
	}
}

func BenchmarkRunGame(b *testing.B) {
	ctx := context.Background()
	for i := range b.N {
		cfg := ArenaConfig{PrimaryDifficulty: Hard, OpponentDifficulty: Hard, Seed: int64(i + 1), Budgeter: advisor.New()}
		if _, err := RunGame(ctx, cfg, nil); err != nil {
			b.Fatal(err)
		}
	}
}
