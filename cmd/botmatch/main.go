package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/polforge/api/internal/bot"
	"github.com/freeeve/polforge/api/internal/catalog"
	"github.com/freeeve/polforge/api/internal/repository"
	"github.com/freeeve/polforge/api/internal/repository/sqlite"
	"github.com/freeeve/polforge/api/pkg/advisor"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		matchup     string
		primaryP    string
		opponentP   string
		numGames    int
		workers     int
		dbPath      string
		catalogPath string
		maxTurns    int
		seed        int64
		dryRun      bool
		jsonOut     bool
	)

	flag.StringVar(&matchup, "matchup", "medium-vs-medium", "Primary tier vs opponent tier (e.g. hard-vs-easy)")
	flag.StringVar(&primaryP, "p", "", "Primary spy personality (default: the tier's)")
	flag.StringVar(&opponentP, "o", "", "Opponent spy personality (default: the tier's)")
	flag.IntVar(&numGames, "n", 1, "Number of races to run")
	flag.IntVar(&workers, "workers", 1, "Concurrency (parallel races)")
	flag.StringVar(&dbPath, "db", "botmatch.db", "SQLite file for results")
	flag.StringVar(&catalogPath, "catalog", "", "Region catalog file (JSON or YAML)")
	flag.IntVar(&maxTurns, "max-turns", 0, "Weeks per race (0 = default)")
	flag.Int64Var(&seed, "seed", 0, "Base seed (0 = random; deterministic only with -workers 1)")
	flag.BoolVar(&dryRun, "dry-run", false, "Skip database writes")
	flag.BoolVar(&jsonOut, "json", false, "Output results as JSON")

	flag.Parse()

	primary, opponent, err := bot.ParseMatchup(matchup)
	if err != nil {
		log.Fatal().Err(err).Str("matchup", matchup).Msg("Invalid matchup")
	}
	pp, err := bot.ParsePersonality(primaryP)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid primary personality")
	}
	op, err := bot.ParsePersonality(opponentP)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid opponent personality")
	}
	if workers < 1 {
		workers = 1
	}

	var cat *catalog.Catalog
	if catalogPath != "" {
		if cat, err = catalog.Load(catalogPath); err != nil {
			log.Fatal().Err(err).Str("path", catalogPath).Msg("Catalog load failed")
		}
	}
	if seed != 0 && workers == 1 {
		bot.SeedBotRng(seed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	// Open results store (unless dry-run)
	var matches repository.MatchRepository
	if !dryRun {
		store, err := sqlite.Open(dbPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", dbPath).Msg("Database open failed")
		}
		defer store.Close()
		matches = store
	}

	// Run races
	results := make([]*bot.ArenaResult, numGames)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	errCount := 0

	for i := 0; i < numGames; i++ {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			gameSeed := seed
			if seed != 0 {
				gameSeed = seed + int64(idx)
			}

			cfg := bot.ArenaConfig{
				PrimaryDifficulty:   primary,
				OpponentDifficulty:  opponent,
				PrimaryPersonality:  pp,
				OpponentPersonality: op,
				MaxTurns:            maxTurns,
				Seed:                gameSeed,
				Budgeter:            advisor.New(),
			}
			if cat != nil {
				if cfg.Seed == 0 {
					cfg.Seed = rand.Int63()
				}
				cfg.Regions = cat.Regions(rand.New(rand.NewSource(cfg.Seed)))
			}

			result, err := bot.RunGame(ctx, cfg, matches)
			if err != nil {
				log.Error().Err(err).Int("race", idx+1).Msg("Race failed")
				mu.Lock()
				errCount++
				mu.Unlock()
				return
			}

			mu.Lock()
			results[idx] = result
			mu.Unlock()

			log.Info().Int("race", idx+1).Str("winner", string(result.Outcome.Winner)).
				Int("primaryVotes", result.Outcome.PrimaryVotes).Int("opponentVotes", result.Outcome.OpponentVotes).
				Msg("Race completed")
		}(i)
	}

	wg.Wait()

	if jsonOut {
		printJSON(results, numGames, errCount)
	} else {
		printSummary(results, matchup, errCount, dbPath, dryRun)
	}
}

func printSummary(results []*bot.ArenaResult, matchup string, errCount int, dbPath string, dryRun bool) {
	var (
		completed, wins, outright, draws, losses, scandals int
		primaryVotes, opponentVotes                        int
	)
	for _, r := range results {
		if r == nil {
			continue
		}
		completed++
		primaryVotes += r.Outcome.PrimaryVotes
		opponentVotes += r.Outcome.OpponentVotes
		scandals += r.Scandals
		switch {
		case r.Outcome.Draw:
			draws++
		case r.Outcome.Winner == "primary":
			wins++
			if r.Outcome.Outright {
				outright++
			}
		default:
			losses++
		}
	}

	fmt.Printf("\nResults (%d races, %s):\n", completed, matchup)
	if errCount > 0 {
		fmt.Printf("  (%d races failed)\n", errCount)
	}
	if completed == 0 {
		return
	}
	fmt.Printf("  primary:   %d wins (%d outright), %d draws, %d losses\n", wins, outright, draws, losses)
	fmt.Printf("  avg votes: %.1f vs %.1f\n",
		float64(primaryVotes)/float64(completed), float64(opponentVotes)/float64(completed))
	fmt.Printf("  scandals:  %.1f per race\n", float64(scandals)/float64(completed))

	if !dryRun {
		fmt.Printf("\nResults saved to %s\n", dbPath)
	}
}

func printJSON(results []*bot.ArenaResult, total, errCount int) {
	out := struct {
		Total   int                `json:"total"`
		Errors  int                `json:"errors"`
		Results []*bot.ArenaResult `json:"results"`
	}{
		Total:   total,
		Errors:  errCount,
		Results: results,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
