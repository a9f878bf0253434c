package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/polforge/api/internal/bot"
)

func main() {
	url := flag.String("url", "http://localhost:8009", "server base URL")
	matchup := flag.String("matchup", "medium-vs-medium", "bot tier vs server opponent tier (e.g. hard-vs-easy)")
	seed := flag.Int64("seed", 0, "race seed (0 = server picks)")
	turnWait := flag.Duration("turn-wait", 2*time.Minute, "how long to wait for the opponent's turn")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	difficulty, opponent, err := bot.ParseMatchup(*matchup)
	if err != nil {
		log.Fatal().Err(err).Str("matchup", *matchup).Msg("Invalid matchup")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	orch := bot.NewOrchestrator(*url, difficulty, opponent, *seed, *turnWait)
	out, err := orch.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Bot orchestrator failed")
	}
	log.Info().Str("winner", string(out.Winner)).Bool("outright", out.Outright).
		Int("primaryVotes", out.PrimaryVotes).Int("opponentVotes", out.OpponentVotes).
		Msg("Bot race completed")
}
