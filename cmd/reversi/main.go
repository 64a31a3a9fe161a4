package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaminalder/codex-reversi/internal/app"
	"github.com/jaminalder/codex-reversi/internal/config"
	"github.com/jaminalder/codex-reversi/internal/domain"
	"github.com/jaminalder/codex-reversi/internal/web"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

func main() {
	cfg, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (json or console)")
	flag.DurationVar(&cfg.Heartbeat, "heartbeat", cfg.Heartbeat, "idle interval for SSE and websocket pings")
	flag.IntVar(&cfg.SelfPlayGames, "selfplay", cfg.SelfPlayGames, "play N random games and exit")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for self-play")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log.Logger = cfg.Logger(os.Stderr)

	if cfg.SelfPlayGames > 0 {
		if err := runSelfPlay(cfg); err != nil {
			log.Fatal().Err(err).Msg("self-play failed")
		}
		return
	}
	if err := serve(cfg); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runSelfPlay(cfg config.Config) error {
	rng := rand.New(rand.NewSource(cfg.Seed))
	wins := map[domain.Color]int{}
	var last *domain.Board
	log.Info().Int("games", cfg.SelfPlayGames).Uint64("seed", cfg.Seed).Msg("starting self-play")
	for i := 0; i < cfg.SelfPlayGames; i++ {
		res, err := app.SelfPlay(rng, log.Logger)
		if err != nil {
			return fmt.Errorf("game %d: %w", i+1, err)
		}
		wins[res.Winner]++
		last = res.Board
		log.Info().
			Int("game", i+1).
			Stringer("winner", res.Winner).
			Int("black", res.Black).
			Int("white", res.White).
			Int("moves", res.Moves).
			Int("passes", res.Passes).
			Msg("completed game")
	}
	log.Info().
		Int("black_wins", wins[domain.Black]).
		Int("white_wins", wins[domain.White]).
		Int("draws", wins[0]).
		Msg("completed self-play")
	fmt.Print(last)
	return nil
}

func serve(cfg config.Config) error {
	svc := app.NewService()
	svc.SetLogger(log.Logger)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           web.NewServer(svc, web.WithLogger(log.Logger), web.WithHeartbeat(cfg.Heartbeat)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.Info().Str("addr", cfg.Addr).Msg("listening")
	var runErr error
	select {
	case <-sigCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err, ok := <-serverErrCh:
		if ok {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Err(err).Msg("graceful shutdown failed")
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			log.Warn().Err(closeErr).Msg("forced close failed")
		}
	}
	return runErr
}
