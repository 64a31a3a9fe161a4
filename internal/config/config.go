// Package config resolves runtime settings from the environment and builds
// the process logger.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the server and self-play settings.
type Config struct {
	Addr      string
	LogLevel  string
	LogFormat string // "json" or "console"
	Heartbeat time.Duration
	// SelfPlayGames > 0 runs that many random games instead of serving.
	SelfPlayGames int
	Seed          uint64
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "console",
		Heartbeat: 15 * time.Second,
		Seed:      1,
	}
}

// FromEnv overlays REVERSI_* variables on the defaults. lookup is usually
// os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if v, ok := lookup("REVERSI_ADDR"); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := lookup("REVERSI_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup("REVERSI_LOG_FORMAT"); ok && v != "" {
		cfg.LogFormat = v
	}
	if v, ok := lookup("REVERSI_HEARTBEAT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("REVERSI_HEARTBEAT: %w", err)
		}
		cfg.Heartbeat = d
	}
	if v, ok := lookup("REVERSI_SELFPLAY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("REVERSI_SELFPLAY: %w", err)
		}
		cfg.SelfPlayGames = n
	}
	if v, ok := lookup("REVERSI_SEED"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("REVERSI_SEED: %w", err)
		}
		cfg.Seed = n
	}
	return cfg, cfg.Validate()
}

// Validate checks values that flags or the environment may have broken.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("log format %q: want json or console", c.LogFormat)
	}
	if c.Heartbeat <= 0 {
		return fmt.Errorf("heartbeat must be positive, got %s", c.Heartbeat)
	}
	if c.SelfPlayGames < 0 {
		return fmt.Errorf("self-play games must not be negative, got %d", c.SelfPlayGames)
	}
	return nil
}

// Logger builds a logger writing to w, or stderr when w is nil.
func (c Config) Logger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
