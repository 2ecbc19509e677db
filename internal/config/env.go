// Package config loads process settings from the environment and world
// scenarios from YAML.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Board configures the board server.
type Board struct {
	Port      string        `env:"PORT" envDefault:"50051"`
	DBPath    string        `env:"BOARD_DB"`
	MemoryTTL time.Duration `env:"MEMORY_TTL" envDefault:"0s"`
	ReapEvery time.Duration `env:"REAP_INTERVAL" envDefault:"30s"`
	LogLevel  string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Sim configures the swarm simulator.
type Sim struct {
	Scenario  string        `env:"SCENARIO"`
	Turns     int           `env:"TURNS" envDefault:"200"`
	Interval  time.Duration `env:"INTERVAL" envDefault:"0s"`
	BoardAddr string        `env:"BOARD_ADDR"`
	DBPath    string        `env:"MEMORY_DB"`
	// BudgetBytes caps each agent's broadcast bytes per turn; 0 is unlimited.
	BudgetBytes int    `env:"GOSSIP_BUDGET" envDefault:"0"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Level maps a LOG_LEVEL value to a slog level; unknown names mean info.
func Level(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
