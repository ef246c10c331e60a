// File: utils/config.go
package utils

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the ancillary server knobs. The three positional CLI
// arguments (levels dir, max games, rendezvous fifo) are not here: they
// are mandatory and parsed in main.
type Config struct {
	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"pretty"` // "json" or "pretty"

	// Observability. Empty address disables the metrics listener.
	MetricsAddr string `env:"METRICS_ADDR" envDefault:""`

	// Leaderboard dump target, overwritten on every SIGUSR1.
	ScoresLog string `env:"SCORES_LOG" envDefault:"scores.log"`
}

// LoadConfig reads configuration from an optional .env file and the
// environment. Priority: ENV vars > .env file > defaults.
func LoadConfig() (Config, error) {
	// A missing .env file is fine; production sets real env vars.
	_ = godotenv.Load()

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration for errors.
func (c Config) Validate() error {
	if c.LogFormat != "json" && c.LogFormat != "pretty" {
		return fmt.Errorf("LOG_FORMAT must be json or pretty, got %q", c.LogFormat)
	}
	if c.ScoresLog == "" {
		return fmt.Errorf("SCORES_LOG must not be empty")
	}
	return nil
}
