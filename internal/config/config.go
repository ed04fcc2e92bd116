// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Supported database dialects.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	Port int `env:"PORT" envDefault:"8080"`

	DBDialect   string `env:"DB_DIALECT" envDefault:"sqlite"`
	SQLitePath  string `env:"DB_SQLITE_PATH" envDefault:"data/norimberga.db"`
	PostgresDSN string `env:"DB_POSTGRES_DSN"`
	DatabaseURL string `env:"DATABASE_URL"` // Fallback for PostgresDSN (PaaS convention)

	CatalogPath   string `env:"CATALOG_PATH"`                       // Empty = embedded default catalog
	CatalogStrict bool   `env:"CATALOG_STRICT" envDefault:"false"` // Reject unknown condition kinds at load

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// New game setup.
	MapSize            int   `env:"MAP_SIZE" envDefault:"15"`
	MapSeed            int64 `env:"MAP_SEED" envDefault:"0"` // 0 = random per game
	StartingCoins      int   `env:"STARTING_COINS" envDefault:"1000"`
	StartingPopulation int   `env:"STARTING_POPULATION" envDefault:"50"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDialect = strings.ToLower(strings.TrimSpace(cfg.DBDialect))
	if cfg.PostgresDSN == "" {
		cfg.PostgresDSN = cfg.DatabaseURL
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.DBDialect {
	case DialectSQLite:
		if c.SQLitePath == "" {
			return errors.New("DB_DIALECT=sqlite requires DB_SQLITE_PATH")
		}
	case DialectPostgres:
		if c.PostgresDSN == "" {
			return errors.New("DB_DIALECT=postgres requires DB_POSTGRES_DSN or DATABASE_URL")
		}
	default:
		return fmt.Errorf("unsupported DB_DIALECT %q", c.DBDialect)
	}
	if c.MapSize <= 0 {
		return fmt.Errorf("MAP_SIZE must be positive, got %d", c.MapSize)
	}
	if c.StartingCoins < 0 || c.StartingPopulation < 0 {
		return errors.New("starting coins and population must not be negative")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	return nil
}

// DSN returns the connection string for the configured dialect.
func (c Config) DSN() string {
	if c.DBDialect == DialectPostgres {
		return c.PostgresDSN
	}
	return c.SQLitePath
}

// SlogLevel maps LOG_LEVEL onto a slog level. Unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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
