package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Source  DatabaseConfig `toml:"source"`
	Target  DatabaseConfig `toml:"target"`
	Logging LoggingConfig  `toml:"logging"`
}

// DatabaseConfig describes one of the two database connections. The
// source holds TAKP-schema data, the target the PEQ schema.
type DatabaseConfig struct {
	DSN             string        `toml:"dsn" env:"DSN"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"LOG_LEVEL"`
	Format string `toml:"format" env:"LOG_FORMAT"` // "json" or "console"
}

// Load reads configuration in increasing precedence: built-in defaults,
// the TOML file at path (optional), then CHARTRANSFER_* environment
// variables. A .env file in the working directory is loaded first so
// credentials can live outside the config file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// config file is optional
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&cfg.Source, env.Options{Prefix: "CHARTRANSFER_SOURCE_"}); err != nil {
		return nil, fmt.Errorf("source env: %w", err)
	}
	if err := env.ParseWithOptions(&cfg.Target, env.Options{Prefix: "CHARTRANSFER_TARGET_"}); err != nil {
		return nil, fmt.Errorf("target env: %w", err)
	}
	if err := env.ParseWithOptions(&cfg.Logging, env.Options{Prefix: "CHARTRANSFER_"}); err != nil {
		return nil, fmt.Errorf("logging env: %w", err)
	}

	if cfg.Source.DSN == "" {
		return nil, fmt.Errorf("source dsn not configured (set [source] dsn in %s or CHARTRANSFER_SOURCE_DSN)", path)
	}
	if cfg.Target.DSN == "" {
		return nil, fmt.Errorf("target dsn not configured (set [target] dsn in %s or CHARTRANSFER_TARGET_DSN)", path)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Source: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Target: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
