package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/autoslug/pkg/logger"
)

const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
	backendRedis    = "redis"
)

// Config is the command configuration read from the environment.
// Backend specific settings are parsed only for the selected backend.
type Config struct {
	Backend    string `env:"AUTOSLUG_BACKEND" envDefault:"memory"`
	SchemaPath string `env:"AUTOSLUG_SCHEMA" envDefault:"autoslug.yaml"`
	// Attempts bounds how often a save is retried after losing a race
	// for the same slug.
	Attempts int `env:"AUTOSLUG_SAVE_ATTEMPTS" envDefault:"3"`

	Log logger.Config
}

// loadDotenv loads .env from the working directory if it exists, then the
// given extra files, which must exist. Variables already set are kept.
func loadDotenv(extra ...string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	if len(extra) == 0 {
		return nil
	}
	if err := godotenv.Load(extra...); err != nil {
		return fmt.Errorf("loading %s: %w", strings.Join(extra, ", "), err)
	}
	return nil
}

// parseEnv fills any env-tagged struct.
func parseEnv[T any]() (T, error) {
	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
