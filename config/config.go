// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the registrar service.
type Config struct {
	DSN     string `env:"APP_DSN,required"`
	NATSURL string `env:"APP_NATS_URL,required"`

	SnapshotFrequency int           `env:"APP_SNAPSHOT_FREQUENCY" envDefault:"5"`
	OutboxBatchSize   int           `env:"APP_OUTBOX_BATCH_SIZE"  envDefault:"10"`
	OutboxInterval    time.Duration `env:"APP_OUTBOX_INTERVAL"    envDefault:"2s"`
	RelayWorkers      int           `env:"APP_RELAY_WORKERS"      envDefault:"3"`

	// EnforceUniqueKeys switches the registration workflows from the racy
	// check-then-register default to atomic key reservation.
	EnforceUniqueKeys bool `env:"APP_ENFORCE_UNIQUE_KEYS" envDefault:"false"`

	MetricsAddr string `env:"APP_METRICS_ADDR" envDefault:":9090"`
	LogLevel    string `env:"APP_LOG_LEVEL"    envDefault:"info"`
}

// Load reads an optional .env file and parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
