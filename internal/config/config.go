package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// Engine
	ContextCapacity  int           `env:"CONTEXT_CAPACITY" envDefault:"10"`
	ContextThreshold float64       `env:"CONTEXT_THRESHOLD" envDefault:"0.5"`
	RulesFilePath    string        `env:"RULES_FILE_PATH"`
	ReminderOffset   time.Duration `env:"REMINDER_DEFAULT_OFFSET" envDefault:"24h"`
	BusinessHour     int           `env:"BUSINESS_START_HOUR" envDefault:"9"`

	// Storage
	DBPath              string `env:"DB_PATH" envDefault:"data/inbrief.db"`
	InteractionsPath    string `env:"INTERACTIONS_FILE_PATH" envDefault:"logs/interactions.jsonl"`
	ContextSnapshotPath string `env:"CONTEXT_SNAPSHOT_PATH" envDefault:"data/context.json"`

	// Scheduler
	SweepSpec  string        `env:"SWEEP_CRON" envDefault:"@every 5m"`
	SweepGrace time.Duration `env:"SWEEP_GRACE" envDefault:"1h"`
	DigestSpec string        `env:"DIGEST_CRON" envDefault:"0 9 * * *"`

	// Processing
	BatchWorkers int `env:"BATCH_WORKERS" envDefault:"4"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.ContextCapacity <= 0 {
		return fmt.Errorf("context capacity must be positive, got %d", c.ContextCapacity)
	}
	if c.ContextThreshold < 0 || c.ContextThreshold > 1 {
		return fmt.Errorf("context threshold must be in [0,1], got %g", c.ContextThreshold)
	}
	if c.BusinessHour < 0 || c.BusinessHour > 23 {
		return fmt.Errorf("business start hour must be in [0,23], got %d", c.BusinessHour)
	}
	if c.ReminderOffset <= 0 {
		return fmt.Errorf("reminder offset must be positive, got %s", c.ReminderOffset)
	}
	if c.BatchWorkers <= 0 {
		return fmt.Errorf("batch workers must be positive, got %d", c.BatchWorkers)
	}
	return nil
}
