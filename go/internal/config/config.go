package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"

	"github.com/mcdev12/icebreaker/go/internal/dbconfig"
	"github.com/mcdev12/icebreaker/go/internal/draw"
	"github.com/mcdev12/icebreaker/go/internal/records"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	InstanceID string `env:"INSTANCE_ID"`

	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	ScriptURL     string        `env:"SCRIPT_URL"`
	ScriptTimeout time.Duration `env:"SCRIPT_TIMEOUT" envDefault:"10s"`
	Timezone      string        `env:"TIMEZONE" envDefault:"Asia/Taipei"`

	RecordBackend   string        `env:"RECORD_BACKEND" envDefault:"apps_script"`
	HistoryStrategy string        `env:"HISTORY_STRATEGY" envDefault:"store"`
	QueryTimeout    time.Duration `env:"QUERY_TIMEOUT" envDefault:"10s"`
	MemoryDelay     time.Duration `env:"MEMORY_VISIBILITY_DELAY" envDefault:"0s"`

	QuestionsFile     string `env:"QUESTIONS_FILE"`
	AllowlistFile     string `env:"ALLOWLIST_FILE"`
	AllowlistDisabled bool   `env:"ALLOWLIST_DISABLED" envDefault:"false"`

	FlipDelay     time.Duration `env:"FLIP_DELAY" envDefault:"800ms"`
	Countdown     time.Duration `env:"COUNTDOWN" envDefault:"10s"`
	TickInterval  time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	SelectTimeout time.Duration `env:"SELECT_TIMEOUT" envDefault:"10s"`
	AppendTimeout time.Duration `env:"APPEND_TIMEOUT" envDefault:"15s"`

	NATSURL     string `env:"NATS_URL"`
	NATSSubject string `env:"NATS_SUBJECT_PREFIX" envDefault:"icebreaker.events"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisKey    string `env:"REDIS_KEY" envDefault:"icebreaker:records"`

	Database dbconfig.Config `envPrefix:"DB_"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.RecordBackend {
	case records.BackendAppsScript:
		if c.ScriptURL == "" {
			errs = append(errs, errors.New("SCRIPT_URL is required for the apps_script backend"))
		}
	case records.BackendPostgres, records.BackendRedis, records.BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", records.ErrUnknownBackend, c.RecordBackend))
	}

	switch c.HistoryStrategy {
	case records.StrategyStore, records.StrategyLocal:
	default:
		errs = append(errs, fmt.Errorf("unknown HISTORY_STRATEGY %q", c.HistoryStrategy))
	}

	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("TICK_INTERVAL must be positive"))
	}
	if c.Countdown < c.TickInterval {
		errs = append(errs, errors.New("COUNTDOWN must be at least one TICK_INTERVAL"))
	}
	if c.FlipDelay < 0 {
		errs = append(errs, errors.New("FLIP_DELAY must not be negative"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err))
	}

	return errors.Join(errs...)
}

// Location resolves Timezone. Validate has already checked it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) Addr() string {
	return ":" + c.Port
}

// DrawConfig maps the timing settings onto the session config.
func (c Config) DrawConfig(instanceID string) draw.Config {
	return draw.Config{
		FlipDelay:     c.FlipDelay,
		Countdown:     c.Countdown,
		TickInterval:  c.TickInterval,
		SelectTimeout: c.SelectTimeout,
		AppendTimeout: c.AppendTimeout,
		InstanceID:    instanceID,
	}
}
