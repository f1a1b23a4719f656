package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settlement backends.
const (
	SettlementTimer = "timer"
	SettlementRiver = "river"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName           string        `env:"APP_NAME" envDefault:"SmartWin"`
	AppEnv            string        `env:"APP_ENV" envDefault:"development"`
	Port              string        `env:"PORT" envDefault:"8080"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat         string        `env:"LOG_FORMAT" envDefault:"json"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	RedisURL          string        `env:"REDIS_URL"`
	ShutdownPeriod    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	IdempotencyTTL    time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SettlementDelay   time.Duration `env:"SETTLEMENT_DELAY" envDefault:"1500ms"`
	SettlementBackend string        `env:"SETTLEMENT_BACKEND" envDefault:"timer"`
	CORSOrigins       []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// Load reads configuration values from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalize()
}

// LoadFrom reads configuration from the given variables instead of the
// process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalize()
}

func (c Config) normalize() (Config, error) {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)
	c.SettlementBackend = strings.ToLower(strings.TrimSpace(c.SettlementBackend))

	switch c.SettlementBackend {
	case SettlementTimer, SettlementRiver:
	default:
		return Config{}, fmt.Errorf("unsupported SETTLEMENT_BACKEND %q", c.SettlementBackend)
	}
	if c.SettlementDelay < 0 {
		return Config{}, errors.New("SETTLEMENT_DELAY must not be negative")
	}
	if c.SettlementBackend == SettlementRiver && c.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL must be set for the river settlement backend")
	}

	if !c.IsDev() {
		if c.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL must be set")
		}
		if c.RedisURL == "" {
			return Config{}, errors.New("REDIS_URL must be set")
		}
	}
	return c, nil
}

// IsDev reports whether the app runs in a local environment where missing
// Postgres or Redis fall back to in-memory stores.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
