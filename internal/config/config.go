// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config is populated from environment variables (see .env.example).
type Config struct {
	Port             int           `env:"PORT"               envDefault:"5175"`
	LogLevel         string        `env:"LOG_LEVEL"          envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT"         envDefault:"json"`
	ClientOrigin     string        `env:"CLIENT_ORIGIN"      envDefault:"http://localhost:5173"`
	CookieSecure     bool          `env:"COOKIE_SECURE"      envDefault:"false"`
	RoundSecret      string        `env:"ROUND_SECRET"       envDefault:"dev_secret_change_me"`
	RoundTokenTTL    time.Duration `env:"ROUND_TOKEN_TTL"    envDefault:"24h"`
	DailySalt        string        `env:"DAILY_SALT"         envDefault:"local_dev_salt"`
	AllowFixedAnswer bool          `env:"ALLOW_FIXED_ANSWER" envDefault:"false"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT"    envDefault:"10s"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q: want json or console", c.LogFormat))
	}
	if strings.TrimSpace(c.RoundSecret) == "" {
		errs = append(errs, errors.New("ROUND_SECRET must not be empty"))
	}
	if c.RoundTokenTTL <= 0 {
		errs = append(errs, errors.New("ROUND_TOKEN_TTL must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// Logger builds the root zerolog logger for the configured level and format.
func (c Config) Logger() zerolog.Logger {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	var l zerolog.Logger
	if c.LogFormat == "console" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		l = zerolog.New(os.Stderr)
	}
	return l.Level(lvl).With().Timestamp().Logger()
}
