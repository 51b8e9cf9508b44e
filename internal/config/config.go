// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

// Package config loads service configuration from YAML files and
// command-line flags.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full service configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Recovery RecoveryConfig `koanf:"recovery"`
	Log      LogConfig      `koanf:"log"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// SessionConfig holds session lifetime settings.
type SessionConfig struct {
	Duration    time.Duration `koanf:"duration"`
	IdleTimeout time.Duration `koanf:"idle_timeout"`
}

// RecoveryConfig holds password recovery settings.
type RecoveryConfig struct {
	CodeLength  int           `koanf:"code_length"`
	CodeExpiry  time.Duration `koanf:"code_expiry"`
	RateWindow  time.Duration `koanf:"rate_window"`
	RateMax     int           `koanf:"rate_max"`
	MaxAttempts int           `koanf:"max_attempts"`

	// DevDelivery logs recovery codes instead of sending them. Never
	// enable outside local development.
	DevDelivery bool `koanf:"dev_delivery"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the configuration defaults. File and flag values
// override these on load.
func Default() Config {
	return Config{
		Session: SessionConfig{
			Duration:    time.Hour,
			IdleTimeout: 15 * time.Minute,
		},
		Recovery: RecoveryConfig{
			CodeLength:  6,
			CodeExpiry:  15 * time.Minute,
			RateWindow:  15 * time.Minute,
			RateMax:     3,
			MaxAttempts: 3,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from an optional YAML file and an optional
// flag set, layered over the defaults. Flags take precedence over the
// file.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load config file").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load flags").
				Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_PARSE_FAILED").
			With("operation", "unmarshal config").
			Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if c.Session.Duration <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session.duration must be positive")
	}
	if c.Session.IdleTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session.idle_timeout must be positive")
	}
	if c.Session.IdleTimeout > c.Session.Duration {
		return oops.Code("CONFIG_INVALID").Errorf("session.idle_timeout cannot exceed session.duration")
	}
	if c.Recovery.RateMax <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("recovery.rate_max must be positive")
	}
	if c.Recovery.MaxAttempts <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("recovery.max_attempts must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be text or json")
	}
	return nil
}
