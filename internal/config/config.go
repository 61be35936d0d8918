// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Plume Contributors

// Package config loads runtime configuration.
//
// Precedence, lowest to highest: built-in defaults, YAML config file,
// PLUME_* environment variables, command-line flags.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Pagination bounds.
const (
	DefaultPageSize = 30
	MaxPageSize     = 100
)

// Config is the full runtime configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Page     PageConfig     `koanf:"page"`
}

// DatabaseConfig holds connection settings for the account store.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text or json
}

// MetricsConfig controls the observability server.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// PageConfig controls list pagination.
type PageConfig struct {
	Size int `koanf:"size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Page:    PageConfig{Size: DefaultPageSize},
	}
}

// envOverrides maps PLUME_* environment variables onto koanf keys. koanf's
// dedicated env provider is not part of our dependency set, and the surface
// is small enough to enumerate.
var envOverrides = map[string]string{
	"PLUME_DATABASE_URL": "database.url",
	"PLUME_LOG_LEVEL":    "log.level",
	"PLUME_LOG_FORMAT":   "log.format",
	"PLUME_METRICS_ADDR": "metrics.addr",
}

// Load builds the configuration. path may be empty (no file); flags may be
// nil (no flag overrides).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	for env, key := range envOverrides {
		if v := os.Getenv(env); v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, oops.Code("CONFIG_ENV_FAILED").With("env", env).Wrap(err)
			}
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	// Unset flags surface as zero values through posflag; restore defaults
	// for those so flag registration order cannot blank out a setting.
	def := Default()
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = def.Metrics.Addr
	}
	if cfg.Page.Size == 0 {
		cfg.Page.Size = def.Page.Size
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints. The database URL is checked by the
// commands that need one, not here, so read-only commands work without it.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").
			With("log.level", c.Log.Level).
			Errorf("log level must be one of debug, info, warn, error")
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return oops.Code("CONFIG_INVALID").
			With("log.format", c.Log.Format).
			Errorf("log format must be text or json")
	}

	if c.Page.Size < 1 || c.Page.Size > MaxPageSize {
		return oops.Code("CONFIG_INVALID").
			With("page.size", c.Page.Size).
			Errorf("page size must be between 1 and %d", MaxPageSize)
	}

	return nil
}
