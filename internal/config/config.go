// Apiarius - Honeypot Telemetry Analytics and Session Risk Scoring
// Copyright 2026 P. Moreau (pmoreau84)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmoreau84/apiarius

// Package config loads the layered runtime configuration: built-in defaults,
// then an optional YAML file, then APIARIUS_-prefixed environment variables.
// Invalid configuration is a startup error, never a runtime one.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/pmoreau84/apiarius/internal/geo"
	"github.com/pmoreau84/apiarius/internal/kpi"
	"github.com/pmoreau84/apiarius/internal/session"
)

// DefaultConfigPaths lists where the config file is searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/apiarius/config.yaml",
	"/etc/apiarius/config.yml",
}

// ConfigPathEnvVar overrides the config file search entirely.
const ConfigPathEnvVar = "APIARIUS_CONFIG"

// envPrefix scopes every environment override to this process.
const envPrefix = "APIARIUS_"

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Host            string        `koanf:"host" json:"host"`
	Port            int           `koanf:"port" json:"port" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" json:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" json:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" validate:"gt=0"`

	// CORSOrigins is the allowed dashboard origin list; "*" for lab setups.
	CORSOrigins []string `koanf:"cors_origins" json:"cors_origins"`

	// Rate limit applied to the ingest endpoints, per source IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" json:"rate_limit_reqs" validate:"gt=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" json:"rate_limit_window" validate:"gt=0"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level" json:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" json:"format" validate:"oneof=json console"`
}

// BroadcastConfig tunes the websocket fan-out.
type BroadcastConfig struct {
	// Debounce is the minimum spacing between full KPI frames.
	Debounce time.Duration `koanf:"debounce" json:"debounce" validate:"gt=0"`
}

// Config is the root of the runtime configuration tree.
type Config struct {
	Server    ServerConfig    `koanf:"server" json:"server"`
	Logging   LoggingConfig   `koanf:"logging" json:"logging"`
	Session   session.Config  `koanf:"session" json:"session"`
	Geo       geo.Config      `koanf:"geo" json:"geo"`
	KPI       kpi.Config      `koanf:"kpi" json:"kpi"`
	Broadcast BroadcastConfig `koanf:"broadcast" json:"broadcast"`
}

// Default returns the full default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8420,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Session:   session.DefaultConfig(),
		Geo:       geo.DefaultConfig(),
		KPI:       kpi.DefaultConfig(),
		Broadcast: BroadcastConfig{Debounce: 2 * time.Second},
	}
}

// Load builds the configuration from defaults, the optional config file, and
// environment overrides, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// APIARIUS_SERVER__PORT -> server.port; a double underscore separates
	// sections so key names keep their single underscores.
	envProvider := env.Provider(envPrefix, ".", func(key string) string {
		key = strings.TrimPrefix(key, envPrefix)
		return strings.ReplaceAll(strings.ToLower(key), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := normalizeSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the whole tree with struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are the keys that may arrive as comma-separated strings
// from the environment but must unmarshal as slices.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func normalizeSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}
