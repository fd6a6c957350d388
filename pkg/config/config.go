// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mbeema/detour/pkg/keymap"
)

// Config is the top-level configuration for the detour tool.
type Config struct {
	LogLevel     string        `yaml:"log_level" env:"DETOUR_LOG_LEVEL"`
	PollInterval time.Duration `yaml:"poll_interval" env:"DETOUR_POLL_INTERVAL"`
	Bindings     []Binding     `yaml:"bindings"`
}

// Binding ties a named toggle feature to the key that flips it.
type Binding struct {
	Feature string `yaml:"feature"`
	Key     string `yaml:"key"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults. 50ms keeps
// toggle latency imperceptible without burning a core on key polling.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		PollInterval: 50 * time.Millisecond,
	}
}

// ApplyEnvOverrides reads DETOUR_* environment variables and applies them
// to the config, overriding YAML values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DETOUR_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("DETOUR_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PollInterval = d
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.PollInterval < time.Millisecond {
		return fmt.Errorf("poll_interval must be at least 1ms")
	}

	seen := make(map[string]struct{}, len(c.Bindings))
	for i, b := range c.Bindings {
		if b.Feature == "" {
			return fmt.Errorf("bindings[%d]: feature name is required", i)
		}
		if _, dup := seen[b.Feature]; dup {
			return fmt.Errorf("bindings[%d]: duplicate feature %q", i, b.Feature)
		}
		seen[b.Feature] = struct{}{}

		if b.Key == "" {
			return fmt.Errorf("bindings[%d] (%s): key is required", i, b.Feature)
		}
		if _, ok := keymap.Code(b.Key); !ok {
			return fmt.Errorf("bindings[%d] (%s): unknown key %q", i, b.Feature, b.Key)
		}
	}

	return nil
}
