// Package config loads the engine's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studiobgc/dialogue-editor/internal/runtime"
	"github.com/studiobgc/dialogue-editor/pkg/domain"
)

// Config is the on-disk configuration. Zero values fall back to runtime
// defaults, so a partial file is fine.
type Config struct {
	Version int `yaml:"version"`

	Player struct {
		// PauseOn lists node kind names treated as hard stops, e.g.
		// ["Dialogue", "DialogueFragment"]. Empty means the default mask.
		PauseOn               []string `yaml:"pause_on"`
		ExploreLimit          int      `yaml:"explore_limit"`
		ShadowLevelLimit      int      `yaml:"shadow_level_limit"`
		IgnoreInvalidBranches *bool    `yaml:"ignore_invalid_branches"`
	} `yaml:"player"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Redis struct {
		Addr   string        `yaml:"addr"`
		Prefix string        `yaml:"prefix"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"redis"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// ServerAddr returns the configured listen address, defaulting to :8080.
func (c *Config) ServerAddr() string {
	if c.Server.Addr == "" {
		return ":8080"
	}
	return c.Server.Addr
}

// PlayerConfig resolves the player section against the runtime defaults.
func (c *Config) PlayerConfig() (runtime.Config, error) {
	cfg := runtime.DefaultConfig()
	if len(c.Player.PauseOn) > 0 {
		mask := domain.PauseNone
		for _, name := range c.Player.PauseOn {
			tag, ok := domain.ParsePausableType(name)
			if !ok {
				return cfg, fmt.Errorf("player.pause_on: unknown node kind %q", name)
			}
			mask |= tag
		}
		cfg.PauseMask = mask
	}
	if c.Player.ExploreLimit > 0 {
		cfg.ExploreLimit = c.Player.ExploreLimit
	}
	if c.Player.ShadowLevelLimit > 0 {
		cfg.ShadowLevelLimit = c.Player.ShadowLevelLimit
	}
	if c.Player.IgnoreInvalidBranches != nil {
		cfg.IgnoreInvalidBranches = *c.Player.IgnoreInvalidBranches
	}
	return cfg, nil
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 0 && cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d", cfg.Version)
	}

	return &cfg, nil
}
