// Package config loads cortexkg configuration: YAML file first, then
// CORTEXKG_* environment variables on top.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all cortexkg configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Decay    DecayConfig    `yaml:"decay"`
	Priority PriorityConfig `yaml:"priority"`
}

type ServerConfig struct {
	Bind string `yaml:"bind" env:"CORTEXKG_BIND"`
	Port int    `yaml:"port" env:"CORTEXKG_PORT"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"CORTEXKG_DB"`
}

// DecayConfig tunes scheduled confidence decay. The defaults are
// compatibility-critical: existing stores were decayed with 60 days, 1%/day
// and a 0.3 floor.
type DecayConfig struct {
	ThresholdDays int     `yaml:"threshold_days" env:"CORTEXKG_DECAY_THRESHOLD_DAYS"`
	DailyRate     float64 `yaml:"daily_rate" env:"CORTEXKG_DECAY_DAILY_RATE"`
	Floor         float64 `yaml:"floor" env:"CORTEXKG_DECAY_FLOOR"`
}

// PriorityConfig tunes namespace-aware search re-ranking.
type PriorityConfig struct {
	Current   float64 `yaml:"current" env:"CORTEXKG_PRIORITY_CURRENT"`
	Framework float64 `yaml:"framework" env:"CORTEXKG_PRIORITY_FRAMEWORK"`
	Other     float64 `yaml:"other" env:"CORTEXKG_PRIORITY_OTHER"`
}

// Default returns a Config with the standard tuning.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 38200,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Decay: DecayConfig{
			ThresholdDays: 60,
			DailyRate:     0.01,
			Floor:         0.3,
		},
		Priority: PriorityConfig{
			Current:   2.0,
			Framework: 1.5,
			Other:     0.5,
		},
	}
}

// Load reads YAML from path (skipped when path is empty or missing) and then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("env config: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
