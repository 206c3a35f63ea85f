// Package config loads and validates run configuration: the scenario plus
// the Monte Carlo batch settings. Files are yaml; CLI flags override them.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/skovand/co2racer/internal/dynamo"
	"github.com/skovand/co2racer/internal/scenario"
)

const (
	DefaultTrials = 1000
	DefaultSeed   = 1
)

// Config is one full run description.
type Config struct {
	Scenario scenario.Scenario `yaml:"scenario"`
	Trials   int               `yaml:"trials"`
	Seed     uint64            `yaml:"seed"`
	Workers  int               `yaml:"workers,omitempty"`
}

// Default starts from the standard track race.
func Default() *Config {
	return &Config{
		Scenario: *scenario.Default(scenario.TrackRace),
		Trials:   DefaultTrials,
		Seed:     DefaultSeed,
	}
}

// Load reads a yaml config, layered over the defaults.
func Load(path string) (*Config, error) {
	return LoadInto(path, Default())
}

// LoadInto reads a yaml config layered over base; fields absent from the
// file keep their base values. base is returned mutated.
func LoadInto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return base, nil
}

// Save writes the config as yaml.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate surfaces every static configuration problem before a run starts.
func (c *Config) Validate() error {
	if c.Trials <= 0 {
		return &dynamo.ConfigError{Field: "trials", Reason: fmt.Sprintf("must be positive, got %d", c.Trials)}
	}
	if c.Workers < 0 {
		return &dynamo.ConfigError{Field: "workers", Reason: fmt.Sprintf("must not be negative, got %d", c.Workers)}
	}
	return c.Scenario.Validate()
}
