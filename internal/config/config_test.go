package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/skovand/co2racer/internal/sample"
	"github.com/skovand/co2racer/internal/scenario"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Trials <= 0 {
		t.Error("trials should be positive")
	}
	if cfg.Scenario.Kind != scenario.TrackRace {
		t.Errorf("default scenario should be the race, got %s", cfg.Scenario.Kind)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero trials", func(c *Config) { c.Trials = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"bad scenario", func(c *Config) { c.Scenario.Dt = 0 }},
		{"bad distribution", func(c *Config) { c.Scenario.Params.Mass = sample.N(0.055, -1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")

	cfg := Default()
	cfg.Trials = 250
	cfg.Seed = 77
	cfg.Scenario.Kind = scenario.FrictionStability
	cfg.Scenario.Params.Deformation = sample.U(0, 0.4)

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Trials != 250 || got.Seed != 77 {
		t.Errorf("batch settings lost: %+v", got)
	}
	if got.Scenario.Kind != scenario.FrictionStability {
		t.Errorf("scenario kind lost: %s", got.Scenario.Kind)
	}
	if got.Scenario.Params.Deformation != cfg.Scenario.Params.Deformation {
		t.Errorf("distribution lost: %+v", got.Scenario.Params.Deformation)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("trials: [not a number"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadIntoKeepsBase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trials.yaml")
	if err := os.WriteFile(path, []byte("trials: 50\n"), 0644); err != nil {
		t.Fatal(err)
	}

	base := &Config{
		Scenario: *scenario.Default(scenario.BurnProfile),
		Trials:   DefaultTrials,
		Seed:     7,
	}
	cfg, err := LoadInto(path, base)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Trials != 50 {
		t.Errorf("trials not overridden: %d", cfg.Trials)
	}
	if cfg.Scenario.Kind != scenario.BurnProfile {
		t.Errorf("base scenario kind lost: %q", cfg.Scenario.Kind)
	}
	if cfg.Seed != 7 {
		t.Errorf("base seed lost: %d", cfg.Seed)
	}
}
