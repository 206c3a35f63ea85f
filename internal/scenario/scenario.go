// Package scenario describes the three launch studies the simulator runs:
// cartridge burn profiling, a timed track race, and traction stability
// under friction loss. A scenario bundles the stopping rules, the numeric
// settings, and the distribution of every sampled parameter.
package scenario

import (
	"fmt"

	"github.com/skovand/co2racer/internal/dynamo"
	"github.com/skovand/co2racer/internal/sample"
)

// Kind tags the scenario variant.
type Kind string

const (
	// BurnProfile integrates thrust over a fixed span and reduces it to
	// burn time, peak thrust, and total impulse. No stopping predicate
	// other than the time horizon.
	BurnProfile Kind = "burn"
	// TrackRace runs the racer down a track of fixed length; the trial
	// completes when the track length or the time horizon is reached.
	TrackRace Kind = "race"
	// FrictionStability watches for propulsion loss: the trial fails the
	// moment applied force drops below the required friction force.
	FrictionStability Kind = "stability"
)

// Scenario is the full configuration of one study. It is consumed read-only
// by every trial.
type Scenario struct {
	Kind   Kind   `yaml:"kind"`
	Name   string `yaml:"name,omitempty"`
	Choked bool   `yaml:"choked,omitempty"` // choked-flow thrust instead of the curve

	TrackLength float64 `yaml:"track_length,omitempty"` // m, TrackRace only

	Dt        float64 `yaml:"dt"`
	MaxTime   float64 `yaml:"max_time"`
	Adaptive  bool    `yaml:"adaptive,omitempty"`
	Tolerance float64 `yaml:"tolerance,omitempty"`

	Params sample.Dists `yaml:"params"`
}

// Config extracts the integrator settings.
func (s *Scenario) Config() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = s.Dt
	cfg.MaxTime = s.MaxTime
	cfg.Adaptive = s.Adaptive
	if s.Tolerance > 0 {
		cfg.Tolerance = s.Tolerance
	}
	return cfg
}

// SummaryFields lists the numeric outcome fields this scenario aggregates.
func (s *Scenario) SummaryFields() []string {
	switch s.Kind {
	case BurnProfile:
		return []string{"burn_time", "peak_thrust", "total_impulse"}
	case TrackRace:
		return []string{"finish_time", "max_velocity", "final_velocity", "total_time"}
	case FrictionStability:
		return []string{"failure_time", "max_displacement", "final_velocity", "total_time"}
	default:
		return nil
	}
}

// Validate reports the first static configuration problem as a ConfigError.
// It runs before any trial executes.
func (s *Scenario) Validate() error {
	switch s.Kind {
	case BurnProfile, TrackRace, FrictionStability:
	default:
		return &dynamo.ConfigError{Field: "kind", Reason: fmt.Sprintf("unknown scenario %q", s.Kind)}
	}
	if s.Kind == TrackRace && s.TrackLength <= 0 {
		return &dynamo.ConfigError{Field: "track_length", Reason: fmt.Sprintf("must be positive, got %g", s.TrackLength)}
	}
	if s.Tolerance < 0 {
		return &dynamo.ConfigError{Field: "tolerance", Reason: fmt.Sprintf("must not be negative, got %g", s.Tolerance)}
	}
	if s.Adaptive && s.Tolerance == 0 {
		return &dynamo.ConfigError{Field: "tolerance", Reason: "required for adaptive stepping"}
	}
	if err := s.Config().Validate(); err != nil {
		return err
	}
	return s.Params.Validate()
}
