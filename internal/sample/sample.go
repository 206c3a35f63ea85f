// Package sample draws per-trial parameter sets from configured probability
// distributions. Draws are reproducible: each trial gets an independent
// sub-stream derived from the run seed and the trial index.
package sample

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/skovand/co2racer/internal/dynamo"
)

// Kind names a distribution family.
type Kind string

const (
	Fixed   Kind = "fixed"
	Normal  Kind = "normal"
	Uniform Kind = "uniform"
)

// Spec declares the distribution of one physical parameter. The zero value
// is a fixed zero, so omitted parameters stay at zero rather than being
// sampled.
type Spec struct {
	Kind  Kind    `yaml:"dist"`
	Value float64 `yaml:"value,omitempty"`
	Mean  float64 `yaml:"mean,omitempty"`
	Sigma float64 `yaml:"sigma,omitempty"`
	Low   float64 `yaml:"low,omitempty"`
	High  float64 `yaml:"high,omitempty"`
}

// F is shorthand for a fixed spec.
func F(v float64) Spec { return Spec{Kind: Fixed, Value: v} }

// N is shorthand for a normal spec.
func N(mean, sigma float64) Spec { return Spec{Kind: Normal, Mean: mean, Sigma: sigma} }

// U is shorthand for a uniform spec.
func U(low, high float64) Spec { return Spec{Kind: Uniform, Low: low, High: high} }

// Validate reports an invalid distribution declaration as a ConfigError.
func (s Spec) Validate(name string) error {
	switch s.Kind {
	case Fixed, "":
		return nil
	case Normal:
		if s.Sigma < 0 {
			return &dynamo.ConfigError{Field: name, Reason: fmt.Sprintf("negative sigma %g", s.Sigma)}
		}
	case Uniform:
		if s.High < s.Low {
			return &dynamo.ConfigError{Field: name, Reason: fmt.Sprintf("uniform bounds inverted: [%g, %g]", s.Low, s.High)}
		}
	default:
		return &dynamo.ConfigError{Field: name, Reason: fmt.Sprintf("unknown distribution %q", s.Kind)}
	}
	return nil
}

// Draw produces one value. Fixed specs consume no randomness, so parameters
// with no variance are unaffected by the seed.
func (s Spec) Draw(src rand.Source) float64 {
	switch s.Kind {
	case Normal:
		if s.Sigma == 0 {
			return s.Mean
		}
		return distuv.Normal{Mu: s.Mean, Sigma: s.Sigma, Src: src}.Rand()
	case Uniform:
		if s.High == s.Low {
			return s.Low
		}
		return distuv.Uniform{Min: s.Low, Max: s.High, Src: src}.Rand()
	default:
		return s.Value
	}
}

// Dists declares the distribution of every sampled parameter. Parameters
// are drawn independently, in fixed field order, once per trial. No
// physical bounds are enforced beyond what the distribution yields; a
// degenerate draw (e.g. non-positive mass) surfaces later as an excluded
// trial, not as a sampling error.
type Dists struct {
	Mass         Spec `yaml:"mass"`
	WheelRadius  Spec `yaml:"wheel_radius"`
	Gravity      Spec `yaml:"gravity"`
	AirDensity   Spec `yaml:"air_density"`
	DragCd       Spec `yaml:"drag_cd"`
	FrontalArea  Spec `yaml:"frontal_area"`
	ReynoldsCorr Spec `yaml:"reynolds_corr"`
	StaticMu     Spec `yaml:"static_mu"`
	KineticMu    Spec `yaml:"kinetic_mu"`
	Deformation  Spec `yaml:"deformation"`

	SpikeForce  Spec `yaml:"spike_force"`
	SpikeDecay  Spec `yaml:"spike_decay"`
	TailForce   Spec `yaml:"tail_force"`
	TailDecay   Spec `yaml:"tail_decay"`
	ThrustScale Spec `yaml:"thrust_scale"`
	BurnCutoff  Spec `yaml:"burn_cutoff"`

	NozzleArea     Spec `yaml:"nozzle_area"`
	DischargeCoeff Spec `yaml:"discharge_coeff"`
	InitPressure   Spec `yaml:"init_pressure"`
	InitTemp       Spec `yaml:"init_temp"`
	PressureDecay  Spec `yaml:"pressure_decay"`
	TempDecay      Spec `yaml:"temp_decay"`
}

type namedSpec struct {
	name string
	spec Spec
}

func (d *Dists) fields() []namedSpec {
	return []namedSpec{
		{"mass", d.Mass},
		{"wheel_radius", d.WheelRadius},
		{"gravity", d.Gravity},
		{"air_density", d.AirDensity},
		{"drag_cd", d.DragCd},
		{"frontal_area", d.FrontalArea},
		{"reynolds_corr", d.ReynoldsCorr},
		{"static_mu", d.StaticMu},
		{"kinetic_mu", d.KineticMu},
		{"deformation", d.Deformation},
		{"spike_force", d.SpikeForce},
		{"spike_decay", d.SpikeDecay},
		{"tail_force", d.TailForce},
		{"tail_decay", d.TailDecay},
		{"thrust_scale", d.ThrustScale},
		{"burn_cutoff", d.BurnCutoff},
		{"nozzle_area", d.NozzleArea},
		{"discharge_coeff", d.DischargeCoeff},
		{"init_pressure", d.InitPressure},
		{"init_temp", d.InitTemp},
		{"pressure_decay", d.PressureDecay},
		{"temp_decay", d.TempDecay},
	}
}

// Set replaces one distribution by its yaml field name. It reports false
// for unknown names. Sweeps use it to pin a parameter to a fixed value.
func (d *Dists) Set(name string, spec Spec) bool {
	switch name {
	case "mass":
		d.Mass = spec
	case "wheel_radius":
		d.WheelRadius = spec
	case "gravity":
		d.Gravity = spec
	case "air_density":
		d.AirDensity = spec
	case "drag_cd":
		d.DragCd = spec
	case "frontal_area":
		d.FrontalArea = spec
	case "reynolds_corr":
		d.ReynoldsCorr = spec
	case "static_mu":
		d.StaticMu = spec
	case "kinetic_mu":
		d.KineticMu = spec
	case "deformation":
		d.Deformation = spec
	case "spike_force":
		d.SpikeForce = spec
	case "spike_decay":
		d.SpikeDecay = spec
	case "tail_force":
		d.TailForce = spec
	case "tail_decay":
		d.TailDecay = spec
	case "thrust_scale":
		d.ThrustScale = spec
	case "burn_cutoff":
		d.BurnCutoff = spec
	case "nozzle_area":
		d.NozzleArea = spec
	case "discharge_coeff":
		d.DischargeCoeff = spec
	case "init_pressure":
		d.InitPressure = spec
	case "init_temp":
		d.InitTemp = spec
	case "pressure_decay":
		d.PressureDecay = spec
	case "temp_decay":
		d.TempDecay = spec
	default:
		return false
	}
	return true
}

// Validate checks every declared distribution before any trial runs.
func (d *Dists) Validate() error {
	for _, f := range d.fields() {
		if err := f.spec.Validate(f.name); err != nil {
			return err
		}
	}
	return nil
}

// Sample draws one immutable parameter set from src.
func (d *Dists) Sample(src rand.Source) dynamo.Params {
	return dynamo.Params{
		Mass:         d.Mass.Draw(src),
		WheelRadius:  d.WheelRadius.Draw(src),
		Gravity:      d.Gravity.Draw(src),
		AirDensity:   d.AirDensity.Draw(src),
		DragCd:       d.DragCd.Draw(src),
		FrontalArea:  d.FrontalArea.Draw(src),
		ReynoldsCorr: d.ReynoldsCorr.Draw(src),
		StaticMu:     d.StaticMu.Draw(src),
		KineticMu:    d.KineticMu.Draw(src),
		Deformation:  d.Deformation.Draw(src),

		SpikeForce:  d.SpikeForce.Draw(src),
		SpikeDecay:  d.SpikeDecay.Draw(src),
		TailForce:   d.TailForce.Draw(src),
		TailDecay:   d.TailDecay.Draw(src),
		ThrustScale: d.ThrustScale.Draw(src),
		BurnCutoff:  d.BurnCutoff.Draw(src),

		NozzleArea:     d.NozzleArea.Draw(src),
		DischargeCoeff: d.DischargeCoeff.Draw(src),
		InitPressure:   d.InitPressure.Draw(src),
		InitTemp:       d.InitTemp.Draw(src),
		PressureDecay:  d.PressureDecay.Draw(src),
		TempDecay:      d.TempDecay.Draw(src),
	}
}

// TrialSeed derives the independent sub-stream seed for one trial from the
// run seed, splitmix64-style. Re-running with the same seed reproduces
// identical draws regardless of worker scheduling.
func TrialSeed(seed uint64, trial int) uint64 {
	z := seed + (uint64(trial)+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Source returns the seeded random source for one trial.
func Source(seed uint64, trial int) rand.Source {
	return rand.NewSource(TrialSeed(seed, trial))
}
