// Package optim sweeps scenario parameters over a grid: each grid point
// pins the named parameters to fixed values, runs a Monte Carlo batch, and
// scores it by the mean of one outcome field.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/skovand/co2racer/internal/dynamo"
	"github.com/skovand/co2racer/internal/sample"
	"github.com/skovand/co2racer/internal/scenario"
	"github.com/skovand/co2racer/internal/sim"
)

// Axis is one swept parameter and the values it takes.
type Axis struct {
	Name   string
	Values []float64
}

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Score  float64
	Err    error
}

// Sweep evaluates every combination of its axes.
type Sweep struct {
	Axes []Axis

	// Objective is the summary field whose batch mean is scored.
	Objective string
	// Maximize flips the comparison; the default picks the smallest mean.
	Maximize bool

	Trials  int
	Seed    uint64
	Workers int
}

// Run evaluates the full grid against sc and returns every point plus the
// best one. Scenario copies are pinned per point; sc itself is not mutated.
// Grid points whose batches produce no valid trials score NaN and never win.
func (s *Sweep) Run(ctx context.Context, sc *scenario.Scenario) ([]Point, *Point, error) {
	if len(s.Axes) == 0 {
		return nil, nil, &dynamo.ConfigError{Field: "axes", Reason: "nothing to sweep"}
	}
	for _, ax := range s.Axes {
		if len(ax.Values) == 0 {
			return nil, nil, &dynamo.ConfigError{Field: ax.Name, Reason: "empty value list"}
		}
		probe := sc.Params
		if !probe.Set(ax.Name, sample.F(0)) {
			return nil, nil, &dynamo.ConfigError{Field: ax.Name, Reason: "unknown parameter"}
		}
	}
	if s.Objective == "" {
		return nil, nil, &dynamo.ConfigError{Field: "objective", Reason: "missing summary field"}
	}

	var points []Point
	if err := s.walk(ctx, sc, 0, map[string]float64{}, &points); err != nil {
		return points, nil, err
	}

	var best *Point
	for i := range points {
		p := &points[i]
		if p.Err != nil || math.IsNaN(p.Score) {
			continue
		}
		if best == nil || s.better(p.Score, best.Score) {
			best = p
		}
	}
	return points, best, nil
}

func (s *Sweep) better(a, b float64) bool {
	if s.Maximize {
		return a > b
	}
	return a < b
}

func (s *Sweep) walk(ctx context.Context, sc *scenario.Scenario, depth int, current map[string]float64, out *[]Point) error {
	if depth == len(s.Axes) {
		pt := s.evaluate(ctx, sc, current)
		*out = append(*out, pt)
		return ctx.Err()
	}

	ax := s.Axes[depth]
	for _, v := range ax.Values {
		current[ax.Name] = v
		if err := s.walk(ctx, sc, depth+1, current, out); err != nil {
			return err
		}
	}
	delete(current, ax.Name)
	return nil
}

func (s *Sweep) evaluate(ctx context.Context, sc *scenario.Scenario, params map[string]float64) Point {
	pt := Point{Params: map[string]float64{}, Score: math.NaN()}
	for k, v := range params {
		pt.Params[k] = v
	}

	pinned := *sc
	for name, v := range params {
		pinned.Params.Set(name, sample.F(v))
	}

	d := sim.Driver{Scenario: &pinned, Trials: s.Trials, Seed: s.Seed, Workers: s.Workers}
	res, err := d.Run(ctx)
	if err != nil {
		pt.Err = err
		return pt
	}

	st, ok := res.Aggregates[s.Objective]
	if !ok || st.N == 0 {
		pt.Err = fmt.Errorf("objective %q produced no valid trials", s.Objective)
		return pt
	}
	pt.Score = st.Mean
	return pt
}
