package optim

import (
	"context"
	"testing"

	"github.com/skovand/co2racer/internal/dynamo"
	"github.com/skovand/co2racer/internal/sample"
	"github.com/skovand/co2racer/internal/scenario"
)

func pinnedRace() *scenario.Scenario {
	return &scenario.Scenario{
		Kind:        scenario.TrackRace,
		TrackLength: 20.0,
		Dt:          0.001,
		MaxTime:     3.0,
		Params: sample.Dists{
			Mass:        sample.F(0.055),
			WheelRadius: sample.F(0.015),
			Gravity:     sample.F(9.81),
			AirDensity:  sample.F(1.225),
			DragCd:      sample.F(0.6),
			FrontalArea: sample.F(0.002),
			StaticMu:    sample.F(0.25),
			KineticMu:   sample.F(0.15),
			SpikeForce:  sample.F(25.0),
			SpikeDecay:  sample.F(80.0),
			TailForce:   sample.F(8.0),
			TailDecay:   sample.F(8.0),
			ThrustScale: sample.F(1.0),
			BurnCutoff:  sample.F(1.0),
		},
	}
}

func TestSweepPicksLowestDrag(t *testing.T) {
	sc := pinnedRace()
	s := Sweep{
		Axes:      []Axis{{Name: "drag_cd", Values: []float64{0.4, 0.6, 0.8}}},
		Objective: "finish_time",
		Trials:    3,
		Seed:      1,
	}

	points, best, err := s.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 grid points, got %d", len(points))
	}
	if best == nil {
		t.Fatal("no best point")
	}
	if best.Params["drag_cd"] != 0.4 {
		t.Errorf("less drag should finish sooner, best was cd=%g", best.Params["drag_cd"])
	}

	// The source scenario keeps its original distribution.
	if sc.Params.DragCd.Value != 0.6 {
		t.Errorf("sweep mutated the input scenario: %+v", sc.Params.DragCd)
	}
}

func TestSweepMaximize(t *testing.T) {
	sc := pinnedRace()
	s := Sweep{
		Axes:      []Axis{{Name: "spike_force", Values: []float64{15.0, 35.0}}},
		Objective: "max_velocity",
		Maximize:  true,
		Trials:    2,
		Seed:      1,
	}

	_, best, err := s.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if best == nil || best.Params["spike_force"] != 35.0 {
		t.Errorf("more thrust should reach higher velocity: %+v", best)
	}
}

func TestSweepTwoAxesCoversGrid(t *testing.T) {
	sc := pinnedRace()
	s := Sweep{
		Axes: []Axis{
			{Name: "mass", Values: []float64{0.05, 0.06}},
			{Name: "drag_cd", Values: []float64{0.5, 0.7}},
		},
		Objective: "finish_time",
		Trials:    2,
		Seed:      1,
	}

	points, _, err := s.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected 4 grid points, got %d", len(points))
	}
	seen := map[[2]float64]bool{}
	for _, p := range points {
		seen[[2]float64{p.Params["mass"], p.Params["drag_cd"]}] = true
	}
	if len(seen) != 4 {
		t.Errorf("grid points not distinct: %d unique", len(seen))
	}
}

func TestSweepRejectsBadConfig(t *testing.T) {
	sc := pinnedRace()

	cases := []struct {
		name  string
		sweep Sweep
	}{
		{"no axes", Sweep{Objective: "finish_time", Trials: 2}},
		{"unknown parameter", Sweep{
			Axes:      []Axis{{Name: "warp_factor", Values: []float64{1}}},
			Objective: "finish_time", Trials: 2,
		}},
		{"empty values", Sweep{
			Axes:      []Axis{{Name: "mass"}},
			Objective: "finish_time", Trials: 2,
		}},
		{"missing objective", Sweep{
			Axes:   []Axis{{Name: "mass", Values: []float64{0.05}}},
			Trials: 2,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := tc.sweep.Run(context.Background(), sc)
			if !dynamo.IsConfigError(err) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}
