package sim

import (
	"fmt"

	"github.com/skovand/co2racer/internal/dynamo"
	"github.com/skovand/co2racer/internal/forces"
	"github.com/skovand/co2racer/internal/integrate"
	"github.com/skovand/co2racer/internal/scenario"
)

// Trajectory is the ordered (time, state, forces) record of one trial. It
// is retained only when detail output is requested; the summary fold does
// not need it.
type Trajectory struct {
	Frames []Frame
}

// Times returns the sample times.
func (tr *Trajectory) Times() []float64 {
	ts := make([]float64, len(tr.Frames))
	for i, f := range tr.Frames {
		ts[i] = f.T
	}
	return ts
}

// Series extracts a named value sequence for external plotting. Known
// names: velocity, position, acceleration, smoothed_acceleration,
// net_force, kinetic_energy, thrust.
func (tr *Trajectory) Series(name string) ([]float64, error) {
	var sel func(Frame) float64
	switch name {
	case "velocity":
		sel = func(f Frame) float64 { return f.State.Vel }
	case "position":
		sel = func(f Frame) float64 { return f.State.Pos }
	case "acceleration":
		sel = func(f Frame) float64 { return f.State.Accel }
	case "smoothed_acceleration":
		sel = func(f Frame) float64 { return f.State.Smooth }
	case "net_force":
		sel = func(f Frame) float64 { return f.Net }
	case "kinetic_energy":
		sel = func(f Frame) float64 { return f.State.Energy }
	case "thrust":
		sel = func(f Frame) float64 { return f.Thrust }
	default:
		return nil, fmt.Errorf("unknown series %q", name)
	}
	vals := make([]float64, len(tr.Frames))
	for i, f := range tr.Frames {
		vals[i] = sel(f)
	}
	return vals, nil
}

// stepBudget bounds the adaptive stepping loop; exhausting it is treated
// like non-convergence.
const stepBudget = 100000

// Runner executes one trial of a scenario: sampled parameters in, summary
// record out. A Runner is cheap and single-use per goroutine.
type Runner struct {
	Scenario       *scenario.Scenario
	KeepTrajectory bool
}

// Run integrates one trial to its stopping condition and reduces the
// trajectory to a summary. A modeled failure is reported in the summary,
// not as an error; the returned error is non-nil only for integrator
// non-convergence (the trial is then StatusAborted).
func (r *Runner) Run(trial int, p dynamo.Params) (Summary, *Trajectory, error) {
	sc := r.Scenario
	cfg := sc.Config()

	model := forces.Model{Choked: sc.Choked}
	var tank *dynamo.Tank
	if sc.Choked {
		tank = dynamo.NewTank(p)
	}
	sys := launchSystem{model: model, p: p, tank: tank}

	var stepper dynamo.Integrator = integrate.NewEuler()
	var adaptive dynamo.AdaptiveIntegrator
	if cfg.Adaptive {
		rk := integrate.NewRK45()
		rk.MinDt = cfg.MinDt
		adaptive = rk
	}

	metrics := []Metric{
		NewPeak("peak_thrust", func(f Frame) float64 { return f.Thrust }),
		NewPeak("max_velocity", func(f Frame) float64 { return f.State.Vel }),
		NewPeak("max_displacement", func(f Frame) float64 { return f.State.Pos }),
		NewImpulse(),
		NewBurnTime(),
	}

	var traj *Trajectory
	if r.KeepTrajectory {
		traj = &Trajectory{Frames: make([]Frame, 0, int(cfg.MaxTime/cfg.Dt)+1)}
	}

	observe := func(f Frame) {
		for _, m := range metrics {
			m.Observe(f)
		}
		if traj != nil {
			traj.Frames = append(traj.Frames, f)
		}
	}

	x := dynamo.State{}
	t := 0.0
	dt := cfg.Dt

	f := r.makeFrame(t, x, model, p, tank)
	x.Accel = f.Net / p.Mass
	x.NetF = f.Net
	f.State = x
	observe(f)

	summary := Summary{Trial: trial, Status: StatusCompleted}

	for step := 0; t < cfg.MaxTime; step++ {
		if step >= stepBudget {
			summary.Status = StatusAborted
			r.reduce(&summary, metrics, x, t)
			return summary, traj, &dynamo.StepError{Step: step, Time: t, Wrapped: dynamo.ErrNoConverge}
		}

		var used float64
		if cfg.Adaptive {
			if dt > cfg.MaxDt {
				dt = cfg.MaxDt
			}
			if t+dt > cfg.MaxTime {
				dt = cfg.MaxTime - t
			}
			var nx dynamo.State
			var err error
			nx, used, dt, err = adaptive.StepAdaptive(sys, x, t, dt, cfg.Tolerance)
			if err != nil {
				summary.Status = StatusAborted
				r.reduce(&summary, metrics, x, t)
				return summary, traj, &dynamo.StepError{Step: step, Time: t, Wrapped: err}
			}
			x = nx
		} else {
			var err error
			x, err = stepper.Step(sys, x, t, cfg.Dt)
			if err != nil {
				summary.Status = StatusAborted
				r.reduce(&summary, metrics, x, t)
				return summary, traj, &dynamo.StepError{Step: step, Time: t, Wrapped: err}
			}
			used = cfg.Dt
		}

		if tank != nil {
			tank.Deplete(p, used)
		}
		t += used

		if !x.IsValid() {
			summary.Status = StatusDegenerate
			r.reduce(&summary, metrics, x, t)
			return summary, traj, nil
		}

		f = r.makeFrame(t, x, model, p, tank)
		x.Accel = f.Net / p.Mass
		x.NetF = f.Net
		f.State = x
		observe(f)

		// Stopping predicates, in priority order.
		if t >= cfg.MaxTime-1e-12 {
			break
		}
		if sc.Kind == scenario.TrackRace && x.Pos >= sc.TrackLength {
			summary.Finished = true
			summary.FinishTime = t
			break
		}
		if sc.Kind == scenario.FrictionStability && f.Thrust-f.Drag < f.Friction {
			summary.Status = StatusFailed
			summary.FailureTime = t
			break
		}
	}

	r.reduce(&summary, metrics, x, t)
	return summary, traj, nil
}

func (r *Runner) makeFrame(t float64, x dynamo.State, model forces.Model, p dynamo.Params, tank *dynamo.Tank) Frame {
	v := x.Vel
	if v < 0 {
		v = 0
	}
	th := model.Thrust(t, p, tank)
	dr := forces.Drag(v, p)
	fr := forces.Friction(v, p)
	return Frame{
		T:        t,
		State:    x,
		Thrust:   th,
		Drag:     dr,
		Friction: fr,
		Net:      th - dr - fr,
	}
}

// reduce folds the metric values and final state into the summary.
func (r *Runner) reduce(s *Summary, metrics []Metric, x dynamo.State, t float64) {
	vals := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		vals[m.Name()] = m.Value()
	}

	s.PeakThrust = vals["peak_thrust"]
	s.TotalImpulse = vals["total_impulse"]
	s.BurnTime = vals["burn_time"]
	s.MaxVelocity = vals["max_velocity"]
	s.MaxDisplacement = vals["max_displacement"]
	s.FinalVelocity = x.Vel
	s.TotalTime = t

	// Predicate (1) dominates when the scenario-specific condition never
	// fires: the outcome time falls back to the horizon.
	if s.Status == StatusCompleted {
		if !s.Finished {
			s.FinishTime = t
		}
		if s.FailureTime == 0 && r.Scenario.Kind == scenario.FrictionStability {
			s.FailureTime = t
		}
	}
}
