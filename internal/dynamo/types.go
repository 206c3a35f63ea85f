package dynamo

import (
	"fmt"
	"math"
)

// State is the full launch state of the racer at one instant. The smoothed
// acceleration relaxes toward the instantaneous value with time constant
// SmoothingTau so that derivative traces stay usable for plotting.
type State struct {
	Vel    float64 // velocity, m/s (never negative)
	Pos    float64 // position along the track, m
	Accel  float64 // instantaneous acceleration, m/s^2
	Smooth float64 // relaxed acceleration, m/s^2
	Omega  float64 // wheel angular velocity, rad/s
	Energy float64 // accumulated kinetic energy, J
	NetF   float64 // net force trace, N
}

// SmoothingTau is the relaxation time constant for State.Smooth.
const SmoothingTau = 0.001

const stateDim = 7

func (s State) vec() [stateDim]float64 {
	return [stateDim]float64{s.Vel, s.Pos, s.Accel, s.Smooth, s.Omega, s.Energy, s.NetF}
}

func fromVec(v [stateDim]float64) State {
	return State{Vel: v[0], Pos: v[1], Accel: v[2], Smooth: v[3], Omega: v[4], Energy: v[5], NetF: v[6]}
}

// Add returns s + o component-wise.
func (s State) Add(o State) State {
	a, b := s.vec(), o.vec()
	for i := range a {
		a[i] += b[i]
	}
	return fromVec(a)
}

// Sub returns s - o component-wise.
func (s State) Sub(o State) State {
	a, b := s.vec(), o.vec()
	for i := range a {
		a[i] -= b[i]
	}
	return fromVec(a)
}

// Scale returns s scaled by f.
func (s State) Scale(f float64) State {
	a := s.vec()
	for i := range a {
		a[i] *= f
	}
	return fromVec(a)
}

// Norm returns the Euclidean norm of the state vector.
func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s.vec() {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// IsValid reports whether every component is finite.
func (s State) IsValid() bool {
	for _, v := range s.vec() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ErrScale returns the per-component error scale used by adaptive stepping:
// |x_i| + |dt*k_i| + floor, the usual mixed absolute/relative control.
func (s State) ErrScale(k State, dt, floor float64) State {
	a, b := s.vec(), k.vec()
	for i := range a {
		a[i] = math.Abs(a[i]) + math.Abs(dt*b[i]) + floor
	}
	return fromVec(a)
}

// MaxRatio returns max_i |s_i| / scale_i.
func (s State) MaxRatio(scale State) float64 {
	a, b := s.vec(), scale.vec()
	m := 0.0
	for i := range a {
		m = math.Max(m, math.Abs(a[i])/b[i])
	}
	return m
}

// System is the coupled first-order ODE driving the racer: dX/dt = f(X, t).
// Implementations must be pure; per-trial running state (tank depletion)
// is advanced by the trial loop between steps, never inside Derive.
type System interface {
	Derive(x State, t float64) State
}

// Integrator advances a state by one step. Implementations clamp velocity
// to be non-negative at the point of update.
type Integrator interface {
	Step(sys System, x State, t, dt float64) (State, error)
}

// AdaptiveIntegrator additionally supports error-controlled stepping. It
// returns the step size actually consumed (rejected attempts shrink it
// before acceptance) and the size to attempt next.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (next State, used, dtNext float64, err error)
}

// Config holds the numeric settings for one trial run.
type Config struct {
	Dt        float64 // fixed step size, s
	MaxTime   float64 // simulation horizon, s
	Adaptive  bool
	Tolerance float64 // local error tolerance for adaptive stepping
	MinDt     float64
	MaxDt     float64
}

// DefaultConfig mirrors the step sizes the scenarios were tuned with.
func DefaultConfig() Config {
	return Config{
		Dt:        0.001,
		MaxTime:   3.0,
		Tolerance: 1e-10,
		MinDt:     1e-9,
		MaxDt:     0.01,
	}
}

// Validate reports the first static configuration problem, wrapped as a
// ConfigError.
func (c Config) Validate() error {
	if c.Dt <= 0 {
		return &ConfigError{Field: "dt", Reason: fmt.Sprintf("must be positive, got %g", c.Dt)}
	}
	if c.MaxTime <= 0 {
		return &ConfigError{Field: "max_time", Reason: fmt.Sprintf("must be positive, got %g", c.MaxTime)}
	}
	if c.Adaptive && c.Tolerance <= 0 {
		return &ConfigError{Field: "tolerance", Reason: "must be positive for adaptive stepping"}
	}
	return nil
}
