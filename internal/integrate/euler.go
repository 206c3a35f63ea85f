package integrate

import "github.com/skovand/co2racer/internal/dynamo"

// Euler is the fixed-step explicit integrator. Adequate for the scenarios
// without tight tolerance requirements at step sizes around 0.5-1 ms.
type Euler struct{}

var _ dynamo.Integrator = (*Euler)(nil)

func NewEuler() *Euler {
	return &Euler{}
}

// Step applies the update rule v <- max(0, v + a*dt), x <- x + v*dt with
// the remaining fields advanced explicitly. Position uses the updated
// velocity so that a clamped stop halts motion within the same step.
func (e *Euler) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	dx := sys.Derive(x, t)
	nx := clamp(x.Add(dx.Scale(dt)))
	nx.Pos = x.Pos + nx.Vel*dt
	return nx, nil
}

// clamp enforces the no-reverse invariant at the point of update: the
// racer's velocity (and the coupled wheel speed) never goes negative.
func clamp(s dynamo.State) dynamo.State {
	if s.Vel < 0 {
		s.Vel = 0
	}
	if s.Omega < 0 {
		s.Omega = 0
	}
	return s
}
