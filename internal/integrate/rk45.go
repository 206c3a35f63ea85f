package integrate

import (
	"math"

	"github.com/skovand/co2racer/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the embedded-order adaptive integrator used when smooth
// derivative traces are wanted. A step whose local error exceeds the
// tolerance is rejected and retried with a smaller dt; running out of
// retries or shrinking below MinDt is a non-convergence fault, never a
// silent approximation.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64

	MinDt       float64
	MaxAttempts int
}

var _ dynamo.AdaptiveIntegrator = (*RK45)(nil)

func NewRK45() *RK45 {
	return &RK45{
		safety:      0.9,
		minScale:    0.2,
		maxScale:    10.0,
		MinDt:       1e-9,
		MaxAttempts: 64,
	}
}

func (r *RK45) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	nx, _, _, err := r.StepAdaptive(sys, x, t, dt, 1e-6)
	return nx, err
}

// StepAdaptive advances one accepted step. It returns the step size the
// accepted step consumed and the size to attempt next.
func (r *RK45) StepAdaptive(sys dynamo.System, x dynamo.State, t, dt, tol float64) (dynamo.State, float64, float64, error) {
	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		xNew, errMax := r.attempt(sys, x, t, dt)
		errRatio := errMax / tol

		if errRatio <= 1 {
			var dtNext float64
			if errRatio > 0 {
				dtNext = dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
			} else {
				dtNext = dt * r.maxScale
			}
			return clamp(xNew), dt, dtNext, nil
		}

		dt *= math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
		if dt < r.MinDt {
			return x, 0, dt, dynamo.ErrStepTooSmall
		}
	}
	return x, 0, dt, dynamo.ErrNoConverge
}

func (r *RK45) attempt(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, float64) {
	k1 := sys.Derive(x, t)
	k2 := sys.Derive(x.Add(k1.Scale(dt*b21)), t+a2*dt)
	k3 := sys.Derive(x.Add(k1.Scale(dt*b31)).Add(k2.Scale(dt*b32)), t+a3*dt)
	k4 := sys.Derive(x.Add(k1.Scale(dt*b41)).Add(k2.Scale(dt*b42)).Add(k3.Scale(dt*b43)), t+a4*dt)
	k5 := sys.Derive(x.Add(k1.Scale(dt*b51)).Add(k2.Scale(dt*b52)).Add(k3.Scale(dt*b53)).Add(k4.Scale(dt*b54)), t+a5*dt)
	k6 := sys.Derive(x.Add(k1.Scale(dt*b61)).Add(k2.Scale(dt*b62)).Add(k3.Scale(dt*b63)).Add(k4.Scale(dt*b64)).Add(k5.Scale(dt*b65)), t+dt)

	xNew := x.Add(k1.Scale(dt * c1)).Add(k3.Scale(dt * c3)).Add(k4.Scale(dt * c4)).Add(k5.Scale(dt * c5)).Add(k6.Scale(dt * c6))

	k7 := sys.Derive(xNew, t+dt)

	errEst := k1.Scale(dt * dc1).Add(k3.Scale(dt * dc3)).Add(k4.Scale(dt * dc4)).Add(k5.Scale(dt * dc5)).Add(k6.Scale(dt * dc6)).Add(k7.Scale(dt * dc7))
	scale := x.ErrScale(k1, dt, 1e-10)

	return xNew, errEst.MaxRatio(scale)
}
