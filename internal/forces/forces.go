package forces

import (
	"math"

	"github.com/skovand/co2racer/internal/dynamo"
)

// CO2 gas properties for the choked-flow nozzle model.
const (
	gammaCO2    = 1.289
	gasConstCO2 = 188.9 // specific gas constant, J/(kg*K)
)

// CurveThrust evaluates the two-regime exponential thrust curve: a fast
// ignition spike plus a slower-decaying tail, shifted so the curve reaches
// exactly zero at the burn cutoff and stays zero afterwards. Continuous
// and non-negative for all t >= 0.
func CurveThrust(t float64, p dynamo.Params) float64 {
	if t >= p.BurnCutoff {
		return 0
	}
	f := p.ThrustScale * (rawCurve(t, p) - rawCurve(p.BurnCutoff, p))
	if f < 0 {
		return 0
	}
	return f
}

func rawCurve(t float64, p dynamo.Params) float64 {
	return p.SpikeForce*math.Exp(-p.SpikeDecay*t) + p.TailForce*math.Exp(-p.TailDecay*t)
}

// ChokedThrust computes thrust from the isentropic choked mass flow through
// the nozzle at the current tank condition, approximated as
// mass_flow_rate * effective_exit_velocity.
func ChokedThrust(p dynamo.Params, tk *dynamo.Tank) float64 {
	if tk.Pressure <= 0 || tk.Temp <= 0 {
		return 0
	}
	g := gammaCO2
	crit := math.Pow(2/(g+1), (g+1)/(2*(g-1)))
	mdot := p.DischargeCoeff * p.NozzleArea * tk.Pressure *
		math.Sqrt(g/(gasConstCO2*tk.Temp)) * crit
	vexit := math.Sqrt(2 * g * gasConstCO2 * tk.Temp / (g - 1))
	return p.ThrustScale * mdot * vexit
}

// Drag is the quadratic aerodynamic drag. When ReynoldsCorr is positive the
// drag coefficient is corrected upward with a weak logarithmic function of
// velocity (a Reynolds-number proxy); the correction is deterministic and
// continuous in v.
func Drag(v float64, p dynamo.Params) float64 {
	cd := p.DragCd
	if p.ReynoldsCorr > 0 && v > 0 {
		cd *= 1 + p.ReynoldsCorr*math.Log1p(v)
	}
	return 0.5 * p.AirDensity * cd * p.FrontalArea * v * v
}

// kineticOnset is the velocity where friction is fully kinetic. Between
// StaticThreshold and kineticOnset the coefficient is blended with a
// smoothstep: a hard switch makes the force field discontinuous in v, and
// error-controlled stepping cannot meet its tolerance across the jump.
const kineticOnset = 10 * dynamo.StaticThreshold

// Friction is the rolling resistance regime handoff: the static coefficient
// applies below StaticThreshold, kinetic at kineticOnset and above, blended
// C1-continuously in between. The deformation term reduces the effective
// coefficient.
func Friction(v float64, p dynamo.Params) float64 {
	var mu float64
	switch {
	case v < dynamo.StaticThreshold:
		mu = p.StaticMu
	case v >= kineticOnset:
		mu = p.KineticMu
	default:
		s := (v - dynamo.StaticThreshold) / (kineticOnset - dynamo.StaticThreshold)
		mu = p.StaticMu + (p.KineticMu-p.StaticMu)*s*s*(3-2*s)
	}
	mu *= 1 - p.Deformation
	if mu < 0 {
		mu = 0
	}
	return mu * p.Mass * p.Gravity
}

// Model selects the thrust source for a scenario. The zero value is the
// exponential thrust curve.
type Model struct {
	Choked bool
}

// Thrust dispatches to the configured thrust variant. tk may be nil for the
// curve variant.
func (m Model) Thrust(t float64, p dynamo.Params, tk *dynamo.Tank) float64 {
	if m.Choked {
		return ChokedThrust(p, tk)
	}
	return CurveThrust(t, p)
}

// Net composes the instantaneous net force: thrust - drag - friction.
// Callers clamp velocity before evaluation; the force functions themselves
// are pure.
func (m Model) Net(t, v float64, p dynamo.Params, tk *dynamo.Tank) float64 {
	return m.Thrust(t, p, tk) - Drag(v, p) - Friction(v, p)
}
