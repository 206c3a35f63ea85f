package sim

import (
	"github.com/skovand/co2racer/internal/dynamo"
	"github.com/skovand/co2racer/internal/forces"
)

// launchSystem couples the force model to the racer's state derivatives.
// Derive is pure: the tank is read, never advanced, inside it; depletion
// happens once per accepted step in the trial loop.
type launchSystem struct {
	model forces.Model
	p     dynamo.Params
	tank  *dynamo.Tank
}

func (s launchSystem) Derive(x dynamo.State, t float64) dynamo.State {
	v := x.Vel
	if v < 0 {
		v = 0
	}
	a := s.model.Net(t, v, s.p, s.tank) / s.p.Mass

	var dOmega float64
	if s.p.WheelRadius > 0 {
		dOmega = a / s.p.WheelRadius
	}

	return dynamo.State{
		Vel:    a,
		Pos:    v,
		Smooth: (a - x.Smooth) / dynamo.SmoothingTau,
		Omega:  dOmega,
		Energy: s.p.Mass * v * a,
	}
}
