package dynamo

// Params is the per-trial parameter set. It is sampled once at trial start
// and never mutated afterwards; the only evolving propulsion quantities
// (tank pressure and temperature in the choked-flow variant) live in Tank.
type Params struct {
	Mass        float64 // kg
	WheelRadius float64 // m
	Gravity     float64 // m/s^2

	// Aerodynamics.
	AirDensity  float64 // kg/m^3
	DragCd      float64
	FrontalArea float64 // m^2
	// ReynoldsCorr, when positive, raises the drag coefficient by a weak
	// logarithmic function of velocity: Cd * (1 + ReynoldsCorr*log1p(v)).
	ReynoldsCorr float64

	// Friction. Deformation models tire/track softness and reduces the
	// effective coefficient: mu_eff = mu * (1 - Deformation).
	StaticMu    float64
	KineticMu   float64
	Deformation float64

	// Two-regime exponential thrust curve.
	SpikeForce  float64 // N, fast-decay ignition spike amplitude
	SpikeDecay  float64 // 1/s
	TailForce   float64 // N, slow-decay tail amplitude
	TailDecay   float64 // 1/s
	ThrustScale float64
	BurnCutoff  float64 // s, thrust is exactly zero beyond this

	// Choked-flow nozzle variant.
	NozzleArea     float64 // m^2
	DischargeCoeff float64
	InitPressure   float64 // Pa
	InitTemp       float64 // K
	PressureDecay  float64 // fractional loss per reference step
	TempDecay      float64 // fractional loss per reference step
}

// StaticThreshold is the velocity below which static friction applies.
const StaticThreshold = 1e-3

// Tank is the per-trial running state of the CO2 cartridge for the
// choked-flow thrust variant. Pressure and temperature decay geometrically
// each integration step, modeling cartridge exhaustion and gas cooling.
// This is deliberately simple and monotonic, not an exact blowdown.
type Tank struct {
	Pressure float64 // Pa
	Temp     float64 // K
}

// NewTank initializes the cartridge state from the sampled parameters.
func NewTank(p Params) *Tank {
	return &Tank{Pressure: p.InitPressure, Temp: p.InitTemp}
}

// refStep is the step size the depletion rates are expressed against.
const refStep = 0.001

// Deplete advances the geometric decay by one integration step. Rates are
// rescaled by dt/refStep so that refining the step size does not change
// the depletion timescale.
func (tk *Tank) Deplete(p Params, dt float64) {
	scale := dt / refStep
	tk.Pressure *= 1 - p.PressureDecay*scale
	tk.Temp *= 1 - p.TempDecay*scale
	if tk.Pressure < 0 {
		tk.Pressure = 0
	}
	if tk.Temp < 0 {
		tk.Temp = 0
	}
}
