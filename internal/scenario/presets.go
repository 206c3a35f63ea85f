package scenario

import "github.com/skovand/co2racer/internal/sample"

// vehicleDists is the shared racer body: a ~55 g shell with a wood-class
// drag profile, the numbers the track scenarios were tuned around.
func vehicleDists() sample.Dists {
	return sample.Dists{
		Mass:        sample.N(0.055, 0.002),
		WheelRadius: sample.F(0.015),
		Gravity:     sample.F(9.81),
		AirDensity:  sample.N(1.225, 0.01),
		DragCd:      sample.U(0.45, 0.75),
		FrontalArea: sample.N(0.002, 0.0001),
		StaticMu:    sample.N(0.25, 0.02),
		KineticMu:   sample.N(0.15, 0.015),
	}
}

func thrustCurveDists() sample.Dists {
	return sample.Dists{
		SpikeForce:  sample.N(25.0, 2.0),
		SpikeDecay:  sample.N(80.0, 5.0),
		TailForce:   sample.N(8.0, 0.6),
		TailDecay:   sample.N(8.0, 0.5),
		ThrustScale: sample.N(1.0, 0.05),
		BurnCutoff:  sample.U(0.9, 1.1),
	}
}

// burnBody is the minimal body for burn profiling: the cartridge is fired
// on a test stand, so drag and friction stay zero, but mass and wheel
// radius must be physical for the motion traces to stay finite.
func burnBody() sample.Dists {
	return sample.Dists{
		Mass:        sample.F(0.055),
		WheelRadius: sample.F(0.015),
		Gravity:     sample.F(9.81),
	}
}

func chokedDists() sample.Dists {
	return sample.Dists{
		ThrustScale:    sample.N(1.0, 0.03),
		NozzleArea:     sample.U(3.5e-7, 4.5e-7),
		DischargeCoeff: sample.N(0.85, 0.03),
		InitPressure:   sample.N(5.7e6, 2.0e5),
		InitTemp:       sample.N(293.0, 3.0),
		PressureDecay:  sample.F(0.004),
		TempDecay:      sample.F(0.001),
	}
}

func merge(dst, src sample.Dists) sample.Dists {
	if src.SpikeForce.Kind != "" {
		dst.SpikeForce = src.SpikeForce
		dst.SpikeDecay = src.SpikeDecay
		dst.TailForce = src.TailForce
		dst.TailDecay = src.TailDecay
		dst.BurnCutoff = src.BurnCutoff
	}
	if src.NozzleArea.Kind != "" {
		dst.NozzleArea = src.NozzleArea
		dst.DischargeCoeff = src.DischargeCoeff
		dst.InitPressure = src.InitPressure
		dst.InitTemp = src.InitTemp
		dst.PressureDecay = src.PressureDecay
		dst.TempDecay = src.TempDecay
	}
	if src.ThrustScale.Kind != "" {
		dst.ThrustScale = src.ThrustScale
	}
	return dst
}

// Presets are the named stock scenarios, keyed scenario -> preset.
var Presets = map[Kind]map[string]*Scenario{
	BurnProfile: {
		"curve": {
			Kind: BurnProfile, Name: "curve",
			Dt: 0.0005, MaxTime: 2.0,
			Params: merge(burnBody(), thrustCurveDists()),
		},
		"choked": {
			Kind: BurnProfile, Name: "choked", Choked: true,
			Dt: 0.0005, MaxTime: 2.0,
			Params: merge(burnBody(), chokedDists()),
		},
	},
	TrackRace: {
		"standard": {
			Kind: TrackRace, Name: "standard",
			TrackLength: 20.0,
			Dt:          0.001, MaxTime: 3.0,
			Params: merge(vehicleDists(), thrustCurveDists()),
		},
		"smooth": {
			Kind: TrackRace, Name: "smooth",
			TrackLength: 20.0,
			Dt:          0.001, MaxTime: 3.0,
			Adaptive:    true, Tolerance: 1e-10,
			Params: merge(vehicleDists(), thrustCurveDists()),
		},
	},
	FrictionStability: {
		"soft-tire": {
			Kind: FrictionStability, Name: "soft-tire",
			Dt: 0.001, MaxTime: 2.0,
			Params: func() sample.Dists {
				d := merge(vehicleDists(), thrustCurveDists())
				d.Deformation = sample.U(0.0, 0.4)
				return d
			}(),
		},
	},
}

// Preset looks up a stock scenario by kind and name; nil when unknown.
func Preset(kind Kind, name string) *Scenario {
	byName, ok := Presets[kind]
	if !ok {
		return nil
	}
	sc, ok := byName[name]
	if !ok {
		return nil
	}
	return sc
}

// Default returns the canonical preset for a kind; nil for unknown kinds.
func Default(kind Kind) *Scenario {
	switch kind {
	case BurnProfile:
		return Preset(kind, "curve")
	case TrackRace:
		return Preset(kind, "standard")
	case FrictionStability:
		return Preset(kind, "soft-tire")
	default:
		return nil
	}
}

// PresetNames lists the preset names for a kind.
func PresetNames(kind Kind) []string {
	byName, ok := Presets[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	return names
}
