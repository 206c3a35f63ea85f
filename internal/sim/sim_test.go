package sim

import (
	"context"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/skovand/co2racer/internal/sample"
	"github.com/skovand/co2racer/internal/scenario"
)

// fixedRace is a race scenario with every parameter pinned, so outcomes
// are fully deterministic regardless of seed.
func fixedRace() *scenario.Scenario {
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

func TestRunnerRaceFinishes(t *testing.T) {
	sc := fixedRace()
	r := Runner{Scenario: sc, KeepTrajectory: true}
	p := sc.Params.Sample(sample.Source(1, 0))

	s, traj, err := r.Run(0, p)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Status != StatusCompleted || !s.Finished {
		t.Fatalf("race should finish: %+v", s)
	}
	if s.FinishTime <= 0 || s.FinishTime >= sc.MaxTime {
		t.Errorf("finish time out of range: %g", s.FinishTime)
	}
	if s.MaxVelocity <= 0 {
		t.Errorf("max velocity should be positive: %g", s.MaxVelocity)
	}

	// Velocity is never negative and position never decreases.
	prevPos := -1.0
	for _, f := range traj.Frames {
		if f.State.Vel < 0 {
			t.Fatalf("negative velocity %g at t=%g", f.State.Vel, f.T)
		}
		if f.State.Pos < prevPos {
			t.Fatalf("position decreased at t=%g", f.T)
		}
		prevPos = f.State.Pos
	}
}

func TestRunnerAdaptiveMatchesFixed(t *testing.T) {
	sc := fixedRace()
	p := sc.Params.Sample(sample.Source(1, 0))

	fixed := Runner{Scenario: sc}
	sFixed, _, err := fixed.Run(0, p)
	if err != nil {
		t.Fatalf("fixed run: %v", err)
	}

	scA := *sc
	scA.Adaptive = true
	scA.Tolerance = 1e-10
	adaptive := Runner{Scenario: &scA}
	sAdapt, _, err := adaptive.Run(0, p)
	if err != nil {
		t.Fatalf("adaptive run: %v", err)
	}

	if !sAdapt.Finished {
		t.Fatal("adaptive race should finish")
	}
	if math.Abs(sAdapt.FinishTime-sFixed.FinishTime) > 0.01 {
		t.Errorf("integrators disagree on finish time: %g vs %g",
			sAdapt.FinishTime, sFixed.FinishTime)
	}
}

func TestRunnerAdaptiveSmoothPreset(t *testing.T) {
	sc := scenario.Preset(scenario.TrackRace, "smooth")
	if sc == nil {
		t.Fatal("missing smooth preset")
	}

	// Sampled friction-bearing trials must survive adaptive stepping
	// through the static-to-kinetic handoff near rest.
	r := Runner{Scenario: sc}
	for trial := 0; trial < 4; trial++ {
		p := sc.Params.Sample(sample.Source(3, trial))
		s, _, err := r.Run(trial, p)
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		if s.Status != StatusCompleted {
			t.Fatalf("trial %d status %s, want completed", trial, s.Status)
		}
		if !s.Finished {
			t.Errorf("trial %d did not finish the track", trial)
		}
	}
}

func TestRunnerBurnProfile(t *testing.T) {
	sc := scenario.Default(scenario.BurnProfile)
	// Pin the curve so the checks are exact.
	sc2 := *sc
	sc2.Params = sample.Dists{
		Mass:        sample.F(0.055),
		WheelRadius: sample.F(0.015),
		Gravity:     sample.F(9.81),
		SpikeForce:  sample.F(25.0),
		SpikeDecay:  sample.F(80.0),
		TailForce:   sample.F(8.0),
		TailDecay:   sample.F(8.0),
		ThrustScale: sample.F(1.0),
		BurnCutoff:  sample.F(1.0),
	}
	r := Runner{Scenario: &sc2}
	p := sc2.Params.Sample(sample.Source(0, 0))

	s, _, err := r.Run(0, p)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Status != StatusCompleted {
		t.Fatalf("burn profile must complete: %+v", s)
	}

	wantPeak := 25.0 + 8.0
	if math.Abs(s.PeakThrust-wantPeak) > 0.05*wantPeak {
		t.Errorf("peak thrust: got %g, want ~%g", s.PeakThrust, wantPeak)
	}
	if s.BurnTime <= 0 || s.BurnTime > 1.0 {
		t.Errorf("burn time out of range: %g", s.BurnTime)
	}
	// Impulse is bounded by spike/decay + tail/decay.
	upper := 25.0/80.0 + 8.0/8.0
	if s.TotalImpulse <= 0 || s.TotalImpulse > upper {
		t.Errorf("impulse out of range: %g (upper %g)", s.TotalImpulse, upper)
	}
}

func TestRunnerImmediateFrictionFailure(t *testing.T) {
	sc := &scenario.Scenario{
		Kind:    scenario.FrictionStability,
		Dt:      0.001,
		MaxTime: 2.0,
		Params: sample.Dists{
			Mass:        sample.F(0.055),
			WheelRadius: sample.F(0.015),
			Gravity:     sample.F(9.81),
			StaticMu:    sample.F(0.25),
			KineticMu:   sample.F(0.15),
			// Applied force below friction from time zero.
			SpikeForce:  sample.F(0.05),
			SpikeDecay:  sample.F(1.0),
			ThrustScale: sample.F(1.0),
			BurnCutoff:  sample.F(1.0),
		},
	}
	r := Runner{Scenario: sc}
	p := sc.Params.Sample(sample.Source(0, 0))

	s, _, err := r.Run(0, p)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Status != StatusFailed {
		t.Fatalf("expected modeled failure, got %s", s.Status)
	}
	if s.FailureTime != sc.Dt {
		t.Errorf("failure time must be the first step: got %g, want %g", s.FailureTime, sc.Dt)
	}
	if s.MaxDisplacement != 0 {
		t.Errorf("racer must not move before failing: %g", s.MaxDisplacement)
	}
}

func TestRunnerStabilityCompletesAtHorizon(t *testing.T) {
	// Strong thrust throughout: the failure predicate never fires within
	// the horizon, so predicate (1) dominates and the trial completes
	// with the failure time falling back to the horizon.
	sc := &scenario.Scenario{
		Kind:    scenario.FrictionStability,
		Dt:      0.001,
		MaxTime: 0.5,
		Params: sample.Dists{
			Mass:        sample.F(0.055),
			WheelRadius: sample.F(0.015),
			Gravity:     sample.F(9.81),
			StaticMu:    sample.F(0.05),
			KineticMu:   sample.F(0.03),
			SpikeForce:  sample.F(25.0),
			SpikeDecay:  sample.F(2.0),
			TailForce:   sample.F(10.0),
			TailDecay:   sample.F(0.5),
			ThrustScale: sample.F(1.0),
			BurnCutoff:  sample.F(10.0),
		},
	}
	r := Runner{Scenario: sc}
	p := sc.Params.Sample(sample.Source(0, 0))

	s, _, err := r.Run(0, p)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Status != StatusFailed && s.FailureTime < sc.MaxTime-0.01 {
		t.Errorf("completed trial should report the horizon as failure time: %+v", s)
	}
	if s.Status == StatusFailed {
		t.Fatalf("thrust stays far above friction, no failure expected: %+v", s)
	}
}

func TestDriverDeterminism(t *testing.T) {
	sc := scenario.Default(scenario.TrackRace)

	run := func() *Result {
		d := Driver{Scenario: sc, Trials: 40, Seed: 12345, Workers: 4}
		res, err := d.Run(context.Background())
		if err != nil {
			t.Fatalf("driver: %v", err)
		}
		return res
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a.Summaries, b.Summaries) {
		t.Error("same seed must reproduce the summary sequence bit-for-bit")
	}

	// Trial order is preserved regardless of worker scheduling.
	for i, s := range a.Summaries {
		if s.Trial != i {
			t.Fatalf("summary %d out of order: trial %d", i, s.Trial)
		}
	}

	// Different worker counts must not change results either.
	d := Driver{Scenario: sc, Trials: 40, Seed: 12345, Workers: 1}
	c, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	if !reflect.DeepEqual(a.Summaries, c.Summaries) {
		t.Error("worker count must not affect results")
	}
}

func TestDriverZeroVarianceIgnoresSeed(t *testing.T) {
	sc := fixedRace()

	runWith := func(seed uint64) []Summary {
		d := Driver{Scenario: sc, Trials: 5, Seed: seed}
		res, err := d.Run(context.Background())
		if err != nil {
			t.Fatalf("driver: %v", err)
		}
		return res.Summaries
	}

	a, b := runWith(1), runWith(987654)
	if !reflect.DeepEqual(a, b) {
		t.Error("zero-variance parameters must make the seed irrelevant")
	}
}

func TestDriverDegenerateExcluded(t *testing.T) {
	sc := fixedRace()
	sc.Params.Mass = sample.F(0) // division by zero mass

	d := Driver{Scenario: sc, Trials: 8, Seed: 3}
	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("driver: %v", err)
	}

	if res.Degenerate != 8 || res.Excluded() != 8 {
		t.Fatalf("all trials should be degenerate: %+v", res)
	}
	for name, st := range res.Aggregates {
		if st.N != 0 {
			t.Errorf("aggregate %q built from degenerate trials: %+v", name, st)
		}
	}
}

func TestDriverConfigErrors(t *testing.T) {
	sc := fixedRace()

	d := Driver{Scenario: sc, Trials: 0, Seed: 1}
	if _, err := d.Run(context.Background()); err == nil {
		t.Error("zero trials must be rejected")
	}

	bad := *sc
	bad.Params.DragCd = sample.N(0.6, -1)
	d = Driver{Scenario: &bad, Trials: 4, Seed: 1}
	if _, err := d.Run(context.Background()); err == nil {
		t.Error("invalid distribution must abort before any trial")
	}
}

func TestDriverCancellation(t *testing.T) {
	sc := scenario.Default(scenario.TrackRace)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := Driver{Scenario: sc, Trials: 1000, Seed: 7, Workers: 2}
	res, err := d.Run(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if res == nil {
		t.Fatal("partial result expected on cancellation")
	}
	if len(res.Summaries) >= 1000 {
		t.Error("cancellation should stop dispatching trials")
	}
}

func TestAggregatePermutationInvariant(t *testing.T) {
	sc := scenario.Default(scenario.TrackRace)
	d := Driver{Scenario: sc, Trials: 50, Seed: 99}
	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("driver: %v", err)
	}

	shuffled := make([]Summary, len(res.Summaries))
	copy(shuffled, res.Summaries)
	rng := rand.New(rand.NewSource(1))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	again := Aggregate(shuffled, sc.SummaryFields())
	for name, st := range res.Aggregates {
		other := again[name]
		if math.Abs(st.Mean-other.Mean) > 1e-12 ||
			math.Abs(st.StdDev-other.StdDev) > 1e-12 ||
			st.Min != other.Min || st.Max != other.Max || st.N != other.N {
			t.Errorf("aggregate %q changed under permutation: %+v vs %+v", name, st, other)
		}
	}
}

func TestTrajectorySeries(t *testing.T) {
	sc := fixedRace()
	r := Runner{Scenario: sc, KeepTrajectory: true}
	p := sc.Params.Sample(sample.Source(1, 0))

	_, traj, err := r.Run(0, p)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, name := range []string{"velocity", "position", "acceleration", "net_force", "kinetic_energy", "thrust"} {
		vals, err := traj.Series(name)
		if err != nil {
			t.Fatalf("series %s: %v", name, err)
		}
		if len(vals) != len(traj.Frames) {
			t.Fatalf("series %s wrong length", name)
		}
	}
	if _, err := traj.Series("warp_factor"); err == nil {
		t.Error("unknown series should error")
	}
	if len(traj.Times()) != len(traj.Frames) {
		t.Error("times length mismatch")
	}
}
