package storage

import (
	"context"
	"testing"

	"github.com/skovand/co2racer/internal/sample"
	"github.com/skovand/co2racer/internal/scenario"
	"github.com/skovand/co2racer/internal/sim"
)

func smallRun(t *testing.T) (*scenario.Scenario, *sim.Result, *sim.Trajectory) {
	t.Helper()
	sc := scenario.Default(scenario.TrackRace)

	d := sim.Driver{Scenario: sc, Trials: 10, Seed: 5}
	res, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("driver: %v", err)
	}

	r := sim.Runner{Scenario: sc, KeepTrajectory: true}
	p := sc.Params.Sample(sample.Source(5, 0))
	_, traj, err := r.Run(0, p)
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	return sc, res, traj
}

func TestSaveLoadRoundTrip(t *testing.T) {
	sc, res, traj := smallRun(t)

	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runID, err := st.Save(sc, 5, res, traj)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Kind != scenario.TrackRace || meta.Trials != 10 || meta.Seed != 5 {
		t.Errorf("metadata mismatch: %+v", meta)
	}
	if len(meta.Aggregates) == 0 {
		t.Error("aggregates not persisted")
	}

	cols, statuses, err := st.LoadSummaries(runID)
	if err != nil {
		t.Fatalf("load summaries: %v", err)
	}
	if len(statuses) != 10 {
		t.Errorf("expected 10 status rows, got %d", len(statuses))
	}
	if len(cols["finish_time"]) != 10 {
		t.Errorf("expected 10 finish times, got %d", len(cols["finish_time"]))
	}

	tcols, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory: %v", err)
	}
	if len(tcols["velocity"]) != len(traj.Frames) {
		t.Errorf("trajectory rows: got %d, want %d", len(tcols["velocity"]), len(traj.Frames))
	}
}

func TestListRuns(t *testing.T) {
	sc, res, _ := smallRun(t)

	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list empty store: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	if _, err := st.Save(sc, 5, res, nil); err != nil {
		t.Fatalf("save: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestListMissingDir(t *testing.T) {
	st := New("/nonexistent/co2racer-test")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("missing base dir should not error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}
