// Package storage persists completed runs so they can be listed, plotted,
// and exported later. Each run gets a directory holding metadata.json,
// summaries.csv, and, for detail runs, trajectory.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/skovand/co2racer/internal/scenario"
	"github.com/skovand/co2racer/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata is the per-run record written alongside the summaries.
type RunMetadata struct {
	ID         string               `json:"id"`
	Timestamp  time.Time            `json:"timestamp"`
	Kind       scenario.Kind        `json:"kind"`
	Preset     string               `json:"preset,omitempty"`
	Trials     int                  `json:"trials"`
	Seed       uint64               `json:"seed"`
	Dt         float64              `json:"dt"`
	MaxTime    float64              `json:"max_time"`
	Adaptive   bool                 `json:"adaptive,omitempty"`
	Failures   int                  `json:"failures"`
	Excluded   int                  `json:"excluded"`
	Aggregates map[string]sim.Stats `json:"aggregates"`
}

var summaryColumns = []string{
	"trial", "status",
	"burn_time", "peak_thrust", "total_impulse",
	"finish_time", "failure_time", "max_displacement",
	"max_velocity", "final_velocity", "total_time",
}

// Save writes one completed run and returns its ID.
func (s *Store) Save(sc *scenario.Scenario, seed uint64, res *sim.Result, traj *sim.Trajectory) (string, error) {
	runID := fmt.Sprintf("%s_%d", sc.Kind, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Timestamp:  time.Now(),
		Kind:       sc.Kind,
		Preset:     sc.Name,
		Trials:     res.Trials,
		Seed:       seed,
		Dt:         sc.Dt,
		MaxTime:    sc.MaxTime,
		Adaptive:   sc.Adaptive,
		Failures:   res.Failures,
		Excluded:   res.Excluded(),
		Aggregates: res.Aggregates,
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	if err := s.writeSummaries(filepath.Join(runDir, "summaries.csv"), res.Summaries); err != nil {
		return "", err
	}

	if traj != nil {
		if err := s.writeTrajectory(filepath.Join(runDir, "trajectory.csv"), traj); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (s *Store) writeSummaries(path string, summaries []sim.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(summaryColumns); err != nil {
		return err
	}
	for _, sum := range summaries {
		row := []string{
			strconv.Itoa(sum.Trial),
			string(sum.Status),
		}
		for _, col := range summaryColumns[2:] {
			v, _ := sum.Field(col)
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

var trajectoryColumns = []string{
	"time", "velocity", "position", "acceleration",
	"smoothed_acceleration", "net_force", "kinetic_energy", "thrust",
}

func (s *Store) writeTrajectory(path string, traj *sim.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(trajectoryColumns); err != nil {
		return err
	}
	for _, fr := range traj.Frames {
		row := []string{
			strconv.FormatFloat(fr.T, 'f', 6, 64),
			strconv.FormatFloat(fr.State.Vel, 'g', -1, 64),
			strconv.FormatFloat(fr.State.Pos, 'g', -1, 64),
			strconv.FormatFloat(fr.State.Accel, 'g', -1, 64),
			strconv.FormatFloat(fr.State.Smooth, 'g', -1, 64),
			strconv.FormatFloat(fr.Net, 'g', -1, 64),
			strconv.FormatFloat(fr.State.Energy, 'g', -1, 64),
			strconv.FormatFloat(fr.Thrust, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// List returns the metadata of every stored run.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

// Load reads one run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSummaries reads back a run's per-trial outcomes as column vectors
// keyed by field name, plus the status column.
func (s *Store) LoadSummaries(runID string) (map[string][]float64, []string, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "summaries.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 1 {
		return map[string][]float64{}, nil, nil
	}

	header := records[0]
	cols := make(map[string][]float64)
	statuses := make([]string, 0, len(records)-1)

	for _, rec := range records[1:] {
		for j, name := range header {
			if j >= len(rec) {
				continue
			}
			if name == "status" {
				statuses = append(statuses, rec[j])
				continue
			}
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				continue
			}
			cols[name] = append(cols[name], v)
		}
	}
	return cols, statuses, nil
}

// LoadTrajectory reads back a detail run's trajectory as column vectors.
func (s *Store) LoadTrajectory(runID string) (map[string][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return map[string][]float64{}, nil
	}

	header := records[0]
	cols := make(map[string][]float64, len(header))
	for _, rec := range records[1:] {
		for j, name := range header {
			if j >= len(rec) {
				continue
			}
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				continue
			}
			cols[name] = append(cols[name], v)
		}
	}
	return cols, nil
}
