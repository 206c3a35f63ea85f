package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/skovand/co2racer/internal/config"
	"github.com/skovand/co2racer/internal/export"
	"github.com/skovand/co2racer/internal/optim"
	"github.com/skovand/co2racer/internal/report"
	"github.com/skovand/co2racer/internal/sample"
	"github.com/skovand/co2racer/internal/scenario"
	"github.com/skovand/co2racer/internal/sim"
	"github.com/skovand/co2racer/internal/storage"
	"github.com/skovand/co2racer/internal/watch"
)

var (
	dataDir    string
	configFile string
	preset     string
	trials     int
	seed       uint64
	workers    int
	dt         float64
	duration   float64
	trackLen   float64
	adaptive   bool
	tolerance  float64
	choked     bool
	bins       int
	histField  string
	noSave     bool

	sweepParams   []string
	sweepObj      string
	sweepMaximize bool

	svgOut    string
	svgSeries string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "co2racer",
		Short: "co2 cartridge racer launch simulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".co2racer", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run one detailed trial with trajectory plots",
		Args:  cobra.ExactArgs(1),
		RunE:  runDetail,
	}
	addScenarioFlags(runCmd)

	mcCmd := &cobra.Command{
		Use:   "mc [scenario]",
		Short: "run a monte carlo batch",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	addScenarioFlags(mcCmd)

	watchCmd := &cobra.Command{
		Use:   "watch [scenario]",
		Short: "run a monte carlo batch with a live progress view",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	addScenarioFlags(watchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run's trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	histCmd := &cobra.Command{
		Use:   "hist [run_id]",
		Short: "histogram of one outcome field across a run's trials",
		Args:  cobra.ExactArgs(1),
		RunE:  histRun,
	}
	histCmd.Flags().StringVar(&histField, "field", "", "outcome field (defaults to the scenario's first)")
	histCmd.Flags().IntVar(&bins, "bins", 20, "histogram bins")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export per-trial summaries to csv on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "grid-sweep parameters and rank grid points by an outcome mean",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "swept parameter, name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&sweepObj, "objective", "", "summary field to score (defaults to the scenario's first)")
	sweepCmd.Flags().BoolVar(&sweepMaximize, "max", false, "maximize the objective instead of minimizing")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a stored trajectory series as an svg plot",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&svgSeries, "series", "velocity", "trajectory series to plot")
	exportSVGCmd.Flags().StringVar(&svgOut, "out", "", "output path (defaults to <run_id>_<series>.svg)")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := scenario.Kind(args[0])
			names := scenario.PresetNames(kind)
			if len(names) == 0 {
				return fmt.Errorf("unknown scenario: %s", args[0])
			}
			fmt.Printf("presets for %s:\n", kind)
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, mcCmd, watchCmd, sweepCmd, listCmd, plotCmd, histCmd,
		exportCmd, exportCSVCmd, exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use a named preset")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&trials, "trials", config.DefaultTrials, "number of trials")
	cmd.Flags().Uint64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = all cpus)")
	cmd.Flags().Float64Var(&dt, "dt", 0.001, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 3.0, "time horizon")
	cmd.Flags().Float64Var(&trackLen, "track", 20.0, "track length (race)")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive rk45 stepping")
	cmd.Flags().Float64Var(&tolerance, "tol", 0, "adaptive error tolerance")
	cmd.Flags().BoolVar(&choked, "choked", false, "choked-flow thrust model")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the run")
}

// resolveConfig builds the run configuration for one scenario kind,
// layering preset, then config file, then explicitly set CLI flags.
func resolveConfig(cmd *cobra.Command, kindArg string) (*config.Config, error) {
	kind := scenario.Kind(kindArg)

	base := scenario.Default(kind)
	if base == nil {
		return nil, fmt.Errorf("unknown scenario: %s", kindArg)
	}
	if preset != "" {
		base = scenario.Preset(kind, preset)
		if base == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, scenario.PresetNames(kind))
		}
	}

	cfg := &config.Config{
		Scenario: *base,
		Trials:   config.DefaultTrials,
		Seed:     config.DefaultSeed,
	}

	if configFile != "" {
		if _, err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if cfg.Scenario.Kind != kind {
			return nil, fmt.Errorf("config file is for scenario %q, not %q", cfg.Scenario.Kind, kind)
		}
	}

	if cmd.Flags().Changed("trials") {
		cfg.Trials = trials
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("dt") {
		cfg.Scenario.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Scenario.MaxTime = duration
	}
	if cmd.Flags().Changed("track") {
		cfg.Scenario.TrackLength = trackLen
	}
	if cmd.Flags().Changed("adaptive") {
		cfg.Scenario.Adaptive = adaptive
	}
	if cmd.Flags().Changed("tol") {
		cfg.Scenario.Tolerance = tolerance
	}
	if cmd.Flags().Changed("choked") {
		cfg.Scenario.Choked = choked
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runDetail(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	sc := &cfg.Scenario

	r := sim.Runner{Scenario: sc, KeepTrajectory: true}
	p := sc.Params.Sample(sample.Source(cfg.Seed, 0))

	start := time.Now()
	summary, traj, err := r.Run(0, p)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Println(report.Title(fmt.Sprintf("%s detail run", sc.Kind)))
	fmt.Printf("status: %s  (%v, %d frames)\n\n", summary.Status, elapsed, len(traj.Frames))

	for _, name := range sc.SummaryFields() {
		if v, ok := summary.Field(name); ok {
			fmt.Printf("  %-18s %.6g\n", name, v)
		}
	}
	fmt.Println()

	for _, series := range []string{"velocity", "position", "thrust"} {
		vals, err := traj.Series(series)
		if err != nil {
			continue
		}
		if plot := report.TrajectoryPlot(series, vals); plot != "" {
			fmt.Println(plot)
			fmt.Println()
		}
	}

	if noSave {
		return nil
	}
	res := &sim.Result{
		Summaries:  []sim.Summary{summary},
		Trials:     1,
		Aggregates: sim.Aggregate([]sim.Summary{summary}, sc.SummaryFields()),
	}
	return saveRun(sc, cfg.Seed, res, traj)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	sc := &cfg.Scenario

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	d := sim.Driver{Scenario: sc, Trials: cfg.Trials, Seed: cfg.Seed, Workers: cfg.Workers}

	fmt.Printf("running %d %s trials...\n", cfg.Trials, sc.Kind)
	start := time.Now()
	res, err := d.Run(ctx)
	if err != nil && res == nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Println()
	fmt.Println(report.Title(fmt.Sprintf("%s monte carlo", sc.Kind)))
	fmt.Printf("%s  (%v)\n\n", report.Counts(res), elapsed)
	report.Aggregates(os.Stdout, sc.SummaryFields(), res.Aggregates)
	if err != nil {
		fmt.Printf("\nstopped early: %v\n", err)
	}

	if noSave {
		return nil
	}
	return saveRun(sc, cfg.Seed, res, nil)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	sc := &cfg.Scenario

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prog := tea.NewProgram(watch.New(cfg.Trials, sc.SummaryFields()))

	d := sim.Driver{Scenario: sc, Trials: cfg.Trials, Seed: cfg.Seed, Workers: cfg.Workers}
	d.Progress = func(s sim.Summary) { prog.Send(watch.TrialMsg(s)) }

	go func() {
		res, err := d.Run(ctx)
		prog.Send(watch.DoneMsg{Result: res, Err: err})
	}()

	final, err := prog.Run()
	cancel()
	if err != nil {
		return err
	}

	res, runErr := final.(watch.Model).Result()
	if res == nil {
		if runErr != nil {
			return runErr
		}
		return nil
	}

	fmt.Println()
	fmt.Printf("%s\n\n", report.Counts(res))
	report.Aggregates(os.Stdout, sc.SummaryFields(), res.Aggregates)

	if noSave {
		return nil
	}
	return saveRun(sc, cfg.Seed, res, nil)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	sc := &cfg.Scenario

	axes, err := parseAxes(sweepParams)
	if err != nil {
		return err
	}
	objective := sweepObj
	if objective == "" {
		fields := sc.SummaryFields()
		if len(fields) == 0 {
			return fmt.Errorf("no outcome fields for scenario %q", sc.Kind)
		}
		objective = fields[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sweep := optim.Sweep{
		Axes:      axes,
		Objective: objective,
		Maximize:  sweepMaximize,
		Trials:    cfg.Trials,
		Seed:      cfg.Seed,
		Workers:   cfg.Workers,
	}

	total := 1
	for _, ax := range axes {
		total *= len(ax.Values)
	}
	fmt.Printf("sweeping %d grid points, %d trials each...\n\n", total, cfg.Trials)
	start := time.Now()

	points, best, err := sweep.Run(ctx, sc)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := ""
	for _, ax := range axes {
		header += ax.Name + "\t"
	}
	fmt.Fprintf(w, "%smean %s\n", header, objective)
	for _, p := range points {
		for _, ax := range axes {
			fmt.Fprintf(w, "%.6g\t", p.Params[ax.Name])
		}
		if p.Err != nil {
			fmt.Fprintf(w, "error: %v\n", p.Err)
			continue
		}
		fmt.Fprintf(w, "%.6g\n", p.Score)
	}
	w.Flush()

	fmt.Printf("\n(%v)\n", time.Since(start))
	if best == nil {
		fmt.Println("no grid point produced valid trials")
		return nil
	}
	fmt.Printf("best: %.6g at", best.Score)
	for _, ax := range axes {
		fmt.Printf(" %s=%.6g", ax.Name, best.Params[ax.Name])
	}
	fmt.Println()
	return nil
}

// parseAxes turns repeated name=v1,v2,... flags into sweep axes.
func parseAxes(specs []string) ([]optim.Axis, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one --param is required")
	}
	axes := make([]optim.Axis, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --param %q, want name=v1,v2,...", spec)
		}
		ax := optim.Axis{Name: name}
		for _, tok := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
			if err != nil {
				return nil, fmt.Errorf("malformed value %q in --param %s: %w", tok, name, err)
			}
			ax.Values = append(ax.Values, v)
		}
		axes = append(axes, ax)
	}
	return axes, nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	cols, err := st.LoadTrajectory(runID)
	if err != nil {
		return fmt.Errorf("no trajectory for %s: %w", runID, err)
	}

	vals, ok := cols[svgSeries]
	if !ok {
		return fmt.Errorf("unknown series %q", svgSeries)
	}

	svg := export.SeriesToSVG(cols["time"], vals, 800, 300, "#00ff88", svgSeries)
	if svg == "" {
		return fmt.Errorf("not enough data to plot %q", svgSeries)
	}

	out := svgOut
	if out == "" {
		out = fmt.Sprintf("%s_%s.svg", runID, svgSeries)
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func saveRun(sc *scenario.Scenario, seed uint64, res *sim.Result, traj *sim.Trajectory) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(sc, seed, res, traj)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tPRESET\tTIME\tTRIALS\tFAILURES\tEXCLUDED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			run.Kind,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Trials,
			run.Failures,
			run.Excluded,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	cols, err := st.LoadTrajectory(runID)
	if err != nil {
		return fmt.Errorf("no trajectory for %s (batch runs store summaries only): %w", runID, err)
	}

	fmt.Println(report.Title(fmt.Sprintf("%s  (%s)", meta.ID, meta.Kind)))
	fmt.Printf("samples: %d\n\n", len(cols["time"]))

	for _, name := range []string{"velocity", "position", "acceleration", "thrust", "kinetic_energy"} {
		vals := cols[name]
		if plot := report.TrajectoryPlot(name, vals); plot != "" {
			fmt.Println(plot)
			fmt.Println()
		}
	}
	return nil
}

func histRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	cols, statuses, err := st.LoadSummaries(runID)
	if err != nil {
		return err
	}

	field := histField
	if field == "" {
		sc := scenario.Scenario{Kind: meta.Kind}
		fields := sc.SummaryFields()
		if len(fields) == 0 {
			return fmt.Errorf("no outcome fields for kind %q", meta.Kind)
		}
		field = fields[0]
	}

	vals := make([]float64, 0, len(statuses))
	for i, v := range cols[field] {
		if i < len(statuses) && (statuses[i] == string(sim.StatusDegenerate) || statuses[i] == string(sim.StatusAborted)) {
			continue
		}
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return fmt.Errorf("no valid values for field %q", field)
	}

	plot := report.HistogramPlot(field, vals, bins)
	if plot == "" {
		return fmt.Errorf("could not build histogram for %q", field)
	}
	fmt.Println(report.Title(fmt.Sprintf("%s  (%s)", meta.ID, meta.Kind)))
	fmt.Println()
	fmt.Println(plot)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	cols, statuses, err := st.LoadSummaries(args[0])
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		return fmt.Errorf("no data to export")
	}

	names := make([]string, 0, len(cols))
	for _, name := range []string{
		"trial", "burn_time", "peak_thrust", "total_impulse",
		"finish_time", "failure_time", "max_displacement",
		"max_velocity", "final_velocity", "total_time",
	} {
		if _, ok := cols[name]; ok {
			names = append(names, name)
		}
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := append([]string{}, names...)
	header = append(header, "status")
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range statuses {
		row := make([]string, 0, len(names)+1)
		for _, name := range names {
			v := 0.0
			if i < len(cols[name]) {
				v = cols[name][i]
			}
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		row = append(row, statuses[i])
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
