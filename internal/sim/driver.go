package sim

import (
	"context"
	"runtime"
	"sync"

	"github.com/skovand/co2racer/internal/dynamo"
	"github.com/skovand/co2racer/internal/sample"
	"github.com/skovand/co2racer/internal/scenario"
)

// Result is the outcome of a Monte Carlo run: the full summary sequence in
// trial-index order plus the aggregate statistics over the valid trials.
type Result struct {
	Summaries  []Summary        `json:"summaries"`
	Aggregates map[string]Stats `json:"aggregates"`
	Trials     int              `json:"trials"`
	Failures   int              `json:"failures"`   // modeled failures (valid data)
	Degenerate int              `json:"degenerate"` // excluded: non-finite states
	Aborted    int              `json:"aborted"`    // excluded: non-convergence
	Errors     []error          `json:"-"`
}

// Excluded is the number of trials left out of the aggregates.
func (r *Result) Excluded() int { return r.Degenerate + r.Aborted }

// Driver runs independent trials of one scenario and aggregates their
// summaries. Trials are pure computations, so they run on a bounded worker
// pool with no synchronization beyond result collection; trial i draws its
// parameters from a sub-stream derived from (Seed, i), which makes the
// summary sequence bit-identical across reruns and worker counts.
type Driver struct {
	Scenario *scenario.Scenario
	Trials   int
	Seed     uint64
	Workers  int // defaults to GOMAXPROCS

	// Progress, when set, is called once per completed trial from worker
	// goroutines. It must be safe for concurrent use.
	Progress func(Summary)
}

// Run executes the batch. Static configuration problems abort before any
// trial starts. Cancellation stops dispatching new trials; in-flight
// trials run to completion and their summaries are kept.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if d.Trials <= 0 {
		return nil, &dynamo.ConfigError{Field: "trials", Reason: "must be positive"}
	}
	if err := d.Scenario.Validate(); err != nil {
		return nil, err
	}

	workers := d.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > d.Trials {
		workers = d.Trials
	}

	summaries := make([]Summary, d.Trials)
	done := make([]bool, d.Trials)
	trialErrs := make([]error, d.Trials)

	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				r := Runner{Scenario: d.Scenario}
				p := d.Scenario.Params.Sample(sample.Source(d.Seed, i))
				s, _, err := r.Run(i, p)
				summaries[i] = s
				trialErrs[i] = err
				done[i] = true
				if d.Progress != nil {
					d.Progress(s)
				}
			}
		}()
	}

	canceled := false
dispatch:
	for i := 0; i < d.Trials; i++ {
		select {
		case <-ctx.Done():
			canceled = true
			break dispatch
		case idx <- i:
		}
	}
	close(idx)
	wg.Wait()

	res := &Result{Trials: d.Trials}
	for i := 0; i < d.Trials; i++ {
		if !done[i] {
			continue
		}
		s := summaries[i]
		res.Summaries = append(res.Summaries, s)
		switch s.Status {
		case StatusFailed:
			res.Failures++
		case StatusDegenerate:
			res.Degenerate++
		case StatusAborted:
			res.Aborted++
		}
		if trialErrs[i] != nil {
			res.Errors = append(res.Errors, trialErrs[i])
		}
	}

	res.Aggregates = Aggregate(res.Summaries, d.Scenario.SummaryFields())

	if canceled {
		return res, ctx.Err()
	}
	return res, nil
}
