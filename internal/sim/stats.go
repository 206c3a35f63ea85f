package sim

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats are the aggregate statistics of one outcome field over a trial
// population.
type Stats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"` // sample standard deviation
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	N      int     `json:"n"`
}

// Aggregate computes per-field statistics over the valid trials. Degenerate
// and aborted trials never enter the averages. The result is invariant
// under permutation of the summaries.
func Aggregate(summaries []Summary, fields []string) map[string]Stats {
	out := make(map[string]Stats, len(fields))
	for _, name := range fields {
		xs := make([]float64, 0, len(summaries))
		for _, s := range summaries {
			if !s.Valid() {
				continue
			}
			if v, ok := s.Field(name); ok {
				xs = append(xs, v)
			}
		}
		if len(xs) == 0 {
			continue
		}
		st := Stats{
			Mean: stat.Mean(xs, nil),
			Min:  floats.Min(xs),
			Max:  floats.Max(xs),
			N:    len(xs),
		}
		if len(xs) > 1 {
			st.StdDev = stat.StdDev(xs, nil)
		}
		out[name] = st
	}
	return out
}
