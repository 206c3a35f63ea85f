// Package report renders run results for the terminal: aggregate tables,
// trajectory plots, and outcome histograms. It only consumes the plain
// data structures produced by the simulation core.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/skovand/co2racer/internal/sim"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ccff"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))
)

// Title styles a section heading.
func Title(s string) string { return titleStyle.Render(s) }

// Aggregates writes the per-field statistics table in field order.
func Aggregates(w io.Writer, fields []string, aggs map[string]sim.Stats) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, labelStyle.Render("field\tmean\tstddev\tmin\tmax\tn"))
	for _, name := range fields {
		st, ok := aggs[name]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%.6g\t%.6g\t%.6g\t%.6g\t%d\n",
			name, st.Mean, st.StdDev, st.Min, st.Max, st.N)
	}
	tw.Flush()
}

// Counts summarizes the trial population, flagging exclusions.
func Counts(res *sim.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "trials: %d", res.Trials)
	if res.Failures > 0 {
		fmt.Fprintf(&b, "  failures: %d", res.Failures)
	}
	if res.Excluded() > 0 {
		b.WriteString("  ")
		b.WriteString(warnStyle.Render(fmt.Sprintf("excluded: %d (degenerate %d, aborted %d)",
			res.Excluded(), res.Degenerate, res.Aborted)))
	}
	return b.String()
}

// TrajectoryPlot renders one (t, value) series as an ascii chart.
func TrajectoryPlot(caption string, vals []float64) string {
	if len(vals) == 0 {
		return ""
	}
	return asciigraph.Plot(downsample(vals, 400),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}

// downsample thins a long series so the chart width stays readable.
func downsample(vals []float64, max int) []float64 {
	if len(vals) <= max {
		return vals
	}
	out := make([]float64, max)
	step := float64(len(vals)-1) / float64(max-1)
	for i := range out {
		out[i] = vals[int(float64(i)*step)]
	}
	return out
}

// Histogram bins values into equal-width buckets over [min, max].
func Histogram(vals []float64, bins int) (counts []float64, lo, hi float64) {
	if len(vals) == 0 || bins <= 0 {
		return nil, 0, 0
	}
	lo, hi = vals[0], vals[0]
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	counts = make([]float64, bins)
	if hi == lo {
		counts[0] = float64(len(vals))
		return counts, lo, hi
	}
	for _, v := range vals {
		i := int(float64(bins) * (v - lo) / (hi - lo))
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	return counts, lo, hi
}

// HistogramPlot renders the empirical distribution of one outcome field.
func HistogramPlot(name string, vals []float64, bins int) string {
	counts, lo, hi := Histogram(vals, bins)
	if counts == nil {
		return ""
	}
	caption := fmt.Sprintf("%s  [%.4g .. %.4g], %d trials", name, lo, hi, len(vals))
	return asciigraph.Plot(counts,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}
