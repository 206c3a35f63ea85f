// Package watch is a live terminal view of a Monte Carlo batch in
// progress: completed-trial count, running outcome means, and the final
// aggregate table when the batch ends.
package watch

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skovand/co2racer/internal/sim"
)

var (
	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff88"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666688"))

	headStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ccff"))
)

// TrialMsg reports one completed trial.
type TrialMsg sim.Summary

// DoneMsg reports batch completion.
type DoneMsg struct {
	Result *sim.Result
	Err    error
}

// Model is the bubbletea model for a live batch.
type Model struct {
	Total  int
	Fields []string

	done     int
	failures int
	excluded int
	sums     map[string]float64
	valid    int

	finished bool
	result   *sim.Result
	err      error
}

func New(total int, fields []string) Model {
	return Model{
		Total:  total,
		Fields: fields,
		sums:   make(map[string]float64, len(fields)),
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TrialMsg:
		s := sim.Summary(msg)
		m.done++
		switch s.Status {
		case sim.StatusFailed:
			m.failures++
		case sim.StatusDegenerate, sim.StatusAborted:
			m.excluded++
		}
		if s.Valid() {
			m.valid++
			for _, name := range m.Fields {
				if v, ok := s.Field(name); ok {
					m.sums[name] += v
				}
			}
		}
		return m, nil

	case DoneMsg:
		m.finished = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

const barWidth = 40

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headStyle.Render("co2racer monte carlo"))
	b.WriteString("\n\n")

	frac := 0.0
	if m.Total > 0 {
		frac = float64(m.done) / float64(m.Total)
	}
	filled := int(frac * barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	fmt.Fprintf(&b, "%s %d/%d\n", barStyle.Render(bar), m.done, m.Total)

	if m.failures > 0 || m.excluded > 0 {
		fmt.Fprintf(&b, "%s\n",
			dimStyle.Render(fmt.Sprintf("failures %d, excluded %d", m.failures, m.excluded)))
	}

	if m.valid > 0 {
		b.WriteString("\n")
		for _, name := range m.Fields {
			fmt.Fprintf(&b, "%s %.6g\n",
				dimStyle.Render(fmt.Sprintf("mean %-18s", name)),
				m.sums[name]/float64(m.valid))
		}
	}

	if m.finished {
		b.WriteString("\n")
		if m.err != nil {
			fmt.Fprintf(&b, "stopped: %v\n", m.err)
		} else {
			b.WriteString("done\n")
		}
	} else {
		b.WriteString(dimStyle.Render("\nq to quit\n"))
	}
	return b.String()
}

// Result returns the final batch result once the view has quit.
func (m Model) Result() (*sim.Result, error) { return m.result, m.err }
