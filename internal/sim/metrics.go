package sim

import "github.com/skovand/co2racer/internal/dynamo"

// Frame is one trajectory sample: the state plus the instantaneous forces
// that produced it.
type Frame struct {
	T        float64
	State    dynamo.State
	Thrust   float64
	Drag     float64
	Friction float64
	Net      float64
}

// Metric is a running reduction over the trajectory, folded one frame at a
// time. Reductions are pure accumulators; the trajectory itself can be
// discarded after the fold.
type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

// Peak tracks the running maximum of a selector.
type Peak struct {
	name string
	sel  func(Frame) float64
	max  float64
	seen bool
}

func NewPeak(name string, sel func(Frame) float64) *Peak {
	return &Peak{name: name, sel: sel}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(f Frame) {
	v := p.sel(f)
	if !p.seen || v > p.max {
		p.max = v
		p.seen = true
	}
}

func (p *Peak) Value() float64 { return p.max }
func (p *Peak) Reset()         { p.max = 0; p.seen = false }

// Impulse accumulates the trapezoidal integral of thrust over time.
type Impulse struct {
	sum  float64
	prev Frame
	seen bool
}

func NewImpulse() *Impulse { return &Impulse{} }

func (m *Impulse) Name() string { return "total_impulse" }

func (m *Impulse) Observe(f Frame) {
	if m.seen {
		m.sum += 0.5 * (m.prev.Thrust + f.Thrust) * (f.T - m.prev.T)
	}
	m.prev = f
	m.seen = true
}

func (m *Impulse) Value() float64 { return m.sum }
func (m *Impulse) Reset()         { m.sum = 0; m.seen = false }

// burnEps is the thrust level below which the cartridge counts as spent.
const burnEps = 1e-3

// BurnTime records the last time thrust was still above burnEps.
type BurnTime struct {
	last float64
}

func NewBurnTime() *BurnTime { return &BurnTime{} }

func (m *BurnTime) Name() string { return "burn_time" }

func (m *BurnTime) Observe(f Frame) {
	if f.Thrust > burnEps {
		m.last = f.T
	}
}

func (m *BurnTime) Value() float64 { return m.last }
func (m *BurnTime) Reset()         { m.last = 0 }
