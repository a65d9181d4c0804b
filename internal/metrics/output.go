package metrics

import (
	"math"

	"github.com/san-kum/pidlab/internal/control"
)

// ControlEffort is the mean |Output| over the observed ticks.
type ControlEffort struct {
	total float64
	n     int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (m *ControlEffort) Name() string { return "control_effort" }

func (m *ControlEffort) Observe(s control.State) {
	m.total += math.Abs(s.Output)
	m.n++
}

func (m *ControlEffort) Value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.total / float64(m.n)
}

func (m *ControlEffort) Reset() { *m = ControlEffort{} }

// Stability is the share of ticks that ended within band of the target. A
// tick with a NaN error is outside any band. With nothing observed it is 1.
type Stability struct {
	band   float64
	inside int
	n      int
}

func NewStability(band float64) *Stability { return &Stability{band: band} }

func (m *Stability) Name() string { return "stability" }

func (m *Stability) Observe(s control.State) {
	m.n++
	if math.Abs(s.Error()) <= m.band {
		m.inside++
	}
}

func (m *Stability) Value() float64 {
	if m.n == 0 {
		return 1
	}
	return float64(m.inside) / float64(m.n)
}

func (m *Stability) Reset() { m.inside, m.n = 0, 0 }
