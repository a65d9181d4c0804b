package metrics

import (
	"math"

	"github.com/san-kum/pidlab/internal/control"
)

// IAE integrates the absolute tracking error over simulated time.
type IAE struct {
	sum float64
}

func NewIAE() *IAE { return &IAE{} }

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(s control.State) {
	m.sum += math.Abs(s.Error()) * control.Dt
}

func (m *IAE) Value() float64 { return m.sum }

func (m *IAE) Reset() { m.sum = 0 }

// Overshoot is the largest distance the position travels past the target,
// measured against the side it first approached from.
type Overshoot struct {
	direction float64
	peak      float64
}

func NewOvershoot() *Overshoot { return &Overshoot{} }

func (m *Overshoot) Name() string { return "overshoot" }

func (m *Overshoot) Observe(s control.State) {
	err := s.Error()
	if m.direction == 0 {
		switch {
		case err > 0:
			m.direction = 1
		case err < 0:
			m.direction = -1
		default:
			return
		}
	}
	// past the target the error changes sign relative to direction
	if past := -err * m.direction; past > m.peak || math.IsNaN(past) {
		m.peak = past
	}
}

func (m *Overshoot) Value() float64 { return m.peak }

func (m *Overshoot) Reset() {
	m.direction = 0
	m.peak = 0
}
