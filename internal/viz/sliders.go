package viz

import (
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/session"
)

// Slider is one adjustable input. Nudges stay within [Min, Max]; typed
// values are taken as-is.
type Slider struct {
	Label string
	Kind  string
	Min   float64
	Max   float64
	Step  float64
	Get   func(control.State) float64
}

var Sliders = []Slider{
	{Label: "Setpoint", Kind: "setpoint", Min: 0, Max: 100, Step: 1, Get: func(s control.State) float64 { return s.Setpoint }},
	{Label: "P", Kind: "kp", Min: 0, Max: 1000, Step: 5, Get: func(s control.State) float64 { return s.Kp }},
	{Label: "I", Kind: "ki", Min: 0, Max: 1000, Step: 1, Get: func(s control.State) float64 { return s.Ki }},
	{Label: "D", Kind: "kd", Min: 0, Max: 1000, Step: 5, Get: func(s control.State) float64 { return s.Kd }},
	{Label: "Bias", Kind: "bias", Min: 0, Max: 5000, Step: 50, Get: func(s control.State) float64 { return s.SystematicBias }},
}

// Nudge moves the slider dir steps from its value in s.
func (sl Slider) Nudge(s control.State, dir int) session.Event {
	v := sl.Get(s) + float64(dir)*sl.Step
	v = math.Max(sl.Min, math.Min(sl.Max, v))
	return sl.event(v)
}

// Enter sets the slider from typed text. Malformed text counts as 0.
func (sl Slider) Enter(text string) session.Event {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return sl.event(v)
}

// Fraction is the slider value as a fraction of its range, clamped to [0, 1].
func (sl Slider) Fraction(s control.State) float64 {
	f := (sl.Get(s) - sl.Min) / (sl.Max - sl.Min)
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(1, f))
}

func (sl Slider) event(v float64) session.Event {
	e, err := session.NewEvent(sl.Kind, v)
	if err != nil {
		panic("viz: slider with bad kind " + sl.Kind)
	}
	return e
}
