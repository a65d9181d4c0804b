package metrics

import (
	"fmt"
	"sort"

	"github.com/san-kum/pidlab/internal/control"
)

// Metric accumulates a score over the snapshots of a run.
type Metric interface {
	Name() string
	Observe(s control.State)
	Value() float64
	Reset()
}

// DefaultBand is the tracking tolerance used by the stability metric.
const DefaultBand = 1.0

var registry = map[string]func() Metric{
	"control_effort": func() Metric { return NewControlEffort() },
	"stability":      func() Metric { return NewStability(DefaultBand) },
	"iae":            func() Metric { return NewIAE() },
	"overshoot":      func() Metric { return NewOvershoot() },
}

// New returns a fresh metric by name.
func New(name string) (Metric, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s (available: %v)", name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns one fresh instance of every metric.
func Defaults() []Metric {
	out := make([]Metric, 0, len(registry))
	for _, name := range Names() {
		out = append(out, registry[name]())
	}
	return out
}

// Collect reads every metric into a map keyed by name.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

// HigherIsBetter reports whether larger values of the named metric mean a
// better run. All other metrics are costs.
func HigherIsBetter(name string) bool {
	return name == "stability"
}
