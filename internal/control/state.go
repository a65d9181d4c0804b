package control

import (
	"fmt"
	"strings"

	"github.com/san-kum/pidlab/internal/history"
)

const (
	// Dt is the simulated length of one tick in seconds.
	Dt = 0.01

	DefaultPosition = 10.0
	DefaultSetpoint = 20.0

	// DisturbanceImpulse is added to the velocity by a disturbance.
	DisturbanceImpulse = 1.5
)

type Scenario int

const (
	Linear Scenario = iota
	Ball
)

func (s Scenario) String() string {
	switch s {
	case Linear:
		return "linear"
	case Ball:
		return "ball"
	}
	return fmt.Sprintf("scenario(%d)", int(s))
}

// Toggle flips between the linear and ball scenarios.
func (s Scenario) Toggle() Scenario {
	if s == Ball {
		return Linear
	}
	return Ball
}

func ParseScenario(name string) (Scenario, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "linear":
		return Linear, nil
	case "ball":
		return Ball, nil
	}
	return Linear, fmt.Errorf("unknown scenario: %s", name)
}

// State is one snapshot of the simulation. Transitions return a new State;
// the history buffers are immutable so copies never alias mutable data.
type State struct {
	Position       float64
	Velocity       float64
	SystematicBias float64
	Output         float64
	Integral       float64
	LastError      float64
	Setpoint       float64

	Kp float64
	Ki float64
	Kd float64

	History         history.Buffer
	SetpointHistory history.Buffer

	Scenario Scenario
}

func DefaultState() State {
	return State{
		Position: DefaultPosition,
		Setpoint: DefaultSetpoint,
		Scenario: Linear,
	}
}

// Target is the value the active variant steers toward.
func (s State) Target() float64 {
	return VariantFor(s.Scenario).Target(s)
}

// Error is the current tracking error against Target.
func (s State) Error() float64 {
	return s.Target() - s.Position
}
