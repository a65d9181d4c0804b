package session

import (
	"fmt"
	"strings"
)

// Event is an input to the session. Only the types in this file implement it.
type Event interface {
	Kind() string
	isEvent()
}

type Tick struct{}

type SetProportional struct{ Value float64 }

type SetIntegral struct{ Value float64 }

type SetDerivative struct{ Value float64 }

type SetSetpoint struct{ Value float64 }

type SetSystematicBias struct{ Value float64 }

type ToggleScenario struct{}

// Disturb kicks the velocity by control.DisturbanceImpulse.
type Disturb struct{}

func (Tick) Kind() string              { return "tick" }
func (SetProportional) Kind() string   { return "kp" }
func (SetIntegral) Kind() string       { return "ki" }
func (SetDerivative) Kind() string     { return "kd" }
func (SetSetpoint) Kind() string       { return "setpoint" }
func (SetSystematicBias) Kind() string { return "bias" }
func (ToggleScenario) Kind() string    { return "toggle" }
func (Disturb) Kind() string           { return "disturb" }

func (Tick) isEvent()              {}
func (SetProportional) isEvent()   {}
func (SetIntegral) isEvent()       {}
func (SetDerivative) isEvent()     {}
func (SetSetpoint) isEvent()       {}
func (SetSystematicBias) isEvent() {}
func (ToggleScenario) isEvent()    {}
func (Disturb) isEvent()           {}

// Kinds lists every event kind NewEvent accepts.
var Kinds = []string{"tick", "kp", "ki", "kd", "setpoint", "bias", "toggle", "disturb"}

// NewEvent builds an event from its kind. value is ignored by kinds that
// carry no payload.
func NewEvent(kind string, value float64) (Event, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "tick":
		return Tick{}, nil
	case "kp", "p", "proportional":
		return SetProportional{Value: value}, nil
	case "ki", "i", "integral":
		return SetIntegral{Value: value}, nil
	case "kd", "d", "derivative":
		return SetDerivative{Value: value}, nil
	case "setpoint", "sp":
		return SetSetpoint{Value: value}, nil
	case "bias", "systematic":
		return SetSystematicBias{Value: value}, nil
	case "toggle", "scenario":
		return ToggleScenario{}, nil
	case "disturb", "disturbance":
		return Disturb{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, kind)
}

// Value returns the payload of a setter event.
func Value(e Event) (float64, bool) {
	switch ev := e.(type) {
	case SetProportional:
		return ev.Value, true
	case SetIntegral:
		return ev.Value, true
	case SetDerivative:
		return ev.Value, true
	case SetSetpoint:
		return ev.Value, true
	case SetSystematicBias:
		return ev.Value, true
	}
	return 0, false
}
