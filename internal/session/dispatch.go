package session

import "github.com/san-kum/pidlab/internal/control"

// Observer is told about every transition, after it completes.
type Observer func(e Event, s control.State)

// Apply returns the state that follows s after e. It never fails; events it
// does not know leave s unchanged.
func Apply(s control.State, e Event) control.State {
	switch ev := e.(type) {
	case Tick:
		return control.Tick(s)
	case SetProportional:
		s.Kp = ev.Value
	case SetIntegral:
		s.Ki = ev.Value
	case SetDerivative:
		s.Kd = ev.Value
	case SetSetpoint:
		s.Setpoint = ev.Value
	case SetSystematicBias:
		s.SystematicBias = ev.Value
	case ToggleScenario:
		s.Scenario = s.Scenario.Toggle()
	case Disturb:
		s.Velocity += control.DisturbanceImpulse
	}
	return s
}

// ApplyAll folds events over s in order.
func ApplyAll(s control.State, events ...Event) control.State {
	for _, e := range events {
		s = Apply(s, e)
	}
	return s
}
