package control

import "math"

const (
	// LinearScale divides the raw PID output into an acceleration.
	LinearScale = 100000.0
	// BallScale divides the raw PID output into a board angle in radians.
	BallScale = 10000.0
	// BallTarget is the fixed balance point of the ball scenario.
	BallTarget = 50.0
	// BallCoupling divides sin(angle) into the per-tick velocity change.
	BallCoupling = 20.0
)

// Variant describes the physical model a tick applies.
type Variant struct {
	Name   string
	Target func(s State) float64
	Scale  float64
	// Couple turns the scaled output into a velocity increment.
	Couple func(output float64) float64
}

var (
	LinearVariant = Variant{
		Name:   "linear",
		Target: func(s State) float64 { return s.Setpoint },
		Scale:  LinearScale,
		Couple: func(accel float64) float64 { return accel },
	}

	// BallVariant ignores the user setpoint and balances at BallTarget.
	BallVariant = Variant{
		Name:   "ball",
		Target: func(State) float64 { return BallTarget },
		Scale:  BallScale,
		Couple: func(angle float64) float64 { return math.Sin(angle) / BallCoupling },
	}
)

func VariantFor(sc Scenario) Variant {
	if sc == Ball {
		return BallVariant
	}
	return LinearVariant
}

// Step advances s by one tick under v.
//
// The derivative term is the backward difference lastError-error, so
// subtracting Kd times it damps motion toward the target.
func Step(s State, v Variant) State {
	err := v.Target(s) - s.Position
	derivative := (s.LastError - err) / Dt

	raw := s.Kp*err + s.Ki*s.Integral - s.Kd*derivative + s.SystematicBias
	out := raw / v.Scale

	next := s
	next.Velocity = s.Velocity + v.Couple(out)
	next.Position = s.Position + next.Velocity
	next.Integral = s.Integral + err*Dt
	next.LastError = err
	next.Output = out
	next.History = s.History.Push(next.Position)
	next.SetpointHistory = s.SetpointHistory.Push(s.Setpoint)
	return next
}

// Tick advances s by one tick under the variant its scenario selects.
func Tick(s State) State {
	return Step(s, VariantFor(s.Scenario))
}
