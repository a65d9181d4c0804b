// Package control implements the PID loop behind pidlab.
//
// A [State] is an immutable snapshot of the controlled system: the tracked
// position and its velocity, the controller's memory (integral and last
// error), the user-set gains, setpoint and systematic bias, and the rolling
// history that feeds the chart.
//
// [Step] advances a snapshot by one tick of [Dt] under a [Variant]:
//
//   - [Linear]: the output is an acceleration, integrated into velocity
//   - [Ball]: the output is a board angle; the ball gains sin(angle)/20 of
//     velocity per tick and always balances toward [BallTarget]
//
// # Usage
//
//	s := control.DefaultState()
//	s.Kp = 50
//	for i := 0; i < 100; i++ {
//		s = control.Tick(s)
//	}
//
// Nothing here guards against divergence: unstable gains are meant to be seen.
package control
