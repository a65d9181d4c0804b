// Package session routes input events into the PID state.
//
// [Apply] is the whole state machine: a pure, total function from a snapshot
// and an [Event] to the next snapshot. Ticks go to [control.Tick]; gain,
// setpoint and bias events assign their field; [ToggleScenario] flips the
// physical model; [Disturb] kicks the velocity.
//
// Callers own the state. A UI with its own event loop (bubbletea) calls Apply
// directly; everything else can use a [Loop], which serializes events and
// periodic ticks on one goroutine, or [Simulate] for clock-free headless runs.
package session
