// Package viz is the live terminal view of a PID session, built on Bubble
// Tea.
//
// The bubbletea update loop is the session's single event loop: each clock
// tick and each key press becomes a session.Event applied to the model's
// snapshot. The view is a pure function of that snapshot:
//
//   - [Canvas]: Braille pixel grid showing the box on its track (linear) or
//     the ball on its tilting board
//   - sliders for setpoint, P, I, D and bias, drawn as progress bars
//   - the deviation/setpoint chart from package chart
//
// # Key Bindings
//
//	Tab/Shift+Tab - Select slider
//	Left/Right    - Nudge the selected slider (h/l also work)
//	Enter         - Type a value for the selected slider
//	S             - Switch between linear and ball
//	D             - Disturb (kick the velocity)
//	Space         - Pause/Resume ticking
//	T             - Cycle color themes
//	E             - Export the chart as SVG
//	?             - Show all key bindings
//	Q             - Quit
package viz
