package viz

import (
	"math"

	"github.com/san-kum/pidlab/internal/control"
)

const (
	// worldMin and worldMax bound the track shown for both scenarios.
	worldMin = 0.0
	worldMax = 100.0

	boxHalfWidth = 3
	boxHeight    = 6
	ballRadius   = 3
	// maxTilt caps the drawn board angle so a saturated output stays legible.
	maxTilt = math.Pi / 3
)

// Draw renders s onto c. marker is the eased setpoint position for the
// linear scenario. It reports false when the state has diverged and nothing
// sensible can be drawn.
func Draw(c *Canvas, s control.State, marker float64) bool {
	c.Clear()
	if !finite(s.Position) || !finite(s.Output) {
		return false
	}
	if s.Scenario == control.Ball {
		drawBall(c, s)
	} else {
		drawLinear(c, s, marker)
	}
	return true
}

func drawLinear(c *Canvas, s control.State, marker float64) {
	w, h := c.Dots()
	trackY := h - 4
	c.DrawLine(0, trackY, w-1, trackY)

	x := toScreen(s.Position, w)
	c.FillRect(x-boxHalfWidth, trackY-boxHeight, x+boxHalfWidth, trackY-1)

	if finite(marker) {
		mx := toScreen(marker, w)
		for y := 0; y < trackY-boxHeight-2; y += 2 {
			c.Set(mx, y)
		}
		c.DrawLine(mx-2, trackY+2, mx+2, trackY+2)
	}
}

func drawBall(c *Canvas, s control.State) {
	w, h := c.Dots()
	cx, cy := w/2, h/2+ballRadius
	half := float64(w) * 0.45

	theta := math.Max(-maxTilt, math.Min(maxTilt, s.Output))
	cos, sin := math.Cos(theta), math.Sin(theta)

	// positive output rolls the ball right, so the right end dips
	c.DrawLine(
		cx-int(half*cos), cy-int(half*sin),
		cx+int(half*cos), cy+int(half*sin),
	)
	c.DrawLine(cx, cy, cx-3, h-1)
	c.DrawLine(cx, cy, cx+3, h-1)

	u := (s.Position - control.BallTarget) / (worldMax - control.BallTarget) * half
	u = math.Max(-half, math.Min(half, u))
	bx := cx + int(u*cos)
	by := cy + int(u*sin) - ballRadius - 1
	c.FillCircle(bx, by, ballRadius)
}

// toScreen maps a world coordinate on [worldMin, worldMax] to a dot column,
// pinning values off the track to its ends.
func toScreen(v float64, w int) int {
	frac := (v - worldMin) / (worldMax - worldMin)
	frac = math.Max(0, math.Min(1, frac))
	margin := boxHalfWidth + 1
	return margin + int(frac*float64(w-1-2*margin))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
