package chart

import "github.com/san-kum/pidlab/internal/history"

// Point is one sample of the chart: the tracked value relative to the
// setpoint, and the setpoint itself.
type Point struct {
	X         int
	Deviation float64
	Setpoint  float64
}

// Compose zips the position and setpoint histories into chart points with
// 1-based X. The buffers advance in lockstep; if they ever differ the extra
// tail of the longer one is ignored.
func Compose(values, setpoints history.Buffer) []Point {
	n := min(values.Len(), setpoints.Len())
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		sp := setpoints.At(i)
		points[i] = Point{
			X:         i + 1,
			Deviation: values.At(i) - sp,
			Setpoint:  sp,
		}
	}
	return points
}

// Columns splits points into the deviation and setpoint series.
func Columns(points []Point) (deviation, setpoint []float64) {
	deviation = make([]float64, len(points))
	setpoint = make([]float64, len(points))
	for i, p := range points {
		deviation[i] = p.Deviation
		setpoint[i] = p.Setpoint
	}
	return deviation, setpoint
}
