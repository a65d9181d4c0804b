package chart

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

// plotLimit bounds the magnitude asciigraph is asked to scale; larger values
// are left out of the plot.
const plotLimit = 1e12

type Options struct {
	Width   int
	Height  int
	Caption string
}

func DefaultOptions() Options {
	return Options{Width: 60, Height: 10, Caption: "deviation (red) / setpoint (green)"}
}

// Render draws the deviation and setpoint tracks as a terminal chart. It
// returns an empty string until there are two points to draw.
func Render(points []Point, opts Options) string {
	if len(points) < 2 {
		return ""
	}
	dev, sp := Columns(points)
	dev, sp = sanitize(dev), sanitize(sp)
	if !anyFinite(dev) && !anyFinite(sp) {
		return "(diverged)"
	}

	o := []asciigraph.Option{
		asciigraph.Height(opts.Height),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
		asciigraph.Precision(2),
	}
	if opts.Width > 0 {
		o = append(o, asciigraph.Width(opts.Width))
	}
	if opts.Caption != "" {
		o = append(o, asciigraph.Caption(opts.Caption))
	}
	return asciigraph.PlotMany([][]float64{dev, sp}, o...)
}

func sanitize(data []float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		if math.IsInf(v, 0) || math.Abs(v) > plotLimit {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

func anyFinite(data []float64) bool {
	for _, v := range data {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}
