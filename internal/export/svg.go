package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/pidlab/internal/chart"
)

const (
	deviationColor = "#ff5f5f"
	setpointColor  = "#5fff87"
)

// SeriesToSVG draws the deviation and setpoint tracks of points as two
// polylines on a shared scale. Non-finite samples break the line.
func SeriesToSVG(points []chart.Point, width, height int) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := float64(points[0].X), float64(points[len(points)-1].X)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		for _, v := range []float64{p.Deviation, p.Setpoint} {
			if !finite(v) {
				continue
			}
			minY = math.Min(minY, v)
			maxY = math.Max(maxY, v)
		}
	}
	if math.IsInf(minY, 1) {
		return ""
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	project := func(x int, y float64) (float64, float64) {
		px := (float64(x) - minX) / rangeX * float64(width)
		py := float64(height) - (y-minY)/rangeY*float64(height)
		return px, py
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	writePath(&sb, setpointColor, points, func(p chart.Point) float64 { return p.Setpoint }, project)
	writePath(&sb, deviationColor, points, func(p chart.Point) float64 { return p.Deviation }, project)

	sb.WriteString("</svg>")
	return sb.String()
}

func writePath(sb *strings.Builder, color string, points []chart.Point, value func(chart.Point) float64, project func(int, float64) (float64, float64)) {
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, color))
	pen := false
	for _, p := range points {
		v := value(p)
		if !finite(v) {
			pen = false
			continue
		}
		x, y := project(p.X, v)
		if pen {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" M%.1f,%.1f", x, y))
			pen = true
		}
	}
	sb.WriteString(`"/>
`)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
