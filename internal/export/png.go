package export

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/pidlab/internal/chart"
)

var errNoFiniteSamples = errors.New("no finite samples to plot")

// SavePNG renders points as a line plot over simulated time and writes it to
// filename. widthIn and heightIn are in inches.
func SavePNG(points []chart.Point, title, filename string, widthIn, heightIn float64) error {
	dev, sp := xys(points)
	if len(dev) == 0 && len(sp) == 0 {
		return errNoFiniteSamples
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "tick"
	p.Y.Label.Text = "value"
	p.Add(plotter.NewGrid())

	for _, series := range []struct {
		name  string
		pts   plotter.XYs
		color color.Color
	}{
		{"setpoint", sp, color.RGBA{R: 40, G: 160, B: 80, A: 255}},
		{"deviation", dev, color.RGBA{R: 210, G: 50, B: 50, A: 255}},
	} {
		if len(series.pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(series.pts)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = series.color
		p.Add(line)
		p.Legend.Add(series.name, line)
	}
	p.Legend.Top = true

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

// xys drops non-finite samples, which plotter rejects.
func xys(points []chart.Point) (dev, sp plotter.XYs) {
	for _, p := range points {
		x := float64(p.X)
		if finite(p.Deviation) {
			dev = append(dev, plotter.XY{X: x, Y: p.Deviation})
		}
		if finite(p.Setpoint) {
			sp = append(sp, plotter.XY{X: x, Y: p.Setpoint})
		}
	}
	return dev, sp
}
