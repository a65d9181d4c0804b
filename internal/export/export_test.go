package export

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pidlab/internal/chart"
	"github.com/san-kum/pidlab/internal/history"
)

func samplePoints() []chart.Point {
	return chart.Compose(history.Of(10, 12, 15, 18, 19, 20), history.Of(20, 20, 20, 20, 20, 20))
}

func TestSeriesToSVG(t *testing.T) {
	svg := SeriesToSVG(samplePoints(), 400, 200)

	require.NotEmpty(t, svg)
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Equal(t, 2, strings.Count(svg, "<path"))
	assert.Contains(t, svg, deviationColor)
	assert.Contains(t, svg, setpointColor)
}

func TestSeriesToSVGTooShort(t *testing.T) {
	assert.Empty(t, SeriesToSVG(nil, 100, 100))
	assert.Empty(t, SeriesToSVG(samplePoints()[:1], 100, 100))
}

func TestSeriesToSVGBreaksOnNonFinite(t *testing.T) {
	points := []chart.Point{
		{X: 1, Deviation: 1, Setpoint: 0},
		{X: 2, Deviation: math.NaN(), Setpoint: 0},
		{X: 3, Deviation: 2, Setpoint: 0},
	}
	svg := SeriesToSVG(points, 100, 100)

	assert.NotContains(t, svg, "NaN")
	// deviation restarts after the gap; setpoint draws one stroke
	assert.Equal(t, 3, strings.Count(svg, " M"))
}

func TestSeriesToSVGAllDiverged(t *testing.T) {
	points := []chart.Point{
		{X: 1, Deviation: math.Inf(1), Setpoint: math.NaN()},
		{X: 2, Deviation: math.Inf(-1), Setpoint: math.NaN()},
	}
	assert.Empty(t, SeriesToSVG(points, 100, 100))
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "run.png")

	require.NoError(t, SavePNG(samplePoints(), "pd", path, 4, 3))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSavePNGNothingFinite(t *testing.T) {
	points := []chart.Point{{X: 1, Deviation: math.NaN(), Setpoint: math.Inf(1)}}
	err := SavePNG(points, "x", filepath.Join(t.TempDir(), "x.png"), 4, 3)
	assert.ErrorIs(t, err, errNoFiniteSamples)
}
