package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/san-kum/pidlab/internal/control"
)

func TestPaddedLen(t *testing.T) {
	for n, want := range map[int]int{1: 1, 2: 2, 3: 4, 500: 512, 512: 512, 513: 1024} {
		assert.Equal(t, want, PaddedLen(n), "n=%d", n)
	}
}

func TestPowerSpectrumRemovesMean(t *testing.T) {
	ps := PowerSpectrum([]float64{5, 5, 5, 5, 5})
	assert.Len(t, ps, 4)
	for _, v := range ps {
		assert.InDelta(t, 0, v, 1e-9)
	}
	assert.Nil(t, PowerSpectrum(nil))
}

func TestDominantFrequencySine(t *testing.T) {
	const dt = 0.01
	samples := make([]float64, 1024)
	for i := range samples {
		samples[i] = 3 + math.Sin(2*math.Pi*6.25*float64(i)*dt)
	}

	freq, ok := DominantFrequency(samples, dt)
	assert.True(t, ok)
	assert.InDelta(t, 6.25, freq, 0.1)
}

func TestDominantFrequencyRejects(t *testing.T) {
	_, ok := DominantFrequency([]float64{1, 2}, 0.01)
	assert.False(t, ok, "too short")

	_, ok = DominantFrequency([]float64{4, 4, 4, 4, 4, 4}, 0.01)
	assert.False(t, ok, "flat")

	_, ok = DominantFrequency([]float64{1, math.NaN(), 2, 3}, 0.01)
	assert.False(t, ok, "not finite")
}

func TestDominantFrequencyOfUnderdampedLoop(t *testing.T) {
	s := control.DefaultState()
	s.Kp = 1000
	positions := make([]float64, 1024)
	for i := range positions {
		s = control.Tick(s)
		positions[i] = s.Position
	}

	freq, ok := DominantFrequency(positions, control.Dt)
	assert.True(t, ok)
	assert.Greater(t, freq, 0.0)
}
