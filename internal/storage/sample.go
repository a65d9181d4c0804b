package storage

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/san-kum/pidlab/internal/chart"
	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/session"
)

// Sample is one recorded tick of a headless run.
type Sample struct {
	Tick     int     `json:"tick"`
	Time     float64 `json:"time"`
	Position float64 `json:"position"`
	Velocity float64 `json:"velocity"`
	Output   float64 `json:"output"`
	Integral float64 `json:"integral"`
	Setpoint float64 `json:"setpoint"`
	Scenario string  `json:"scenario"`
}

func SampleOf(tick int, s control.State) Sample {
	return Sample{
		Tick:     tick,
		Time:     float64(tick) * control.Dt,
		Position: s.Position,
		Velocity: s.Velocity,
		Output:   s.Output,
		Integral: s.Integral,
		Setpoint: s.Setpoint,
		Scenario: s.Scenario.String(),
	}
}

// Recorder collects a sample after every tick it observes.
type Recorder struct {
	samples []Sample
}

func NewRecorder(ticks int) *Recorder {
	return &Recorder{samples: make([]Sample, 0, ticks)}
}

// Observe is a session.Observer.
func (r *Recorder) Observe(e session.Event, s control.State) {
	if _, ok := e.(session.Tick); !ok {
		return
	}
	r.samples = append(r.samples, SampleOf(len(r.samples)+1, s))
}

func (r *Recorder) Samples() []Sample {
	return r.samples
}

// ChartPoints lays recorded samples out the way chart.Compose lays out the
// live histories.
func ChartPoints(samples []Sample) []chart.Point {
	points := make([]chart.Point, len(samples))
	for i, s := range samples {
		points[i] = chart.Point{
			X:         i + 1,
			Deviation: s.Position - s.Setpoint,
			Setpoint:  s.Setpoint,
		}
	}
	return points
}

// Float is a float64 whose JSON form keeps NaN and infinities as strings,
// so metrics of a diverged run survive a round trip.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.Marshal(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return json.Marshal(v)
}

func (f *Float) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = Float(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Floats converts plain metric values for RunMetadata.
func Floats(m map[string]float64) map[string]Float {
	out := make(map[string]Float, len(m))
	for k, v := range m {
		out[k] = Float(v)
	}
	return out
}
