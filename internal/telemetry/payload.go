package telemetry

import (
	"encoding/json"
	"math"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/session"
)

// Payload is the JSON body of one published transition. Non-finite values
// of a diverged run are sent as null.
type Payload struct {
	Event    string   `json:"event"`
	Scenario string   `json:"scenario"`
	Position *float64 `json:"position"`
	Velocity *float64 `json:"velocity"`
	Output   *float64 `json:"output"`
	Integral *float64 `json:"integral"`
	Setpoint float64  `json:"setpoint"`
	Kp       float64  `json:"kp"`
	Ki       float64  `json:"ki"`
	Kd       float64  `json:"kd"`
}

func PayloadOf(e session.Event, s control.State) Payload {
	return Payload{
		Event:    e.Kind(),
		Scenario: s.Scenario.String(),
		Position: finite(s.Position),
		Velocity: finite(s.Velocity),
		Output:   finite(s.Output),
		Integral: finite(s.Integral),
		Setpoint: s.Setpoint,
		Kp:       s.Kp,
		Ki:       s.Ki,
		Kd:       s.Kd,
	}
}

func (p Payload) Encode() ([]byte, error) {
	return json.Marshal(p)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
