package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

var csvHeader = []string{"tick", "time", "position", "velocity", "output", "integral", "setpoint", "scenario"}

// ExportJSON writes the run and its samples as one indented document.
// Non-finite sample values are written as null.
func ExportJSON(w io.Writer, meta RunMetadata, samples []Sample) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Run     RunMetadata  `json:"run"`
		Samples []jsonSample `json:"samples"`
	}{meta, toJSONSamples(samples)})
}

func ExportCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			strconv.Itoa(s.Tick),
			formatFloat(s.Time),
			formatFloat(s.Position),
			formatFloat(s.Velocity),
			formatFloat(s.Output),
			formatFloat(s.Integral),
			formatFloat(s.Setpoint),
			s.Scenario,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses samples written by ExportCSV.
func ReadCSV(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Sample{}, nil
	}

	samples := make([]Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		var s Sample
		if s.Tick, err = strconv.Atoi(rec[0]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		fields := []*float64{&s.Time, &s.Position, &s.Velocity, &s.Output, &s.Integral, &s.Setpoint}
		for j, dst := range fields {
			if *dst, err = strconv.ParseFloat(rec[j+1], 64); err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		s.Scenario = rec[7]
		samples = append(samples, s)
	}
	return samples, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type jsonSample struct {
	Tick     int      `json:"tick"`
	Time     float64  `json:"time"`
	Position *float64 `json:"position"`
	Velocity *float64 `json:"velocity"`
	Output   *float64 `json:"output"`
	Integral *float64 `json:"integral"`
	Setpoint *float64 `json:"setpoint"`
	Scenario string   `json:"scenario"`
}

func toJSONSamples(samples []Sample) []jsonSample {
	out := make([]jsonSample, len(samples))
	for i, s := range samples {
		out[i] = jsonSample{
			Tick:     s.Tick,
			Time:     s.Time,
			Position: finite(s.Position),
			Velocity: finite(s.Velocity),
			Output:   finite(s.Output),
			Integral: finite(s.Integral),
			Setpoint: finite(s.Setpoint),
			Scenario: s.Scenario,
		}
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
