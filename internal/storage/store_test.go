package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/session"
)

func record(t *testing.T, ticks int) (control.State, []Sample) {
	t.Helper()
	initial := control.DefaultState()
	initial.Kp, initial.Kd = 50, 45

	rec := NewRecorder(ticks)
	plan := session.Plan{{At: 5, Event: session.Disturb{}}}
	if _, err := session.Simulate(context.Background(), initial, ticks, plan, rec.Observe); err != nil {
		t.Fatalf("simulate: %v", err)
	}
	return initial, rec.Samples()
}

func TestRecorderTicksOnly(t *testing.T) {
	_, samples := record(t, 10)

	if len(samples) != 10 {
		t.Fatalf("expected 10 samples, got %d", len(samples))
	}
	for i, s := range samples {
		if s.Tick != i+1 {
			t.Errorf("sample %d has tick %d", i, s.Tick)
		}
		if s.Scenario != "linear" {
			t.Errorf("unexpected scenario %q", s.Scenario)
		}
	}
	if math.Abs(samples[9].Time-0.1) > 1e-12 {
		t.Errorf("expected time 0.1, got %f", samples[9].Time)
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	initial, samples := record(t, 50)
	meta := NewMetadata("PD step", initial, 50, map[string]float64{"iae": 1.5, "overshoot": math.NaN()})

	runID, err := st.Save(meta, samples)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "pd_step_") {
		t.Errorf("unexpected run id %q", runID)
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.ID != runID || loaded.Kp != 50 || loaded.Kd != 45 || loaded.Ticks != 50 {
		t.Errorf("unexpected metadata %+v", loaded)
	}
	if loaded.Metrics["iae"] != 1.5 {
		t.Errorf("expected iae 1.5, got %f", loaded.Metrics["iae"])
	}
	if !math.IsNaN(float64(loaded.Metrics["overshoot"])) {
		t.Errorf("expected NaN overshoot, got %f", loaded.Metrics["overshoot"])
	}

	got, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(got) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(got))
	}
	for i := range got {
		if got[i] != samples[i] {
			t.Fatalf("sample %d: got %+v, want %+v", i, got[i], samples[i])
		}
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	initial := control.DefaultState()
	first, err := st.Save(NewMetadata("", initial, 0, nil), nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(NewMetadata("", initial, 0, nil), nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := os.Mkdir(filepath.Join(st.baseDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("runs not in time order: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "nope")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadSamples("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(NewMetadata("", control.DefaultState(), 0, nil), []Sample{{Tick: 1}})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "samples.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestExportJSONNullsNonFinite(t *testing.T) {
	samples := []Sample{{Tick: 1, Position: math.Inf(1), Velocity: 2, Scenario: "linear"}}

	var buf bytes.Buffer
	if err := ExportJSON(&buf, NewMetadata("x", control.DefaultState(), 1, nil), samples); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var doc struct {
		Run     RunMetadata              `json:"run"`
		Samples []map[string]interface{} `json:"samples"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Run.Name != "x" || len(doc.Samples) != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Samples[0]["position"] != nil {
		t.Errorf("expected null position, got %v", doc.Samples[0]["position"])
	}
	if doc.Samples[0]["velocity"] != 2.0 {
		t.Errorf("expected velocity 2, got %v", doc.Samples[0]["velocity"])
	}
}

func TestCSVKeepsNonFinite(t *testing.T) {
	samples := []Sample{{Tick: 3, Time: 0.03, Position: math.Inf(-1), Output: math.NaN(), Scenario: "ball"}}

	var buf bytes.Buffer
	if err := ExportCSV(&buf, samples); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 1 || !math.IsInf(got[0].Position, -1) || !math.IsNaN(got[0].Output) {
		t.Errorf("unexpected samples %+v", got)
	}
	if got[0].Scenario != "ball" || got[0].Tick != 3 {
		t.Errorf("unexpected sample %+v", got[0])
	}
}

func TestChartPoints(t *testing.T) {
	samples := []Sample{
		{Tick: 1, Position: 12, Setpoint: 20},
		{Tick: 2, Position: 25, Setpoint: 20},
	}
	points := ChartPoints(samples)

	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].X != 1 || points[0].Deviation != -8 || points[0].Setpoint != 20 {
		t.Errorf("unexpected first point %+v", points[0])
	}
	if points[1].X != 2 || points[1].Deviation != 5 {
		t.Errorf("unexpected second point %+v", points[1])
	}
}
