package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/session"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestTickAdvances(t *testing.T) {
	m := NewModel(control.DefaultState(), DefaultOptions())
	m = send(t, m, TickMsg(time.Now()), TickMsg(time.Now()))

	if got := m.State().History.Len(); got != 2 {
		t.Errorf("expected 2 ticks, got %d", got)
	}
}

func TestPauseStopsTicks(t *testing.T) {
	m := NewModel(control.DefaultState(), DefaultOptions())
	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, TickMsg(time.Now()))

	if m.Ticking() {
		t.Fatal("expected paused")
	}
	if m.State().History.Len() != 0 {
		t.Error("paused model should not tick")
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, TickMsg(time.Now()))
	if m.State().History.Len() != 1 {
		t.Error("resumed model should tick")
	}
}

func TestSliderSelectionWraps(t *testing.T) {
	m := NewModel(control.DefaultState(), DefaultOptions())
	if m.Selected().Kind != "setpoint" {
		t.Fatalf("expected setpoint first, got %s", m.Selected().Kind)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.Selected().Kind != "bias" {
		t.Errorf("shift+tab should wrap to bias, got %s", m.Selected().Kind)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab})
	if m.Selected().Kind != "kp" {
		t.Errorf("expected kp, got %s", m.Selected().Kind)
	}
}

func TestNudgeClampsToRange(t *testing.T) {
	m := NewModel(control.DefaultState(), DefaultOptions())
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})

	m = send(t, m, tea.KeyMsg{Type: tea.KeyRight}, runes("l"))
	if m.State().Kp != 10 {
		t.Errorf("expected kp 10, got %g", m.State().Kp)
	}

	for i := 0; i < 5; i++ {
		m = send(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	if m.State().Kp != 0 {
		t.Errorf("kp should clamp at 0, got %g", m.State().Kp)
	}

	s := control.DefaultState()
	s.Setpoint = 99.5
	m = send(t, NewModel(s, DefaultOptions()), runes("l"))
	if m.State().Setpoint != 100 {
		t.Errorf("setpoint should clamp at 100, got %g", m.State().Setpoint)
	}
}

func TestTypedValue(t *testing.T) {
	m := NewModel(control.DefaultState(), DefaultOptions())
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab})
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("3000"), tea.KeyMsg{Type: tea.KeyEnter})

	if m.State().Kd != 3000 {
		t.Errorf("typed values are not clamped, expected kd 3000, got %g", m.State().Kd)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("fast"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.State().Kd != 0 {
		t.Errorf("malformed entry should give 0, got %g", m.State().Kd)
	}
}

func TestEditCancel(t *testing.T) {
	m := NewModel(control.DefaultState(), DefaultOptions())
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("77"), tea.KeyMsg{Type: tea.KeyEsc})

	if m.State().Setpoint != control.DefaultSetpoint {
		t.Errorf("cancelled edit changed setpoint to %g", m.State().Setpoint)
	}

	// keys go to the text field while editing
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("s"))
	if m.State().Scenario != control.Linear {
		t.Error("s typed into the field should not toggle")
	}
}

func TestToggleAndDisturb(t *testing.T) {
	var kinds []string
	obs := func(e session.Event, _ control.State) { kinds = append(kinds, e.Kind()) }

	m := NewModel(control.DefaultState(), DefaultOptions(), obs)
	m = send(t, m, runes("s"), runes("d"), TickMsg(time.Now()))

	if m.State().Scenario != control.Ball {
		t.Error("expected ball scenario")
	}
	if m.State().Velocity == 0 {
		t.Error("disturbance should move the velocity")
	}
	if strings.Join(kinds, ",") != "toggle,disturb,tick" {
		t.Errorf("unexpected observed events %v", kinds)
	}
}

func TestThemeCycles(t *testing.T) {
	m := NewModel(control.DefaultState(), DefaultOptions())
	for i := 0; i < len(Themes); i++ {
		m = send(t, m, runes("t"))
	}
	if m.theme != 0 {
		t.Errorf("expected theme to wrap, got %d", m.theme)
	}
}

func TestQuit(t *testing.T) {
	m := NewModel(control.DefaultState(), DefaultOptions())
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestQuitWhileEditing(t *testing.T) {
	m := NewModel(control.DefaultState(), DefaultOptions())
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	next, cmd := m.Update(runes("q"))
	if cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("q must be typed into the field while editing")
		}
	}

	_, cmd = next.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestExport(t *testing.T) {
	opts := DefaultOptions()
	opts.ExportDir = filepath.Join(t.TempDir(), "out")

	s := control.DefaultState()
	s.Kp = 50
	for i := 0; i < 20; i++ {
		s = control.Tick(s)
	}

	m := NewModel(s, opts)
	_, cmd := m.Update(runes("e"))
	if cmd == nil {
		t.Fatal("expected export command")
	}
	msg := cmd()
	m = send(t, m, msg)

	if !strings.HasPrefix(m.notice, "chart saved to ") {
		t.Fatalf("unexpected notice %q", m.notice)
	}
	data, err := os.ReadFile(strings.TrimPrefix(m.notice, "chart saved to "))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("export is not svg")
	}
}

func TestExportWithoutSamples(t *testing.T) {
	m := NewModel(control.DefaultState(), DefaultOptions())
	_, cmd := m.Update(runes("e"))
	m = send(t, m, cmd())
	if !strings.HasPrefix(m.notice, "export failed") {
		t.Errorf("unexpected notice %q", m.notice)
	}
}

func TestView(t *testing.T) {
	m := NewModel(control.DefaultState(), DefaultOptions())
	m = send(t, m, TickMsg(time.Now()), TickMsg(time.Now()), TickMsg(time.Now()))

	out := m.View()
	for _, want := range []string{"RUNNING", "Setpoint", "Position", "box on a frictionless track"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = send(t, m, runes("s"))
	if !strings.Contains(m.View(), "balancing at 50") {
		t.Error("ball view should name its target")
	}
}

func TestViewDiverged(t *testing.T) {
	s := control.DefaultState()
	s.Kp, s.Kd = 1000, 3000
	for i := 0; i < 2000; i++ {
		s = control.Tick(s)
	}
	out := NewModel(s, DefaultOptions()).View()
	if !strings.Contains(out, "DIVERGED") {
		t.Error("expected diverged banner")
	}
}

func TestSliderFraction(t *testing.T) {
	s := control.DefaultState()
	s.SystematicBias = 2500
	if f := Sliders[4].Fraction(s); f != 0.5 {
		t.Errorf("expected 0.5, got %g", f)
	}
	s.Kd = 3000
	if f := Sliders[3].Fraction(s); f != 1 {
		t.Errorf("expected fraction to clamp at 1, got %g", f)
	}
}
