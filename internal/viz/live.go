package viz

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/pidlab/internal/chart"
	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/export"
	"github.com/san-kum/pidlab/internal/session"
)

const (
	canvasWidth  = 60
	canvasHeight = 12
	barWidth     = 20
)

type TickMsg time.Time

type exportedMsg struct {
	path string
	err  error
}

type Options struct {
	TickInterval time.Duration
	Chart        chart.Options
	// ExportDir receives SVG chart exports.
	ExportDir    string
	Theme        string
}

func DefaultOptions() Options {
	return Options{
		TickInterval: session.DefaultTickInterval,
		Chart:        chart.Options{Width: canvasWidth, Height: 8, Caption: chart.DefaultOptions().Caption},
		ExportDir:    ".",
	}
}

// Model is the live PID session. Every key and clock tick becomes a
// session.Event applied with session.Apply; observers see each transition.
type Model struct {
	state     control.State
	ticking   bool
	opts      Options
	observers []session.Observer

	selected int
	editing  bool
	input    textinput.Model
	bar      progress.Model
	help     help.Model
	keys     keyMap

	theme  int
	styles styles

	spring    harmonica.Spring
	marker    float64
	markerVel float64

	canvas *Canvas
	notice string
}

func NewModel(initial control.State, opts Options, observers ...session.Observer) Model {
	if opts.TickInterval <= 0 {
		opts.TickInterval = session.DefaultTickInterval
	}
	fps := int(time.Second / opts.TickInterval)
	if fps < 1 {
		fps = 1
	}

	in := textinput.New()
	in.CharLimit = 24
	in.Width = 16

	theme := themeIndex(opts.Theme)
	return Model{
		state:     initial,
		ticking:   true,
		opts:      opts,
		observers: observers,
		input:     in,
		bar:       newBar(Themes[theme]),
		help:      help.New(),
		keys:      newKeyMap(),
		theme:     theme,
		styles:    newStyles(Themes[theme]),
		spring:    harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
		marker:    initial.Target(),
		canvas:    NewCanvas(canvasWidth, canvasHeight),
	}
}

func newBar(t Theme) progress.Model {
	return progress.New(
		progress.WithGradient(string(t.Secondary), string(t.Primary)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
}

func (m Model) State() control.State { return m.state }

func (m Model) Ticking() bool { return m.ticking }

func (m Model) Selected() Slider { return Sliders[m.selected] }

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.TickInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *Model) apply(e session.Event) {
	m.state = session.Apply(m.state, e)
	for _, obs := range m.observers {
		obs(e, m.state)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		if m.ticking {
			m.apply(session.Tick{})
		}
		if target := m.state.Target(); finite(target) {
			m.marker, m.markerVel = m.spring.Update(m.marker, m.markerVel, target)
		}
		return m, m.tick()

	case exportedMsg:
		if msg.err != nil {
			m.notice = "export failed: " + msg.err.Error()
		} else {
			m.notice = "chart saved to " + msg.path
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.editKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) editKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Edit):
		m.apply(m.Selected().Enter(m.input.Value()))
		m.editing = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.editing = false
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.selected = (m.selected + 1) % len(Sliders)
	case key.Matches(msg, m.keys.Prev):
		m.selected = (m.selected + len(Sliders) - 1) % len(Sliders)
	case key.Matches(msg, m.keys.Inc):
		m.apply(m.Selected().Nudge(m.state, 1))
	case key.Matches(msg, m.keys.Dec):
		m.apply(m.Selected().Nudge(m.state, -1))
	case key.Matches(msg, m.keys.Edit):
		m.editing = true
		m.input.SetValue("")
		m.input.Placeholder = fmt.Sprintf("%g", m.Selected().Get(m.state))
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Toggle):
		m.apply(session.ToggleScenario{})
	case key.Matches(msg, m.keys.Disturb):
		m.apply(session.Disturb{})
	case key.Matches(msg, m.keys.Pause):
		m.ticking = !m.ticking
	case key.Matches(msg, m.keys.Theme):
		m.theme = (m.theme + 1) % len(Themes)
		m.styles = newStyles(Themes[m.theme])
		m.bar = newBar(Themes[m.theme])
	case key.Matches(msg, m.keys.Export):
		return m, exportChart(m.state, m.opts.ExportDir)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// exportChart writes the current chart as SVG off the update loop.
func exportChart(s control.State, dir string) tea.Cmd {
	points := chart.Compose(s.History, s.SetpointHistory)
	return func() tea.Msg {
		svg := export.SeriesToSVG(points, 800, 400)
		if svg == "" {
			return exportedMsg{err: fmt.Errorf("not enough finite samples")}
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return exportedMsg{err: err}
		}
		path := filepath.Join(dir, fmt.Sprintf("pidlab_%d.svg", time.Now().Unix()))
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			return exportedMsg{err: err}
		}
		return exportedMsg{path: path}
	}
}

func (m Model) View() string {
	st := m.styles
	theme := Themes[m.theme]

	var scene string
	if Draw(m.canvas, m.state, m.marker) {
		scene = st.canvas.Render(m.canvas.String())
	} else {
		scene = st.canvas.Render(st.alert.Render(padBlock("DIVERGED", canvasWidth, canvasHeight)))
	}

	var side strings.Builder
	status := st.running.Render("RUNNING")
	if !m.ticking {
		status = st.paused.Render("PAUSED")
	}
	side.WriteString(GradientText("PID LAB", theme.Primary, theme.Secondary) + "  " + status + "\n")
	side.WriteString(st.muted.Render(scenarioHint(m.state.Scenario)) + "\n\n")

	for i, sl := range Sliders {
		label := st.label.Render(sl.Label)
		if i == m.selected {
			label = st.selected.Render("> " + sl.Label)
		}
		value := fmt.Sprintf("%8.2f", sl.Get(m.state))
		if i == m.selected && m.editing {
			value = m.input.View()
		}
		side.WriteString(label + m.bar.ViewAs(sl.Fraction(m.state)) + " " + st.value.Render(value) + "\n")
	}

	side.WriteString("\n")
	for _, row := range [][2]string{
		{"Position", num(m.state.Position, 3)},
		{"Velocity", num(m.state.Velocity, 4)},
		{"Target", num(m.state.Target(), 2)},
		{"Error", num(m.state.Error(), 3)},
		{"Output", num(m.state.Output, 5)},
		{"Integral", num(m.state.Integral, 3)},
	} {
		side.WriteString(st.label.Render(row[0]) + st.value.Render(row[1]) + "\n")
	}
	if m.notice != "" {
		side.WriteString("\n" + st.muted.Render(m.notice) + "\n")
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, scene, st.panel.Render(side.String()))
	graph := chart.Render(chart.Compose(m.state.History, m.state.SetpointHistory), m.opts.Chart)
	return lipgloss.JoinVertical(lipgloss.Left, top, graph, m.help.View(m.keys))
}

func scenarioHint(sc control.Scenario) string {
	if sc == control.Ball {
		return fmt.Sprintf("ball on a tilting board, balancing at %.0f", control.BallTarget)
	}
	return "box on a frictionless track"
}

func num(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "diverged"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

func padBlock(text string, w, h int) string {
	lines := make([]string, h)
	for i := range lines {
		lines[i] = strings.Repeat(" ", w)
	}
	pad := max(0, (w-len(text))/2)
	lines[h/2] = strings.Repeat(" ", pad) + text + strings.Repeat(" ", max(0, w-pad-len(text)))
	return strings.Join(lines, "\n")
}

// Run starts the live view on the alternate screen.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
