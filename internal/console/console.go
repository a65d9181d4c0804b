package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/san-kum/pidlab/internal/chart"
	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/session"
)

// Console drives a session.Loop from text commands.
type Console struct {
	loop  *session.Loop
	out   io.Writer
	chart chart.Options
}

func New(loop *session.Loop, out io.Writer, opts chart.Options) *Console {
	return &Console{loop: loop, out: out, chart: opts}
}

// Execute runs one line and reports whether the console should exit.
func (c *Console) Execute(ctx context.Context, line string) (bool, error) {
	cmd, err := Parse(line)
	if err != nil {
		return false, err
	}

	switch cmd.Action {
	case Send:
		return false, c.loop.Send(ctx, cmd.Event)
	case Step:
		for i := 0; i < cmd.Count; i++ {
			if err := c.loop.Send(ctx, session.Tick{}); err != nil {
				return false, err
			}
		}
		_, err := c.loop.Wait(ctx)
		return false, err
	case Resume:
		c.loop.SetTicking(true)
	case Pause:
		c.loop.SetTicking(false)
	case Show:
		fmt.Fprintln(c.out, Status(c.loop.Snapshot(), c.loop.Ticking()))
	case Chart:
		s := c.loop.Snapshot()
		out := chart.Render(chart.Compose(s.History, s.SetpointHistory), c.chart)
		if out == "" {
			out = "(not enough samples yet)"
		}
		fmt.Fprintln(c.out, out)
	case Help:
		printHelp(c.out)
	case Quit:
		return true, nil
	}
	return false, nil
}

// Status is the one-line summary printed by show.
func Status(s control.State, ticking bool) string {
	run := "running"
	if !ticking {
		run = "paused"
	}
	return fmt.Sprintf("[%s %s] pos=%.3f vel=%.4f target=%.2f out=%.5f int=%.3f | kp=%g ki=%g kd=%g bias=%g setpoint=%g",
		s.Scenario, run, s.Position, s.Velocity, s.Target(), s.Output, s.Integral,
		s.Kp, s.Ki, s.Kd, s.SystematicBias, s.Setpoint)
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  kp|ki|kd <value>       - Set a gain")
	fmt.Fprintln(w, "  setpoint|sp <value>    - Set the linear target")
	fmt.Fprintln(w, "  bias <value>           - Set the systematic bias")
	fmt.Fprintln(w, "  toggle                 - Switch between linear and ball")
	fmt.Fprintln(w, "  disturb                - Kick the velocity")
	fmt.Fprintln(w, "  step [n]               - Advance n ticks (default 1)")
	fmt.Fprintln(w, "  run | pause            - Resume or pause the clock")
	fmt.Fprintln(w, "  show                   - Print the current state")
	fmt.Fprintln(w, "  chart                  - Plot deviation and setpoint")
	fmt.Fprintln(w, "  help                   - Show this help")
	fmt.Fprintln(w, "  quit                   - Leave the console")
}

// readlineWriter keeps log lines from clobbering the prompt.
type readlineWriter struct {
	rl *readline.Instance
}

func (w *readlineWriter) Write(p []byte) (n int, err error) {
	w.rl.Clean()
	n, err = os.Stderr.Write(p)
	w.rl.Refresh()
	return n, err
}

// Run reads commands until quit, EOF, Ctrl+C or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "pid> ",
		HistoryFile: historyFilePath(),
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer func() {
		_ = rl.Close()
		log.SetOutput(os.Stderr)
	}()
	log.SetOutput(&readlineWriter{rl: rl})

	fmt.Fprintln(c.out, "pidlab console (type 'help' for commands)")
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		quit, err := c.Execute(ctx, line)
		if err != nil {
			if errors.Is(err, session.ErrLoopStopped) || errors.Is(err, context.Canceled) {
				return nil
			}
			log.Printf("%v", err)
			continue
		}
		if quit {
			return nil
		}
	}
}

func historyFilePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(cacheDir, "pidlab")
	_ = os.MkdirAll(dir, 0750)
	return filepath.Join(dir, "console_history")
}
