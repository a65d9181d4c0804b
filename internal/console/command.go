package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/pidlab/internal/session"
)

var ErrUnknownCommand = errors.New("unknown command")

type Action int

const (
	// Send hands Event to the loop.
	Send Action = iota
	Step
	Resume
	Pause
	Show
	Chart
	Help
	Quit
)

// Command is one parsed console line.
type Command struct {
	Action Action
	Event  session.Event
	// Count is the number of ticks for Step.
	Count int
}

// Parse reads a console line. Setter values that are missing or not numbers
// become 0, matching the slider text field.
func Parse(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}

	switch name := fields[0]; name {
	case "kp", "ki", "kd", "setpoint", "sp", "bias":
		e, err := session.NewEvent(name, number(fields))
		if err != nil {
			return Command{}, err
		}
		return Command{Action: Send, Event: e}, nil
	case "toggle":
		return Command{Action: Send, Event: session.ToggleScenario{}}, nil
	case "disturb":
		return Command{Action: Send, Event: session.Disturb{}}, nil
	case "step":
		n := 1
		if len(fields) > 1 {
			v, err := strconv.Atoi(fields[1])
			if err != nil || v < 1 {
				return Command{}, fmt.Errorf("step count must be a positive integer, got %q", fields[1])
			}
			n = v
		}
		return Command{Action: Step, Count: n}, nil
	case "run":
		return Command{Action: Resume}, nil
	case "pause":
		return Command{Action: Pause}, nil
	case "show":
		return Command{Action: Show}, nil
	case "chart":
		return Command{Action: Chart}, nil
	case "help", "?":
		return Command{Action: Help}, nil
	case "quit", "exit":
		return Command{Action: Quit}, nil
	}
	return Command{}, fmt.Errorf("%w: %s (try 'help')", ErrUnknownCommand, fields[0])
}

func number(fields []string) float64 {
	if len(fields) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0
	}
	return v
}
