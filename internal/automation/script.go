package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/session"
)

// Script is a scripted headless session: a run length and the events to
// inject along the way.
type Script struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Ticks       int           `yaml:"ticks"`
	Events      []ScriptEvent `yaml:"events"`
}

// ScriptEvent is applied just before tick At. At == Ticks applies it after
// the last tick.
type ScriptEvent struct {
	At    int     `yaml:"at"`
	Kind  string  `yaml:"kind"`
	Value float64 `yaml:"value"`
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

func (s *Script) Validate() error {
	if s.Ticks < 0 {
		return fmt.Errorf("%w: ticks must not be negative, got %d", ErrInvalidScript, s.Ticks)
	}
	for i, ev := range s.Events {
		if _, err := session.NewEvent(ev.Kind, ev.Value); err != nil {
			return fmt.Errorf("%w: event %d: %v", ErrInvalidScript, i+1, err)
		}
		if ev.At < 0 || ev.At > s.Ticks {
			return fmt.Errorf("%w: event %d: at %d outside [0, %d]", ErrInvalidScript, i+1, ev.At, s.Ticks)
		}
	}
	return nil
}

// Plan converts the script events for session.Simulate.
func (s *Script) Plan() (session.Plan, error) {
	plan := make(session.Plan, 0, len(s.Events))
	for i, ev := range s.Events {
		e, err := session.NewEvent(ev.Kind, ev.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d: %v", ErrInvalidScript, i+1, err)
		}
		plan = append(plan, session.Scheduled{At: ev.At, Event: e})
	}
	return plan, nil
}

// Run simulates the script from initial.
func (s *Script) Run(ctx context.Context, initial control.State, observers ...session.Observer) (control.State, error) {
	plan, err := s.Plan()
	if err != nil {
		return initial, err
	}
	return session.Simulate(ctx, initial, s.Ticks, plan, observers...)
}
