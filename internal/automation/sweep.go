package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/session"
)

// divergenceLimit is the position magnitude past which a run counts as
// unstable.
const divergenceLimit = 1e6

// ParameterSweep runs one headless session per value of a setter event.
type ParameterSweep struct {
	Kind     string
	Min      float64
	Max      float64
	NumSteps int
	Ticks    int
	Initial  control.State
}

type SweepResult struct {
	Value   float64
	Final   control.State
	Metrics map[string]float64
	Stable  bool
}

func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	first, err := session.NewEvent(sweep.Kind, 0)
	if err != nil {
		return nil, err
	}
	if _, ok := session.Value(first); !ok {
		return nil, fmt.Errorf("%w: %s takes no value to sweep", session.ErrUnknownEvent, sweep.Kind)
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		v := sweep.Min + float64(i)*paramStep
		e, _ := session.NewEvent(sweep.Kind, v)

		ms := metrics.Defaults()
		final, err := session.Simulate(ctx, session.Apply(sweep.Initial, e), sweep.Ticks, nil, observeTicks(ms))
		if err != nil {
			return results, err
		}

		results = append(results, SweepResult{
			Value:   v,
			Final:   final,
			Metrics: metrics.Collect(ms),
			Stable:  bounded(final),
		})
	}
	return results, nil
}

// MonteCarloConfig perturbs the initial position and velocity of each trial
// uniformly by up to Perturbation.
type MonteCarloConfig struct {
	Base         control.State
	Perturbation float64
	NumTrials    int
	Ticks        int
	Seed         int64
}

type MonteCarloResult struct {
	TrialID int
	Initial control.State
	Final   control.State
	Stable  bool
}

func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		initial := cfg.Base
		initial.Position += (rng.Float64() - 0.5) * 2 * cfg.Perturbation
		initial.Velocity += (rng.Float64() - 0.5) * 2 * cfg.Perturbation

		final, err := session.Simulate(ctx, initial, cfg.Ticks, nil)
		if err != nil {
			return results, err
		}

		results = append(results, MonteCarloResult{
			TrialID: trial,
			Initial: initial,
			Final:   final,
			Stable:  bounded(final),
		})
	}
	return results, nil
}

func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}

func observeTicks(ms []metrics.Metric) session.Observer {
	return func(e session.Event, s control.State) {
		if _, ok := e.(session.Tick); !ok {
			return
		}
		for _, m := range ms {
			m.Observe(s)
		}
	}
}

func bounded(s control.State) bool {
	return !math.IsNaN(s.Position) && math.Abs(s.Position) < divergenceLimit
}
