package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/session"
)

var ErrNoCandidate = errors.New("no candidate produced a finite score")

// Evaluate scores one parameter set; lower is better.
type Evaluate func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	if len(g.ranges) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every grid point in parallel and returns the lowest
// finite score. Candidates that error or score NaN/Inf never win; ties go
// to the earlier grid point.
func (g *GridSearch) Search(ctx context.Context, evaluate Evaluate) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("grid search: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	candidates := make([]map[string]float64, 0, g.Size())
	g.enumerate(0, make(map[string]float64), &candidates)

	scores := make([]float64, len(candidates))
	ParallelFor(len(candidates), 1, func(start, end int) {
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				scores[i] = math.NaN()
				continue
			}
			v, err := evaluate(ctx, candidates[i])
			if err != nil {
				v = math.NaN()
			}
			scores[i] = v
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	best, bestIdx := math.Inf(1), -1
	for i, v := range scores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < best {
			best, bestIdx = v, i
		}
	}
	if bestIdx < 0 {
		return nil, 0, ErrNoCandidate
	}
	return candidates[bestIdx], best, nil
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}
		*out = append(*out, params)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		g.enumerate(depth+1, current, out)
	}
	delete(current, paramName)
}

// ScoreRun evaluates a parameter set by simulating ticks from initial with
// the parameters applied as setter events, then reading metricName. Param
// names are event kinds such as kp, ki, kd or setpoint. Metrics where higher
// is better are negated so lower always wins.
func ScoreRun(initial control.State, ticks int, metricName string) (Evaluate, error) {
	if _, err := metrics.New(metricName); err != nil {
		return nil, err
	}
	sign := 1.0
	if metrics.HigherIsBetter(metricName) {
		sign = -1
	}

	return func(ctx context.Context, params map[string]float64) (float64, error) {
		s := initial
		for name, v := range params {
			e, err := session.NewEvent(name, v)
			if err != nil {
				return 0, err
			}
			if _, ok := session.Value(e); !ok {
				return 0, fmt.Errorf("%w: %s takes no value", session.ErrUnknownEvent, name)
			}
			s = session.Apply(s, e)
		}

		m, _ := metrics.New(metricName)
		observe := func(e session.Event, st control.State) {
			if _, ok := e.(session.Tick); ok {
				m.Observe(st)
			}
		}
		if _, err := session.Simulate(ctx, s, ticks, nil, observe); err != nil {
			return 0, err
		}
		return sign * m.Value(), nil
	}, nil
}
