package session

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/san-kum/pidlab/internal/control"
)

// DefaultTickInterval is the nominal wall-clock period between ticks. The
// simulated step stays control.Dt whatever the real elapsed time.
const DefaultTickInterval = 10 * time.Millisecond

// Loop owns a session's state and serializes every event through a single
// goroutine. Observers run on that goroutine.
type Loop struct {
	interval  time.Duration
	events    chan envelope
	done      chan struct{}
	observers []Observer
	latest    atomic.Pointer[control.State]
	ticking   atomic.Bool
}

// envelope carries either an event or a reply channel that Run answers once
// everything queued before it has been applied.
type envelope struct {
	event Event
	reply chan control.State
}

// NewLoop creates a loop starting at initial. An interval of zero disables
// the ticker; ticks then only arrive through Send.
func NewLoop(initial control.State, interval time.Duration, observers ...Observer) *Loop {
	l := &Loop{
		interval:  interval,
		events:    make(chan envelope, 64),
		done:      make(chan struct{}),
		observers: observers,
	}
	l.latest.Store(&initial)
	l.ticking.Store(true)
	return l
}

// Run processes events until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	var ticks <-chan time.Time
	if l.interval > 0 {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	s := l.Snapshot()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticks:
			if l.ticking.Load() {
				s = l.dispatch(s, Tick{})
			}
		case env := <-l.events:
			if env.reply != nil {
				env.reply <- s
				continue
			}
			s = l.dispatch(s, env.event)
		}
	}
}

func (l *Loop) dispatch(s control.State, e Event) control.State {
	next := Apply(s, e)
	l.latest.Store(&next)
	for _, obs := range l.observers {
		obs(e, next)
	}
	return next
}

// Send queues e behind any pending events.
func (l *Loop) Send(ctx context.Context, e Event) error {
	return l.enqueue(ctx, envelope{event: e})
}

// Wait blocks until every event sent before it has been applied and returns
// the resulting state.
func (l *Loop) Wait(ctx context.Context) (control.State, error) {
	reply := make(chan control.State, 1)
	if err := l.enqueue(ctx, envelope{reply: reply}); err != nil {
		return control.State{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return control.State{}, ctx.Err()
	case <-l.done:
		return control.State{}, ErrLoopStopped
	}
}

func (l *Loop) enqueue(ctx context.Context, env envelope) error {
	select {
	case l.events <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// Snapshot returns the state after the most recent transition.
func (l *Loop) Snapshot() control.State { return *l.latest.Load() }

// SetTicking pauses or resumes the periodic ticks.
func (l *Loop) SetTicking(on bool) { l.ticking.Store(on) }

func (l *Loop) Ticking() bool { return l.ticking.Load() }

// Scheduled is an event applied just before tick At (zero-based).
type Scheduled struct {
	At    int
	Event Event
}

type Plan []Scheduled

// Simulate runs ticks ticks from s without a clock, applying plan along the
// way. Events scheduled at ticks are applied after the final tick.
func Simulate(ctx context.Context, s control.State, ticks int, plan Plan, observers ...Observer) (control.State, error) {
	sorted := make(Plan, len(plan))
	copy(sorted, plan)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })

	apply := func(e Event) {
		s = Apply(s, e)
		for _, obs := range observers {
			obs(e, s)
		}
	}

	next := 0
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return s, ctx.Err()
		default:
		}

		for next < len(sorted) && sorted[next].At <= i {
			apply(sorted[next].Event)
			next++
		}
		apply(Tick{})
	}
	for next < len(sorted) && sorted[next].At <= ticks {
		apply(sorted[next].Event)
		next++
	}
	return s, nil
}
