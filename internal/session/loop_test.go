package session_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/session"
)

var _ = Describe("Loop", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(func() { cancel() })
	})

	It("applies sent events in order", func() {
		loop := session.NewLoop(control.DefaultState(), 0)
		go loop.Run(ctx)

		Expect(loop.Send(ctx, session.SetProportional{Value: 50})).To(Succeed())
		Expect(loop.Send(ctx, session.Tick{})).To(Succeed())
		Expect(loop.Send(ctx, session.Disturb{})).To(Succeed())

		Eventually(func() float64 { return loop.Snapshot().Velocity }).
			Should(BeNumerically("~", 0.005+1.5, 1e-12))
		Expect(loop.Snapshot().Kp).To(Equal(50.0))
	})

	It("ticks on its own while ticking is on", func() {
		loop := session.NewLoop(control.DefaultState(), time.Millisecond)
		go loop.Run(ctx)

		Eventually(func() int { return loop.Snapshot().History.Len() }).
			Should(BeNumerically(">=", 5))
	})

	It("stops ticking when paused", func() {
		loop := session.NewLoop(control.DefaultState(), time.Millisecond)
		loop.SetTicking(false)
		Expect(loop.Ticking()).To(BeFalse())
		go loop.Run(ctx)

		Consistently(func() int { return loop.Snapshot().History.Len() }, 50*time.Millisecond).
			Should(BeZero())
	})

	It("calls observers with every transition", func() {
		var seen, balls atomic.Int32
		obs := func(e session.Event, s control.State) {
			if s.Scenario == control.Ball {
				balls.Add(1)
			}
			seen.Add(1)
		}
		loop := session.NewLoop(control.DefaultState(), 0, obs)
		go loop.Run(ctx)

		Expect(loop.Send(ctx, session.ToggleScenario{})).To(Succeed())
		Expect(loop.Send(ctx, session.Tick{})).To(Succeed())
		Eventually(seen.Load).Should(Equal(int32(2)))
		Expect(balls.Load()).To(Equal(int32(2)))
	})

	It("waits for queued events to be applied", func() {
		loop := session.NewLoop(control.DefaultState(), 0)
		go loop.Run(ctx)

		for i := 0; i < 40; i++ {
			Expect(loop.Send(ctx, session.Tick{})).To(Succeed())
		}
		s, err := loop.Wait(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.History.Len()).To(Equal(40))
		Expect(loop.Snapshot().History.Len()).To(Equal(40))
	})

	It("reports a stopped loop", func() {
		loop := session.NewLoop(control.DefaultState(), 0)
		runCtx, stop := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- loop.Run(runCtx) }()
		stop()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))

		// fill the queue so the only ready case is the closed done channel
		var err error
		for i := 0; i < 100 && err == nil; i++ {
			err = loop.Send(ctx, session.Tick{})
		}
		Expect(errors.Is(err, session.ErrLoopStopped)).To(BeTrue())
	})
})

var _ = Describe("Simulate", func() {
	It("runs the requested number of ticks", func() {
		s := control.DefaultState()
		s.Kp = 50

		out, err := session.Simulate(context.Background(), s, 10, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.History.Len()).To(Equal(10))
	})

	It("applies scheduled events before their tick", func() {
		plan := session.Plan{
			{At: 3, Event: session.Disturb{}},
			{At: 0, Event: session.SetProportional{Value: 50}},
			{At: 5, Event: session.ToggleScenario{}},
		}
		var kinds []string
		obs := func(e session.Event, _ control.State) { kinds = append(kinds, e.Kind()) }

		out, err := session.Simulate(context.Background(), control.DefaultState(), 5, plan, obs)
		Expect(err).NotTo(HaveOccurred())
		Expect(kinds).To(Equal([]string{
			"kp", "tick", "tick", "tick", "disturb", "tick", "tick", "toggle",
		}))
		Expect(out.Scenario).To(Equal(control.Ball))
		Expect(out.Kp).To(Equal(50.0))
	})

	It("matches stepping by hand", func() {
		s := control.DefaultState()
		s.Kp, s.Kd = 50, 45
		manual := s
		for i := 0; i < 100; i++ {
			manual = session.Apply(manual, session.Tick{})
		}
		out, err := session.Simulate(context.Background(), s, 100, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(manual))
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := session.Simulate(ctx, control.DefaultState(), 10, nil)
		Expect(err).To(MatchError(context.Canceled))
	})
})
