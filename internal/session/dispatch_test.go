package session_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/history"
	"github.com/san-kum/pidlab/internal/session"
)

var _ = Describe("Apply", func() {
	var s control.State

	BeforeEach(func() {
		s = control.DefaultState()
	})

	Describe("setters", func() {
		DescribeTable("assign the field directly",
			func(e session.Event, field func(control.State) float64, want float64) {
				next := session.Apply(s, e)
				Expect(field(next)).To(Equal(want))
			},
			Entry("kp", session.SetProportional{Value: 120}, func(s control.State) float64 { return s.Kp }, 120.0),
			Entry("ki", session.SetIntegral{Value: 7}, func(s control.State) float64 { return s.Ki }, 7.0),
			Entry("kd", session.SetDerivative{Value: 300}, func(s control.State) float64 { return s.Kd }, 300.0),
			Entry("setpoint", session.SetSetpoint{Value: 65}, func(s control.State) float64 { return s.Setpoint }, 65.0),
			Entry("bias", session.SetSystematicBias{Value: 4000}, func(s control.State) float64 { return s.SystematicBias }, 4000.0),
			Entry("negative gain", session.SetProportional{Value: -5}, func(s control.State) float64 { return s.Kp }, -5.0),
		)

		It("does not touch the prior snapshot", func() {
			_ = session.Apply(s, session.SetProportional{Value: 50})
			Expect(s.Kp).To(BeZero())
		})
	})

	Describe("Disturb", func() {
		It("adds the impulse to velocity and nothing else", func() {
			s = session.ApplyAll(s,
				session.SetProportional{Value: 40},
				session.Tick{}, session.Tick{},
			)
			before := s

			after := session.Apply(s, session.Disturb{})

			Expect(after.Velocity).To(BeNumerically("~", before.Velocity+1.5, 1e-12))
			after.Velocity = before.Velocity
			Expect(after).To(Equal(before))
		})

		It("works the same in the ball scenario", func() {
			s.Scenario = control.Ball
			Expect(session.Apply(s, session.Disturb{}).Velocity).To(Equal(1.5))
		})
	})

	Describe("ToggleScenario", func() {
		It("flips between linear and ball", func() {
			once := session.Apply(s, session.ToggleScenario{})
			Expect(once.Scenario).To(Equal(control.Ball))
			twice := session.Apply(once, session.ToggleScenario{})
			Expect(twice.Scenario).To(Equal(control.Linear))
		})

		It("keeps the integral", func() {
			s = session.ApplyAll(s, session.SetIntegral{Value: 1}, session.Tick{}, session.Tick{})
			integral := s.Integral
			Expect(integral).NotTo(BeZero())
			Expect(session.Apply(s, session.ToggleScenario{}).Integral).To(Equal(integral))
		})
	})

	Describe("Tick", func() {
		It("routes to the linear variant", func() {
			s.Kp = 50
			next := session.Apply(s, session.Tick{})
			Expect(next.Output).To(BeNumerically("~", 0.005, 1e-12))
			Expect(next.Position).To(BeNumerically("~", 10.005, 1e-12))
		})

		It("routes to the ball variant", func() {
			s.Scenario = control.Ball
			s.Position = 40
			s.Kp = 100
			next := session.Apply(s, session.Tick{})
			Expect(next.Output).To(BeNumerically("~", 0.1, 1e-12))
			Expect(next.Position).To(BeNumerically("~", 40+math.Sin(0.1)/20, 1e-12))
		})

		It("keeps both histories bounded and equal", func() {
			for i := 0; i < history.Capacity+25; i++ {
				s = session.Apply(s, session.Tick{})
				Expect(s.History.Len()).To(Equal(s.SetpointHistory.Len()))
				Expect(s.History.Len()).To(BeNumerically("<=", history.Capacity))
			}
			Expect(s.History.Len()).To(Equal(history.Capacity))
		})
	})

	Describe("integral accumulation", func() {
		It("is the sum of error*dt whatever changes in between", func() {
			expected := 0.0
			changes := []session.Event{
				session.SetProportional{Value: 30},
				session.SetSetpoint{Value: 80},
				session.SetIntegral{Value: 2},
				session.ToggleScenario{},
				session.SetDerivative{Value: 100},
				session.SetSystematicBias{Value: 250},
				session.ToggleScenario{},
			}
			for i := 0; i < 70; i++ {
				s = session.Apply(s, changes[i%len(changes)])
				expected += s.Error() * control.Dt
				s = session.Apply(s, session.Tick{})
			}
			Expect(s.Integral).To(BeNumerically("~", expected, 1e-9))
		})
	})
})

var _ = Describe("NewEvent", func() {
	DescribeTable("known kinds",
		func(kind string, value float64, want session.Event) {
			e, err := session.NewEvent(kind, value)
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(Equal(want))
		},
		Entry("tick", "tick", 0.0, session.Tick{}),
		Entry("kp", "kp", 12.0, session.SetProportional{Value: 12}),
		Entry("ki alias", "I", 3.0, session.SetIntegral{Value: 3}),
		Entry("kd", "kd", 9.0, session.SetDerivative{Value: 9}),
		Entry("setpoint alias", "sp", 40.0, session.SetSetpoint{Value: 40}),
		Entry("bias", "bias", 100.0, session.SetSystematicBias{Value: 100}),
		Entry("toggle ignores value", "toggle", 5.0, session.ToggleScenario{}),
		Entry("disturb", " disturb ", 0.0, session.Disturb{}),
	)

	It("rejects unknown kinds", func() {
		_, err := session.NewEvent("reset", 0)
		Expect(errors.Is(err, session.ErrUnknownEvent)).To(BeTrue())
	})

	It("round-trips every listed kind", func() {
		for _, kind := range session.Kinds {
			e, err := session.NewEvent(kind, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Kind()).To(Equal(kind))
		}
	})
})
