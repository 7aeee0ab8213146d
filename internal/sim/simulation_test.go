package sim_test

import (
	"context"
	"errors"
	"math"

	"github.com/san-kum/sphfluid/internal/collision"
	"github.com/san-kum/sphfluid/internal/config"
	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"
)

func meanY(v dynamo.View) float64 {
	sum := 0.0
	for _, p := range v.All() {
		sum += p.Position.Y
	}
	return sum / float64(v.Len())
}

var _ = Describe("Simulation", func() {
	Describe("construction", func() {
		It("scatters particles over the spawn region at rest", func() {
			p := sim.DefaultParams()
			s, err := sim.New(p)
			Expect(err).NotTo(HaveOccurred())

			v := s.View()
			Expect(v.Len()).To(Equal(p.Count))
			for _, pt := range v.All() {
				Expect(pt.Position.X).To(BeNumerically(">=", p.Spawn.MinX))
				Expect(pt.Position.X).To(BeNumerically("<=", p.Spawn.MaxX))
				Expect(pt.Position.Y).To(BeNumerically(">=", p.Spawn.MinY))
				Expect(pt.Position.Y).To(BeNumerically("<=", p.Spawn.MaxY))
				Expect(pt.Velocity).To(Equal(r2.Vec{}))
				Expect(pt.Density).To(BeNumerically(">", 0))
				Expect(pt.Mass).To(Equal(p.Mass))
			}
			Expect(s.StepCount()).To(BeZero())
			Expect(s.GravityOn()).To(BeTrue())
			Expect(s.DamIntact()).To(BeTrue())
		})

		It("fails fast on invalid parameters", func() {
			p := sim.DefaultParams()
			p.Count = -1
			s, err := sim.New(p)
			Expect(s).To(BeNil())
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("rejects explicit positions of the wrong length", func() {
			_, err := sim.New(quiet(3), sim.WithPositions([]r2.Vec{{X: 1, Y: 1}}))
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))

			_, err = sim.New(quiet(1), sim.WithVelocities(make([]r2.Vec, 2)))
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("is reproducible for a fixed seed", func() {
			a, err := sim.New(sim.DefaultParams())
			Expect(err).NotTo(HaveOccurred())
			b, err := sim.New(sim.DefaultParams())
			Expect(err).NotTo(HaveOccurred())
			Expect(a.View().Snapshot(nil)).To(Equal(b.View().Snapshot(nil)))

			p := sim.DefaultParams()
			p.Seed = 99
			c, err := sim.New(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.View().Position(0)).NotTo(Equal(a.View().Position(0)))
		})
	})

	Describe("a single particle", func() {
		It("stays exactly where it is when nothing acts on it", func() {
			start := r2.Vec{X: 5, Y: 5}
			s, err := sim.New(quiet(1), sim.WithPositions([]r2.Vec{start}))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 100; i++ {
				s.Step()
			}
			Expect(s.View().Position(0)).To(Equal(start))
			Expect(s.View().Velocity(0)).To(Equal(r2.Vec{}))
		})

		It("reflects off a wall with its speed unchanged", func() {
			s, err := sim.New(quiet(1),
				sim.WithPositions([]r2.Vec{{X: 0.55, Y: 5}}),
				sim.WithVelocities([]r2.Vec{{X: -10, Y: 0}}),
			)
			Expect(err).NotTo(HaveOccurred())

			s.Step()
			Expect(s.View().Position(0)).To(Equal(r2.Vec{X: 0.5, Y: 5}))
			Expect(s.View().Velocity(0)).To(Equal(r2.Vec{X: 10, Y: 0}))
		})

		It("falls under gravity and stops falling when it is switched off", func() {
			p := quiet(1)
			p.GravityOn = true
			s, err := sim.New(p, sim.WithPositions([]r2.Vec{{X: 5, Y: 2}}))
			Expect(err).NotTo(HaveOccurred())

			s.Step()
			s.Step()
			Expect(s.View().Velocity(0).Y).To(BeNumerically(">", 0))

			s.ToggleGravity()
			Expect(s.GravityOn()).To(BeFalse())
			for i := 0; i < 3; i++ {
				s.Step()
			}
			vy := s.View().Velocity(0).Y
			s.Step()
			Expect(s.View().Velocity(0).Y).To(BeNumerically("~", vy, 1e-12))
		})
	})

	Describe("coincident particles", func() {
		It("produce finite values and separate", func() {
			s, err := sim.New(quiet(2), sim.WithPositions([]r2.Vec{{X: 5, Y: 5}, {X: 5, Y: 5}}))
			Expect(err).NotTo(HaveOccurred())

			s.Step()
			for _, p := range s.View().All() {
				Expect(p.IsFinite()).To(BeTrue())
				Expect(math.IsNaN(p.Acceleration.X) || math.IsNaN(p.Acceleration.Y)).To(BeFalse())
			}
			v0, v1 := s.View().Velocity(0), s.View().Velocity(1)
			Expect(v0.X).To(BeNumerically("~", -v1.X, 1e-12))
			Expect(v0.Y).To(BeNumerically("~", -v1.Y, 1e-12))

			s.Step()
			Expect(s.View().Position(0)).NotTo(Equal(s.View().Position(1)))
		})
	})

	Describe("the dam", func() {
		damParams := func() sim.Params {
			p := quiet(1)
			p.Dam = sim.DamParams{Enabled: true, X: 5}
			return p
		}
		opts := []sim.Option{
			sim.WithPositions([]r2.Vec{{X: 4.4, Y: 5}}),
			sim.WithVelocities([]r2.Vec{{X: 20, Y: 0}}),
		}

		It("holds particles on its left while intact", func() {
			s, err := sim.New(damParams(), opts...)
			Expect(err).NotTo(HaveOccurred())

			s.Step()
			Expect(s.View().Position(0).X).To(Equal(4.5))
			Expect(s.View().Velocity(0).X).To(Equal(-20.0))
		})

		It("stays broken when broken twice", func() {
			s, err := sim.New(damParams(), opts...)
			Expect(err).NotTo(HaveOccurred())

			s.BreakDam()
			s.BreakDam()
			Expect(s.DamIntact()).To(BeFalse())

			s.Step()
			Expect(s.View().Position(0).X).To(BeNumerically("~", 4.6, 1e-12))
			Expect(s.View().Velocity(0).X).To(Equal(20.0))
			Expect(s.DamIntact()).To(BeFalse())
		})
	})

	Describe("a dam break", func() {
		var s *sim.Simulation

		BeforeEach(func() {
			var err error
			s, err = sim.New(sim.DefaultParams())
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps every particle finite and inside the box", func() {
			p := s.Params()
			for i := 0; i < 60; i++ {
				s.Step()
			}
			for _, pt := range s.View().All() {
				Expect(pt.IsFinite()).To(BeTrue())
				Expect(pt.Position.X).To(BeNumerically(">=", p.ParticleRadius))
				Expect(pt.Position.X).To(BeNumerically("<=", p.Dam.X-p.ParticleRadius))
				Expect(pt.Position.Y).To(BeNumerically(">=", p.ParticleRadius))
				Expect(pt.Position.Y).To(BeNumerically("<=", p.Height-p.ParticleRadius))
				Expect(pt.Density).To(BeNumerically(">", 0))
			}
		})

		It("moves the fluid down under gravity", func() {
			before := meanY(s.View())
			for i := 0; i < 30; i++ {
				s.Step()
			}
			Expect(meanY(s.View())).To(BeNumerically(">", before))
		})

		It("gives the same answer for any worker count", func() {
			serial := sim.DefaultParams()
			serial.Workers = 1
			a, err := sim.New(serial)
			Expect(err).NotTo(HaveOccurred())

			parallel := sim.DefaultParams()
			parallel.Workers = 4
			b, err := sim.New(parallel)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 10; i++ {
				a.Step()
				b.Step()
			}
			Expect(a.View().Snapshot(nil)).To(Equal(b.View().Snapshot(nil)))
		})
	})

	Describe("a block standing on the floor", func() {
		It("never pushes particles through the walls", func() {
			p := config.GetPreset("obstacle_course").Params()
			p.Count = 600
			Expect(p.Obstacle.Enabled).To(BeTrue())
			Expect(p.Obstacle.MaxY).To(Equal(p.Height))

			s, err := sim.New(p)
			Expect(err).NotTo(HaveOccurred())
			s.BreakDam()

			inside := func() {
				for i, pt := range s.View().All() {
					Expect(pt.IsFinite()).To(BeTrue(), "particle %d", i)
					Expect(pt.Position.X).To(BeNumerically(">=", p.ParticleRadius), "particle %d", i)
					Expect(pt.Position.X).To(BeNumerically("<=", p.Width-p.ParticleRadius), "particle %d", i)
					Expect(pt.Position.Y).To(BeNumerically(">=", p.ParticleRadius), "particle %d", i)
					Expect(pt.Position.Y).To(BeNumerically("<=", p.Height-p.ParticleRadius), "particle %d", i)
				}
			}

			for i := 0; i < 300; i++ {
				s.Step()
			}
			inside()

			for i := 0; i < 4; i++ {
				Expect(s.MoveObstacle(-1, 0)).To(BeTrue())
				for j := 0; j < 50; j++ {
					s.Step()
				}
				inside()
			}
		})
	})

	Describe("controls", func() {
		It("drive the attractor", func() {
			s, err := sim.New(quiet(1), sim.WithPositions([]r2.Vec{{X: 5, Y: 5}}))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Attractor().Active).To(BeFalse())

			s.SetAttractorPosition(7, 5)
			s.SetAttractorActive(true)
			Expect(s.Attractor().Position).To(Equal(r2.Vec{X: 7, Y: 5}))
			Expect(s.Attractor().Active).To(BeTrue())

			s.Step()
			s.Step()
			Expect(s.View().Velocity(0).X).To(BeNumerically(">", 0))

			s.SetAttractorActive(false)
			Expect(s.Attractor().Active).To(BeFalse())
		})

		It("move the rectangle obstacle", func() {
			p := quiet(1)
			p.Dam = sim.DamParams{Enabled: true, X: 9}
			p.Obstacle = sim.ObstacleParams{Enabled: true, Rect: sim.Rect{MinX: 4, MinY: 6, MaxX: 6, MaxY: 10}}
			s, err := sim.New(p)
			Expect(err).NotTo(HaveOccurred())

			obs := s.Obstacles()
			Expect(obs).To(HaveLen(2))
			Expect(obs[0].Kind).To(Equal(collision.Dam))
			Expect(obs[1].Kind).To(Equal(collision.Rectangle))

			Expect(s.MoveObstacle(-1, -1)).To(BeTrue())
			Expect(s.Obstacles()[1].Min).To(Equal(r2.Vec{X: 3, Y: 5}))

			obs[1].Min = r2.Vec{}
			Expect(s.Obstacles()[1].Min).To(Equal(r2.Vec{X: 3, Y: 5}), "copies do not alias")
		})
	})

	Describe("Run", func() {
		It("steps, observes and reports metrics", func() {
			metric := &countingMetric{n: 42}
			observer := &stepLog{}
			s, err := sim.New(quiet(4), sim.WithMetric(metric), sim.WithObserver(observer))
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(context.Background(), 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Steps).To(Equal(5))
			Expect(res.Time).To(BeNumerically("~", 0.05, 1e-12))
			Expect(res.Metrics).To(HaveKeyWithValue("count", 5.0))
			Expect(observer.steps).To(Equal([]int{1, 2, 3, 4, 5}))
			Expect(s.StepCount()).To(Equal(5))
		})

		It("stops when the context is cancelled", func() {
			s, err := sim.New(quiet(4))
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := s.Run(ctx, 100)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Steps).To(BeZero())
		})

		It("rejects a negative step count", func() {
			s, err := sim.New(quiet(1))
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Run(context.Background(), -1)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("consults the controller before every step", func() {
			p := quiet(1)
			p.Dam = sim.DamParams{Enabled: true, X: 8}
			ctrl := &breakAt{step: 2}
			s, err := sim.New(p, sim.WithController(ctrl))
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Run(context.Background(), 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(ctrl.calls).To(Equal([]int{0, 1, 2, 3}))
			Expect(s.DamIntact()).To(BeFalse())
		})

		It("stops on a controller error", func() {
			boom := errors.New("boom")
			s, err := sim.New(quiet(1), sim.WithController(&breakAt{step: -1, err: boom}))
			Expect(err).NotTo(HaveOccurred())

			res, err := s.Run(context.Background(), 4)
			Expect(err).To(MatchError(boom))
			Expect(res.Steps).To(BeZero())
		})

		It("reports phases in order", func() {
			rec := &phaseLog{}
			s, err := sim.New(quiet(2), sim.WithPhaseRecorder(rec))
			Expect(err).NotTo(HaveOccurred())

			s.Step()
			Expect(rec.events).To(Equal([]string{
				"tick",
				dynamo.PhaseIntegrate,
				dynamo.PhaseGrid,
				dynamo.PhaseDensity,
				dynamo.PhaseAcceleration,
				dynamo.PhaseVelocity,
				"end",
			}))
		})
	})
})
