package sim_test

import (
	"math"

	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Params", func() {
	It("accepts the defaults", func() {
		Expect(sim.DefaultParams().Validate()).To(Succeed())
	})

	DescribeTable("rejects invalid values",
		func(field string, mutate func(*sim.Params)) {
			p := sim.DefaultParams()
			mutate(&p)

			err := p.Validate()
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))

			var cfgErr *dynamo.ConfigError
			Expect(err).To(BeAssignableToTypeOf(cfgErr))
			cfgErr = err.(*dynamo.ConfigError)
			Expect(cfgErr.Field).To(Equal(field))
		},
		Entry("zero count", "count", func(p *sim.Params) { p.Count = 0 }),
		Entry("negative width", "width", func(p *sim.Params) { p.Width = -1 }),
		Entry("infinite height", "height", func(p *sim.Params) { p.Height = math.Inf(1) }),
		Entry("zero smoothing radius", "smoothing_radius", func(p *sim.Params) { p.SmoothingRadius = 0 }),
		Entry("NaN smoothing radius", "smoothing_radius", func(p *sim.Params) { p.SmoothingRadius = math.NaN() }),
		Entry("negative stiffness", "pressure_multiplier", func(p *sim.Params) { p.PressureMultiplier = -1 }),
		Entry("negative viscosity", "viscosity", func(p *sim.Params) { p.Viscosity = -0.1 }),
		Entry("zero dt", "dt", func(p *sim.Params) { p.Dt = 0 }),
		Entry("zero mass", "mass", func(p *sim.Params) { p.Mass = 0 }),
		Entry("radius as wide as the box", "particle_radius", func(p *sim.Params) { p.ParticleRadius = 15 }),
		Entry("NaN gravity", "gravity", func(p *sim.Params) { p.Gravity = math.NaN() }),
		Entry("negative workers", "workers", func(p *sim.Params) { p.Workers = -2 }),
		Entry("inverted spawn", "spawn", func(p *sim.Params) { p.Spawn.MinX, p.Spawn.MaxX = 10, 5 }),
		Entry("spawn outside box", "spawn", func(p *sim.Params) { p.Spawn.MaxY = 31 }),
		Entry("dam outside box", "dam.x", func(p *sim.Params) { p.Dam.X = 50 }),
		Entry("obstacle outside box", "obstacle", func(p *sim.Params) {
			p.Obstacle = sim.ObstacleParams{Enabled: true, Rect: sim.Rect{MinX: 30, MinY: 20, MaxX: 45, MaxY: 25}}
		}),
		Entry("zero attractor radius", "attractor.radius", func(p *sim.Params) { p.Attractor.Radius = 0 }),
	)

	It("ignores the dam and obstacle geometry when they are disabled", func() {
		p := sim.DefaultParams()
		p.Dam = sim.DamParams{X: -5}
		p.Obstacle = sim.ObstacleParams{Rect: sim.Rect{MinX: 5, MaxX: 1}}
		Expect(p.Validate()).To(Succeed())
	})

	It("reports unknown integrators and kernels", func() {
		p := sim.DefaultParams()
		p.Integrator = "rk4"
		err := p.Validate()
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		Expect(err).To(MatchError(dynamo.ErrUnknownIntegrator))

		p = sim.DefaultParams()
		p.Kernel = "gaussian"
		err = p.Validate()
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		Expect(err).To(MatchError(dynamo.ErrUnknownKernel))
	})
})
