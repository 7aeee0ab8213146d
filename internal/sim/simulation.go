package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/san-kum/sphfluid/internal/collision"
	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/grid"
	"github.com/san-kum/sphfluid/internal/integrators"
	"github.com/san-kum/sphfluid/internal/kernels"
	"github.com/san-kum/sphfluid/internal/physics"

	"gonum.org/v1/gonum/spatial/r2"
)

// Simulation owns the particles and advances them one fixed timestep at a
// time. It is not safe for concurrent use: Step and the control methods
// must be called from a single goroutine.
type Simulation struct {
	params      Params
	particles   []dynamo.Particle
	grid        *grid.Grid
	interaction physics.Interaction
	attractor   physics.Attractor
	integrator  integrators.Integrator
	reactor     collision.Reactor
	workers     int

	step int
	time float64

	observers  []dynamo.Observer
	metrics    []dynamo.Metric
	recorder   dynamo.PhaseRecorder
	controller Controller
	logger     *slog.Logger
}

// Result summarises a headless run.
type Result struct {
	Steps   int
	Time    float64
	Metrics map[string]float64
}

// New validates p and builds a simulation with every particle at rest.
func New(p Params, opts ...Option) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	cfg := settings{recorder: noopRecorder{}, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.positions != nil && len(cfg.positions) != p.Count {
		return nil, dynamo.Invalid("positions", len(cfg.positions), "length must equal count")
	}
	if cfg.velocities != nil && len(cfg.velocities) != p.Count {
		return nil, dynamo.Invalid("velocities", len(cfg.velocities), "length must equal count")
	}

	set, err := kernels.Lookup(p.Kernel)
	if err != nil {
		return nil, err
	}
	integ, err := integrators.New(p.Integrator, p.Dt, p.Gravity, p.GravityOn)
	if err != nil {
		return nil, err
	}
	g, err := grid.New(p.Width, p.Height, p.SmoothingRadius, p.Count)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		params:    p,
		particles: make([]dynamo.Particle, p.Count),
		grid:      g,
		interaction: physics.Interaction{
			PressureMultiplier: p.PressureMultiplier,
			TargetDensity:      p.TargetDensity,
			SmoothingRadius:    p.SmoothingRadius,
			Viscosity:          p.Viscosity,
			Kernels:            set,
		},
		attractor: physics.Attractor{
			Position: r2.Vec{X: p.Width / 2, Y: p.Height / 2},
			Radius:   p.Attractor.Radius,
			Pull:     p.Attractor.Pull,
			Damping:  p.Attractor.Damping,
		},
		integrator: integ,
		reactor: collision.Reactor{
			Box:    collision.Box{Width: p.Width, Height: p.Height},
			Radius: p.ParticleRadius,
		},
		workers:    dynamo.Workers(p.Workers),
		observers:  cfg.observers,
		metrics:    cfg.metrics,
		recorder:   cfg.recorder,
		controller: cfg.controller,
		logger:     cfg.logger,
	}
	if p.Dam.Enabled {
		s.reactor.Obstacles = append(s.reactor.Obstacles, collision.NewDam(p.Dam.X))
	}
	if p.Obstacle.Enabled {
		s.reactor.Obstacles = append(s.reactor.Obstacles, collision.NewRectangle(p.Obstacle.Min(), p.Obstacle.Max()))
	}

	s.spawn(cfg.positions, cfg.velocities)

	s.grid.Rebuild(s.particles)
	s.forEach(func(i int) {
		s.particles[i].Density = s.interaction.Density(i, s.particles, s.grid)
	})

	s.logger.Debug("simulation created",
		"particles", p.Count,
		"integrator", integ.Name(),
		"kernel", set.Name,
		"grid", [2]int{g.Columns(), g.Rows()},
		"workers", s.workers,
		"seed", p.Seed,
	)
	return s, nil
}

func (s *Simulation) spawn(positions, velocities []r2.Vec) {
	rng := rand.New(rand.NewPCG(uint64(s.params.Seed), uint64(s.params.Count)))
	sp := s.params.Spawn
	for i := range s.particles {
		p := &s.particles[i]
		p.Mass = s.params.Mass
		if positions != nil {
			p.Position = positions[i]
		} else {
			p.Position = r2.Vec{
				X: sp.MinX + rng.Float64()*(sp.MaxX-sp.MinX),
				Y: sp.MinY + rng.Float64()*(sp.MaxY-sp.MinY),
			}
		}
		if velocities != nil {
			p.Velocity = velocities[i]
		}
	}
}

func (s *Simulation) forEach(fn func(i int)) {
	dynamo.ParallelFor(len(s.particles), dynamo.DefaultMinChunk, s.workers, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// Step advances the simulation by one Dt. Each phase completes for every
// particle before the next begins.
func (s *Simulation) Step() {
	ps := s.particles
	step := s.step

	s.recorder.StartTick()

	s.recorder.StartPhase(dynamo.PhaseIntegrate)
	s.forEach(func(i int) {
		s.integrator.Position(&ps[i])
		s.reactor.Apply(&ps[i])
	})

	s.recorder.StartPhase(dynamo.PhaseGrid)
	s.grid.Rebuild(ps)

	s.recorder.StartPhase(dynamo.PhaseDensity)
	s.forEach(func(i int) {
		ps[i].Density = s.interaction.Density(i, ps, s.grid)
	})

	s.recorder.StartPhase(dynamo.PhaseAcceleration)
	s.forEach(func(i int) {
		acc := s.interaction.Acceleration(i, ps, s.grid, step)
		acc = r2.Add(acc, s.attractor.Acceleration(ps[i]))
		ps[i].Acceleration = acc
	})

	s.recorder.StartPhase(dynamo.PhaseVelocity)
	s.forEach(func(i int) {
		s.integrator.Velocity(&ps[i])
	})

	s.recorder.EndTick()

	s.step++
	s.time += s.integrator.Dt()

	if len(s.metrics) == 0 && len(s.observers) == 0 {
		return
	}
	v := s.View()
	for _, m := range s.metrics {
		m.Observe(v, s.time)
	}
	for _, o := range s.observers {
		o.OnStep(s.step, s.time, v)
	}
}

// Run steps the simulation headlessly, checking ctx between steps and
// consulting the controller, if any, before each one. Metrics are reset
// first and their final values reported in the result.
func (s *Simulation) Run(ctx context.Context, steps int) (*Result, error) {
	if steps < 0 {
		return nil, dynamo.Invalid("steps", steps, "must not be negative")
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{Metrics: make(map[string]float64, len(s.metrics))}
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			result.Time = s.time
			return result, ctx.Err()
		default:
		}
		if s.controller != nil {
			if err := s.controller.Apply(s, s.step); err != nil {
				result.Time = s.time
				return result, fmt.Errorf("step %d: %w", s.step, err)
			}
		}
		s.Step()
		result.Steps++
	}
	result.Time = s.time

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	s.logger.Debug("run finished", "steps", result.Steps, "time", result.Time)
	return result, nil
}

// View returns a read-only view of the particles. It reflects later steps.
func (s *Simulation) View() dynamo.View {
	return dynamo.NewView(s.particles)
}

func (s *Simulation) ToggleGravity() {
	s.integrator.ToggleGravity()
	s.logger.Debug("gravity toggled", "on", s.integrator.GravityOn())
}

// BreakDam removes the dam permanently. Further calls do nothing.
func (s *Simulation) BreakDam() {
	if !s.reactor.DamIntact() {
		return
	}
	s.reactor.BreakDam()
	s.logger.Debug("dam broken", "step", s.step)
}

func (s *Simulation) SetAttractorActive(active bool) {
	s.attractor.Active = active
}

func (s *Simulation) SetAttractorPosition(x, y float64) {
	s.attractor.Position = r2.Vec{X: x, Y: y}
}

// MoveObstacle shifts the rectangle obstacle, if any, and reports whether it
// moved. Moves that would take it outside the box are refused.
func (s *Simulation) MoveObstacle(dx, dy float64) bool {
	return s.reactor.MoveObstacle(dx, dy)
}

func (s *Simulation) StepCount() int               { return s.step }
func (s *Simulation) Time() float64                { return s.time }
func (s *Simulation) GravityOn() bool              { return s.integrator.GravityOn() }
func (s *Simulation) DamIntact() bool              { return s.reactor.DamIntact() }
func (s *Simulation) Attractor() physics.Attractor { return s.attractor }
func (s *Simulation) Params() Params               { return s.params }

// Obstacles returns copies of the current obstacles.
func (s *Simulation) Obstacles() []collision.Obstacle {
	out := make([]collision.Obstacle, len(s.reactor.Obstacles))
	for i, o := range s.reactor.Obstacles {
		out[i] = *o
	}
	return out
}

// PressureOf exposes the equation of state for telemetry.
func (s *Simulation) PressureOf(density float64) float64 {
	return s.interaction.PressureOf(density)
}
