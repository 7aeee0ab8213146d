package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/integrators"
	"github.com/san-kum/sphfluid/internal/kernels"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rect is an axis-aligned region in box coordinates.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func (r Rect) Min() r2.Vec { return r2.Vec{X: r.MinX, Y: r.MinY} }
func (r Rect) Max() r2.Vec { return r2.Vec{X: r.MaxX, Y: r.MaxY} }

func (r Rect) within(w, h float64) bool {
	return r.MinX < r.MaxX && r.MinY < r.MaxY &&
		r.MinX >= 0 && r.MinY >= 0 && r.MaxX <= w && r.MaxY <= h
}

type DamParams struct {
	Enabled bool
	X       float64
}

type ObstacleParams struct {
	Enabled bool
	Rect
}

type AttractorParams struct {
	Radius  float64
	Pull    float64
	Damping float64
}

// Params fixes everything about a simulation at construction time.
type Params struct {
	Width  float64
	Height float64
	Count  int

	SmoothingRadius    float64
	PressureMultiplier float64
	TargetDensity      float64
	Viscosity          float64

	Dt             float64
	Mass           float64
	ParticleRadius float64
	Gravity        float64
	GravityOn      bool
	Integrator     string
	Kernel         string

	Seed    int64
	Workers int

	Spawn     Rect
	Dam       DamParams
	Obstacle  ObstacleParams
	Attractor AttractorParams
}

// DefaultParams is a dam break in a 40 x 30 box.
func DefaultParams() Params {
	return Params{
		Width:  40,
		Height: 30,
		Count:  1200,

		SmoothingRadius:    1,
		PressureMultiplier: 20,
		TargetDensity:      4,
		Viscosity:          0.3,

		Dt:             1.0 / 120,
		Mass:           1,
		ParticleRadius: 0.1,
		Gravity:        9.8,
		GravityOn:      true,
		Integrator:     integrators.DefaultName,
		Kernel:         kernels.DefaultName,

		Seed: 1,

		Spawn:     Rect{MinX: 1, MinY: 8, MaxX: 15, MaxY: 29},
		Dam:       DamParams{Enabled: true, X: 16},
		Attractor: AttractorParams{Radius: 6, Pull: 60, Damping: 4},
	}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// Validate reports the first parameter that cannot produce a working
// simulation. Every error wraps dynamo.ErrInvalidConfig.
func (p Params) Validate() error {
	switch {
	case p.Count <= 0:
		return dynamo.Invalid("count", p.Count, "must be positive")
	case !positive(p.Width):
		return dynamo.Invalid("width", p.Width, "must be positive")
	case !positive(p.Height):
		return dynamo.Invalid("height", p.Height, "must be positive")
	case !positive(p.SmoothingRadius):
		return dynamo.Invalid("smoothing_radius", p.SmoothingRadius, "must be positive")
	case !nonNegative(p.PressureMultiplier):
		return dynamo.Invalid("pressure_multiplier", p.PressureMultiplier, "must not be negative")
	case !nonNegative(p.TargetDensity):
		return dynamo.Invalid("target_density", p.TargetDensity, "must not be negative")
	case !nonNegative(p.Viscosity):
		return dynamo.Invalid("viscosity", p.Viscosity, "must not be negative")
	case !positive(p.Dt):
		return dynamo.Invalid("dt", p.Dt, "must be positive")
	case !positive(p.Mass):
		return dynamo.Invalid("mass", p.Mass, "must be positive")
	case !nonNegative(p.ParticleRadius):
		return dynamo.Invalid("particle_radius", p.ParticleRadius, "must not be negative")
	case 2*p.ParticleRadius >= math.Min(p.Width, p.Height):
		return dynamo.Invalid("particle_radius", p.ParticleRadius, "must be less than half the box")
	case math.IsNaN(p.Gravity) || math.IsInf(p.Gravity, 0):
		return dynamo.Invalid("gravity", p.Gravity, "must be finite")
	case p.Workers < 0:
		return dynamo.Invalid("workers", p.Workers, "must not be negative")
	case !p.Spawn.within(p.Width, p.Height):
		return dynamo.Invalid("spawn", p.Spawn, "must be a non-empty region inside the box")
	case p.Dam.Enabled && !(p.Dam.X > 0 && p.Dam.X <= p.Width):
		return dynamo.Invalid("dam.x", p.Dam.X, "must lie inside the box")
	case p.Obstacle.Enabled && !p.Obstacle.within(p.Width, p.Height):
		return dynamo.Invalid("obstacle", p.Obstacle.Rect, "must be a non-empty region inside the box")
	case !positive(p.Attractor.Radius):
		return dynamo.Invalid("attractor.radius", p.Attractor.Radius, "must be positive")
	case !nonNegative(p.Attractor.Pull):
		return dynamo.Invalid("attractor.pull", p.Attractor.Pull, "must not be negative")
	case !nonNegative(p.Attractor.Damping):
		return dynamo.Invalid("attractor.damping", p.Attractor.Damping, "must not be negative")
	}

	if _, err := kernels.Lookup(p.Kernel); err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrInvalidConfig, err)
	}
	if _, err := integrators.New(p.Integrator, p.Dt, p.Gravity, p.GravityOn); err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrInvalidConfig, err)
	}
	return nil
}
