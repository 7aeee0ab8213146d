package dynamo

import (
	"iter"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Particle is a single fluid particle. Its identity is its index in the
// simulation's particle slice.
type Particle struct {
	Position             r2.Vec
	Velocity             r2.Vec
	Acceleration         r2.Vec
	PreviousAcceleration r2.Vec
	Mass                 float64
	Density              float64
	CellKey              int
}

// Speed returns the magnitude of the particle velocity.
func (p Particle) Speed() float64 {
	return r2.Norm(p.Velocity)
}

// IsFinite reports whether position and velocity are free of NaN and Inf.
func (p Particle) IsFinite() bool {
	for _, v := range [...]float64{p.Position.X, p.Position.Y, p.Velocity.X, p.Velocity.Y, p.Density} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// View is a read-only window onto a particle slice. Accessors return
// copies, so holders of a View cannot mutate simulation state.
type View struct {
	particles []Particle
}

func NewView(particles []Particle) View {
	return View{particles: particles}
}

func (v View) Len() int                  { return len(v.particles) }
func (v View) At(i int) Particle         { return v.particles[i] }
func (v View) Position(i int) r2.Vec     { return v.particles[i].Position }
func (v View) Velocity(i int) r2.Vec     { return v.particles[i].Velocity }
func (v View) Density(i int) float64     { return v.particles[i].Density }
func (v View) Mass(i int) float64        { return v.particles[i].Mass }
func (v View) Acceleration(i int) r2.Vec { return v.particles[i].Acceleration }

// All iterates over index/particle pairs in index order.
func (v View) All() iter.Seq2[int, Particle] {
	return func(yield func(int, Particle) bool) {
		for i, p := range v.particles {
			if !yield(i, p) {
				return
			}
		}
	}
}

// Snapshot copies the viewed particles into dst, growing it if needed.
func (v View) Snapshot(dst []Particle) []Particle {
	dst = append(dst[:0], v.particles...)
	return dst
}

// Metric accumulates a scalar over observed steps.
type Metric interface {
	Name() string
	Observe(v View, t float64)
	Value() float64
	Reset()
}

// Observer is notified after every completed step.
type Observer interface {
	OnStep(step int, t float64, v View)
}

// PhaseRecorder receives timing boundaries for the phases of a step.
type PhaseRecorder interface {
	StartTick()
	StartPhase(name string)
	EndTick()
}

// Step phase names, in execution order.
const (
	PhaseIntegrate    = "integrate"
	PhaseGrid         = "grid"
	PhaseDensity      = "density"
	PhaseAcceleration = "acceleration"
	PhaseVelocity     = "velocity"
)
