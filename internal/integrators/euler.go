package integrators

import (
	"github.com/san-kum/sphfluid/internal/dynamo"

	"gonum.org/v1/gonum/spatial/r2"
)

// Euler is semi-implicit Euler: the velocity kick lands first and the
// position drift of the next step uses the updated velocity.
type Euler struct {
	Gravity
	dt float64
}

func NewEuler(dt float64, g Gravity) *Euler {
	return &Euler{Gravity: g, dt: dt}
}

func (e *Euler) Name() string { return "euler" }
func (e *Euler) Dt() float64  { return e.dt }

func (e *Euler) Position(p *dynamo.Particle) {
	p.Position = r2.Add(p.Position, r2.Scale(e.dt, p.Velocity))
}

func (e *Euler) Velocity(p *dynamo.Particle) {
	acc := r2.Add(e.Vector(), p.Acceleration)
	p.Velocity = r2.Add(p.Velocity, r2.Scale(e.dt, acc))
	p.PreviousAcceleration = acc
}
