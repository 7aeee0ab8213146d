package integrators

import (
	"github.com/san-kum/sphfluid/internal/dynamo"

	"gonum.org/v1/gonum/spatial/r2"
)

// Verlet is velocity Verlet with the velocity kick averaged over the
// current and previous total acceleration.
type Verlet struct {
	Gravity
	dt float64
}

func NewVerlet(dt float64, g Gravity) *Verlet {
	return &Verlet{Gravity: g, dt: dt}
}

func (v *Verlet) Name() string { return "verlet" }
func (v *Verlet) Dt() float64  { return v.dt }

func (v *Verlet) Position(p *dynamo.Particle) {
	acc := r2.Add(v.Vector(), p.Acceleration)
	p.Position = r2.Add(p.Position, r2.Add(
		r2.Scale(v.dt, p.Velocity),
		r2.Scale(0.5*v.dt*v.dt, acc),
	))
}

func (v *Verlet) Velocity(p *dynamo.Particle) {
	acc := r2.Add(v.Vector(), p.Acceleration)
	p.Velocity = r2.Add(p.Velocity, r2.Scale(0.5*v.dt, r2.Add(acc, p.PreviousAcceleration)))
	p.PreviousAcceleration = acc
}
