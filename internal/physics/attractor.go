package physics

import (
	"github.com/san-kum/sphfluid/internal/dynamo"

	"gonum.org/v1/gonum/spatial/r2"
)

// Attractor pulls particles toward Position while Active and damps their
// velocity, both fading linearly to zero at Radius.
type Attractor struct {
	Position r2.Vec
	Active   bool
	Radius   float64
	Pull     float64
	Damping  float64
}

// Acceleration returns the attractor contribution for p, already divided
// by the particle density.
func (a *Attractor) Acceleration(p dynamo.Particle) r2.Vec {
	if !a.Active {
		return r2.Vec{}
	}
	toward := r2.Sub(a.Position, p.Position)
	d := r2.Norm(toward)
	if d >= a.Radius {
		return r2.Vec{}
	}

	acc := r2.Scale(-(1-d/a.Radius)*a.Damping, p.Velocity)
	if d > 0 {
		acc = r2.Add(acc, r2.Scale(a.Pull/d, toward))
	}
	return r2.Scale(1/p.Density, acc)
}
