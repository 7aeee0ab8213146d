package physics

import (
	"iter"
	"math"

	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/kernels"

	"gonum.org/v1/gonum/spatial/r2"
)

// Neighborhood enumerates candidate neighbor indices around a position.
// *grid.Grid satisfies it.
type Neighborhood interface {
	Neighbors(pos r2.Vec) iter.Seq[int]
}

// Interaction holds the weakly compressible SPH model constants.
type Interaction struct {
	PressureMultiplier float64
	TargetDensity      float64
	SmoothingRadius    float64
	Viscosity          float64
	Kernels            kernels.Set
}

// PressureOf converts a density into pressure with the linear equation of state.
func (m *Interaction) PressureOf(density float64) float64 {
	return m.PressureMultiplier * (density - m.TargetDensity)
}

func (m *Interaction) sharedPressure(a, b float64) float64 {
	return (m.PressureOf(a) + m.PressureOf(b)) / 2
}

// Density returns the smoothed density at particle i. The self term is
// always included, so the result is positive for positive masses.
func (m *Interaction) Density(i int, ps []dynamo.Particle, nb Neighborhood) float64 {
	h := m.SmoothingRadius
	pi := ps[i].Position
	rho := ps[i].Mass * m.Kernels.Density(0, h)

	for j := range nb.Neighbors(pi) {
		if j == i {
			continue
		}
		d := r2.Norm(r2.Sub(pi, ps[j].Position))
		if d >= h {
			continue
		}
		rho += ps[j].Mass * m.Kernels.Density(d, h)
	}
	return rho
}

// Acceleration returns the pressure plus viscosity acceleration of particle
// i. Densities must be current. step seeds the direction chosen for pairs
// at exactly the same position.
//
// Only position, velocity, mass and density are read, so the result may be
// written to ps[i].Acceleration while other goroutines evaluate other indices.
func (m *Interaction) Acceleration(i int, ps []dynamo.Particle, nb Neighborhood, step int) r2.Vec {
	h := m.SmoothingRadius
	self := &ps[i]
	var sum r2.Vec

	for j := range nb.Neighbors(self.Position) {
		if j == i {
			continue
		}
		other := &ps[j]
		offset := r2.Sub(self.Position, other.Position)
		d := r2.Norm(offset)
		if d >= h {
			continue
		}

		var u r2.Vec
		if d == 0 {
			u = degenerateDirection(i, j, step)
		} else {
			u = r2.Scale(1/d, offset)
		}

		if slope := m.Kernels.Slope(d, h); slope != 0 {
			shared := m.sharedPressure(self.Density, other.Density)
			sum = r2.Add(sum, r2.Scale(-shared*slope*other.Mass/other.Density, u))
		}

		lap := m.Kernels.Viscosity(d, h)
		dv := r2.Sub(other.Velocity, self.Velocity)
		sum = r2.Add(sum, r2.Scale(m.Viscosity*other.Mass*lap/other.Density, dv))
	}

	return r2.Scale(1/self.Density, sum)
}

// degenerateDirection picks a unit vector for two coincident particles. It
// depends only on the unordered pair and the step, and is negated for the
// higher index so both particles are pushed in opposite directions.
func degenerateDirection(i, j, step int) r2.Vec {
	lo, hi := i, j
	if lo > hi {
		lo, hi = hi, lo
	}
	h := splitmix(uint64(lo))
	h = splitmix(h ^ uint64(hi))
	h = splitmix(h ^ uint64(step))

	angle := float64(h>>11) / (1 << 53) * 2 * math.Pi
	u := r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
	if i > j {
		u = r2.Scale(-1, u)
	}
	return u
}

func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
