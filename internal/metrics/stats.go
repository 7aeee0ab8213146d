package metrics

import (
	"math"

	"github.com/san-kum/sphfluid/internal/dynamo"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// KineticEnergy is the total 1/2 m |v|^2 over all particles.
func KineticEnergy(v dynamo.View) float64 {
	ke := 0.0
	for _, p := range v.All() {
		ke += 0.5 * p.Mass * r2.Norm2(p.Velocity)
	}
	return ke
}

// DensityStats returns the mean and sample standard deviation of particle
// density. The deviation is zero for fewer than two particles.
func DensityStats(v dynamo.View) (mean, std float64) {
	n := v.Len()
	if n == 0 {
		return 0, 0
	}
	densities := make([]float64, n)
	for i := range densities {
		densities[i] = v.Density(i)
	}
	if n == 1 {
		return densities[0], 0
	}
	return stat.MeanStdDev(densities, nil)
}

// MaxDensity returns the largest particle density, or zero for no particles.
func MaxDensity(v dynamo.View) float64 {
	if v.Len() == 0 {
		return 0
	}
	densities := make([]float64, v.Len())
	for i := range densities {
		densities[i] = v.Density(i)
	}
	return floats.Max(densities)
}

// MaxSpeed returns the largest particle speed, or zero for no particles.
func MaxSpeed(v dynamo.View) float64 {
	if v.Len() == 0 {
		return 0
	}
	speeds := make([]float64, v.Len())
	for i, p := range v.All() {
		speeds[i] = p.Speed()
	}
	return floats.Max(speeds)
}

// FiniteFraction is the share of particles whose state has no NaN or Inf.
func FiniteFraction(v dynamo.View) float64 {
	if v.Len() == 0 {
		return 1
	}
	finite := 0
	for _, p := range v.All() {
		if p.IsFinite() {
			finite++
		}
	}
	return float64(finite) / float64(v.Len())
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
