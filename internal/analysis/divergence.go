package analysis

import (
	"context"
	"math"

	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/sim"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// Divergence runs p twice, the second time with particle 0 shifted right
// by perturbation, and fits ln(d(t)/d0) against t, where d is the
// root-sum-square position difference over all particles. The slope
// estimates the largest growth rate of small differences.
//
// Steps at which the runs coincide exactly are left out of the fit.
func Divergence(ctx context.Context, p sim.Params, perturbation float64, steps int) (float64, error) {
	if !(perturbation > 0) {
		return 0, dynamo.Invalid("perturbation", perturbation, "must be positive")
	}
	if steps < 2 {
		return 0, dynamo.Invalid("steps", steps, "need at least two")
	}

	base, err := sim.New(p)
	if err != nil {
		return 0, err
	}
	view := base.View()
	positions := make([]r2.Vec, view.Len())
	for i := range positions {
		positions[i] = view.Position(i)
	}
	positions[0].X += perturbation

	shifted, err := sim.New(p, sim.WithPositions(positions))
	if err != nil {
		return 0, err
	}

	times := make([]float64, 0, steps)
	logs := make([]float64, 0, steps)
	for range steps {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		base.Step()
		shifted.Step()

		d := separation(base.View(), shifted.View())
		if d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d) {
			times = append(times, base.Time())
			logs = append(logs, math.Log(d/perturbation))
		}
	}

	if len(times) < 2 {
		return 0, ErrShortSeries
	}
	_, slope := stat.LinearRegression(times, logs, nil, false)
	return slope, nil
}

func separation(a, b dynamo.View) float64 {
	sum := 0.0
	for i := range a.Len() {
		sum += r2.Norm2(r2.Sub(a.Position(i), b.Position(i)))
	}
	return math.Sqrt(sum)
}
