// Package optim searches fluid parameter grids for the setting that
// minimizes a run metric.
package optim

import (
	"context"
	"fmt"
	"iter"
	"math"

	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/sim"
)

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

// NewGridSearch searches the cartesian product of ranges; ranges[i] holds
// the candidate values of params[i].
func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, dynamo.Invalid("params", params, "need one value range per parameter")
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, dynamo.Invalid("range", params[i], "must not be empty")
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Search runs build(point) for steps at every grid point and keeps the one
// with the smallest metricName. Points whose simulation fails to build, or
// that leave the metric NaN, are recorded as failed trials and skipped.
// Cancellation stops the search with ctx's error.
func (g *GridSearch) Search(
	ctx context.Context,
	build func(point map[string]float64) (*sim.Simulation, error),
	steps int,
	metricName string,
) (map[string]float64, float64, []Trial, error) {
	best := math.Inf(1)
	var bestParams map[string]float64
	var trials []Trial

	for point := range g.points() {
		if err := ctx.Err(); err != nil {
			return bestParams, best, trials, err
		}

		trial := Trial{Params: point, Value: math.NaN()}
		s, err := build(point)
		if err != nil {
			trial.Err = err
			trials = append(trials, trial)
			continue
		}
		result, err := s.Run(ctx, steps)
		if err != nil {
			return bestParams, best, trials, err
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return bestParams, best, trials, fmt.Errorf("metric %q not recorded", metricName)
		}
		trial.Value = val
		trials = append(trials, trial)

		if val < best {
			best = val
			bestParams = point
		}
	}

	return bestParams, best, trials, nil
}

// points yields every grid point in row-major order, the last parameter
// varying fastest. Each yielded map is fresh.
func (g *GridSearch) points() iter.Seq[map[string]float64] {
	return func(yield func(map[string]float64) bool) {
		idx := make([]int, len(g.ranges))
		for {
			point := make(map[string]float64, len(g.paramNames))
			for d, name := range g.paramNames {
				point[name] = g.ranges[d][idx[d]]
			}
			if !yield(point) {
				return
			}

			d := len(idx) - 1
			for ; d >= 0; d-- {
				idx[d]++
				if idx[d] < len(g.ranges[d]) {
					break
				}
				idx[d] = 0
			}
			if d < 0 {
				return
			}
		}
	}
}
