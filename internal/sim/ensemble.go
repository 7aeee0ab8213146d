package sim

import (
	"context"
	"sync"

	"github.com/san-kum/sphfluid/internal/dynamo"
)

// Ensemble runs the same parameters under consecutive seeds concurrently.
// Each member gets its own Simulation, single-threaded inside.
type Ensemble struct {
	base      Params
	numRuns   int
	seedStart int64
	metrics   func() []dynamo.Metric
}

// NewEnsemble prepares numRuns members seeded seedStart, seedStart+1, ...
// metrics, if non-nil, is called once per member to build fresh metric
// instances.
func NewEnsemble(p Params, numRuns int, seedStart int64, metrics func() []dynamo.Metric) *Ensemble {
	return &Ensemble{base: p, numRuns: numRuns, seedStart: seedStart, metrics: metrics}
}

// Run advances every member by steps and returns their results in seed order.
func (e *Ensemble) Run(ctx context.Context, steps int) ([]*Result, error) {
	if e.numRuns <= 0 {
		return nil, dynamo.Invalid("runs", e.numRuns, "must be positive")
	}
	if err := e.base.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			p := e.base
			p.Seed = e.seedStart + int64(idx)
			p.Workers = 1

			var opts []Option
			if e.metrics != nil {
				for _, m := range e.metrics() {
					opts = append(opts, WithMetric(m))
				}
			}

			s, err := New(p, opts...)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, steps)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
