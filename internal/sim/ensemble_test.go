package sim_test

import (
	"context"

	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/sim"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ensemble", func() {
	It("runs one member per seed with fresh metrics", func() {
		p := quiet(50)
		p.GravityOn = true
		e := sim.NewEnsemble(p, 3, 10, func() []dynamo.Metric {
			return []dynamo.Metric{&countingMetric{}}
		})

		results, err := e.Run(context.Background(), 6)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		for _, r := range results {
			Expect(r.Steps).To(Equal(6))
			Expect(r.Metrics).To(HaveKeyWithValue("count", 6.0))
		}
	})

	It("rejects an empty ensemble", func() {
		_, err := sim.NewEnsemble(quiet(1), 0, 1, nil).Run(context.Background(), 1)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})

	It("propagates invalid parameters", func() {
		p := quiet(1)
		p.Dt = 0
		_, err := sim.NewEnsemble(p, 2, 1, nil).Run(context.Background(), 1)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})
})
