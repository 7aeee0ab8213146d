package sim_test

import (
	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/sim"
)

// quiet is a 10 x 10 box with no gravity and no obstacles.
func quiet(count int) sim.Params {
	p := sim.DefaultParams()
	p.Width, p.Height = 10, 10
	p.Count = count
	p.GravityOn = false
	p.Dam.Enabled = false
	p.ParticleRadius = 0.5
	p.Dt = 0.01
	p.Spawn = sim.Rect{MinX: 1, MinY: 1, MaxX: 9, MaxY: 9}
	return p
}

type countingMetric struct{ n int }

func (m *countingMetric) Name() string                 { return "count" }
func (m *countingMetric) Observe(dynamo.View, float64) { m.n++ }
func (m *countingMetric) Value() float64               { return float64(m.n) }
func (m *countingMetric) Reset()                       { m.n = 0 }

type stepLog struct{ steps []int }

func (o *stepLog) OnStep(step int, _ float64, _ dynamo.View) { o.steps = append(o.steps, step) }

type phaseLog struct{ events []string }

func (r *phaseLog) StartTick()             { r.events = append(r.events, "tick") }
func (r *phaseLog) StartPhase(name string) { r.events = append(r.events, name) }
func (r *phaseLog) EndTick()               { r.events = append(r.events, "end") }

type breakAt struct {
	step  int
	calls []int
	err   error
}

func (c *breakAt) Apply(s *sim.Simulation, step int) error {
	c.calls = append(c.calls, step)
	if step == c.step {
		s.BreakDam()
	}
	return c.err
}
