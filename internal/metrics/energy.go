package metrics

import "github.com/san-kum/sphfluid/internal/dynamo"

// Energy averages total kinetic energy over observed steps.
type Energy struct {
	name    string
	samples int
	total   float64
	last    float64
}

func NewEnergy() *Energy {
	return &Energy{name: "kinetic_energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(v dynamo.View, t float64) {
	e.last = KineticEnergy(v)
	e.total += e.last
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

// Last is the kinetic energy at the most recent observation.
func (e *Energy) Last() float64 { return e.last }

func (e *Energy) Reset() {
	e.total = 0
	e.last = 0
	e.samples = 0
}

// Compression tracks the worst ratio of particle density to the target
// density seen so far. A weakly compressible fluid should stay near 1.
type Compression struct {
	name   string
	target float64
	worst  float64
}

func NewCompression(targetDensity float64) *Compression {
	return &Compression{name: "max_compression", target: targetDensity}
}

func (c *Compression) Name() string { return c.name }

func (c *Compression) Observe(v dynamo.View, t float64) {
	if c.target <= 0 {
		return
	}
	if r := MaxDensity(v) / c.target; r > c.worst {
		c.worst = r
	}
}

func (c *Compression) Value() float64 { return c.worst }
func (c *Compression) Reset()         { c.worst = 0 }
