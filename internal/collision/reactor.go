package collision

import "github.com/san-kum/sphfluid/internal/dynamo"

// Reactor applies the box and then every obstacle, in order, to a particle.
type Reactor struct {
	Box       Box
	Radius    float64
	Obstacles []*Obstacle
}

// Apply resolves all contacts for p. Safe to call concurrently for
// distinct particles as long as no control method runs at the same time.
func (r *Reactor) Apply(p *dynamo.Particle) {
	r.Box.Apply(p, r.Radius)
	for _, o := range r.Obstacles {
		o.Apply(p, r.Radius, r.Box)
	}
}

// BreakDam breaks every dam. It is idempotent.
func (r *Reactor) BreakDam() {
	for _, o := range r.Obstacles {
		o.Break()
	}
}

// DamIntact reports whether any dam is still standing.
func (r *Reactor) DamIntact() bool {
	for _, o := range r.Obstacles {
		if o.Kind == Dam && o.Intact() {
			return true
		}
	}
	return false
}

// MoveObstacle translates every rectangle by (dx, dy) and reports whether
// any of them moved.
func (r *Reactor) MoveObstacle(dx, dy float64) bool {
	moved := false
	for _, o := range r.Obstacles {
		if o.Translate(dx, dy, r.Box) {
			moved = true
		}
	}
	return moved
}
