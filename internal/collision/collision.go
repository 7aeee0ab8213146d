// Package collision resolves particle contact with the container walls and
// with static obstacles. Every contact is perfectly reflective: the particle
// is clamped to the contact plane offset by its radius and the velocity
// component normal to that plane is negated.
package collision

import (
	"fmt"

	"github.com/san-kum/sphfluid/internal/dynamo"

	"gonum.org/v1/gonum/spatial/r2"
)

// Box is the container spanning [0, Width] x [0, Height].
type Box struct {
	Width  float64
	Height float64
}

// Apply keeps p at least radius away from each wall.
func (b Box) Apply(p *dynamo.Particle, radius float64) {
	if p.Position.X < radius {
		p.Position.X = radius
		p.Velocity.X = -p.Velocity.X
	}
	if p.Position.X > b.Width-radius {
		p.Position.X = b.Width - radius
		p.Velocity.X = -p.Velocity.X
	}
	if p.Position.Y < radius {
		p.Position.Y = radius
		p.Velocity.Y = -p.Velocity.Y
	}
	if p.Position.Y > b.Height-radius {
		p.Position.Y = b.Height - radius
		p.Velocity.Y = -p.Velocity.Y
	}
}

// Contains reports whether pos lies inside the box, edges included.
func (b Box) Contains(pos r2.Vec) bool {
	return pos.X >= 0 && pos.X <= b.Width && pos.Y >= 0 && pos.Y <= b.Height
}

// Kind selects the obstacle variant.
type Kind int

const (
	// Dam is a vertical plane holding fluid on its left until broken.
	Dam Kind = iota
	// Rectangle is a solid axis-aligned block.
	Rectangle
)

func (k Kind) String() string {
	switch k {
	case Dam:
		return "dam"
	case Rectangle:
		return "rectangle"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Obstacle is one of the closed set of obstacle variants. X is used by
// Dam, Min and Max by Rectangle.
type Obstacle struct {
	Kind   Kind
	X      float64
	Min    r2.Vec
	Max    r2.Vec
	broken bool
}

func NewDam(x float64) *Obstacle {
	return &Obstacle{Kind: Dam, X: x}
}

func NewRectangle(lo, hi r2.Vec) *Obstacle {
	return &Obstacle{Kind: Rectangle, Min: lo, Max: hi}
}

// Apply resolves contact between p and the obstacle. A rectangle never
// pushes p through a face whose exit plane lies outside box.
func (o *Obstacle) Apply(p *dynamo.Particle, radius float64, box Box) {
	switch o.Kind {
	case Dam:
		o.applyDam(p, radius)
	case Rectangle:
		o.applyRectangle(p, radius, box)
	}
}

// Break removes a dam for good. Breaking twice, or breaking a rectangle,
// does nothing.
func (o *Obstacle) Break() {
	if o.Kind == Dam {
		o.broken = true
	}
}

// Intact reports whether the obstacle still blocks particles.
func (o *Obstacle) Intact() bool {
	return !o.broken
}

// Translate shifts a rectangle by (dx, dy) unless that would move any part
// of it outside box. It reports whether the obstacle moved.
func (o *Obstacle) Translate(dx, dy float64, box Box) bool {
	if o.Kind != Rectangle {
		return false
	}
	shift := r2.Vec{X: dx, Y: dy}
	lo, hi := r2.Add(o.Min, shift), r2.Add(o.Max, shift)
	if !box.Contains(lo) || !box.Contains(hi) {
		return false
	}
	o.Min, o.Max = lo, hi
	return true
}

func (o *Obstacle) applyDam(p *dynamo.Particle, radius float64) {
	if o.broken {
		return
	}
	if p.Position.X > o.X-radius {
		p.Position.X = o.X - radius
		p.Velocity.X = -p.Velocity.X
	}
}

// applyRectangle pushes a particle found inside the radius-inflated block
// out through the face it is closest to. The penetration fraction past a
// face grows toward the opposite face, so the largest fraction names the
// exit. Faces whose exit plane is beyond the reach of the box walls are
// skipped; a block flush with a wall is only left through its open faces.
func (o *Obstacle) applyRectangle(p *dynamo.Particle, radius float64, box Box) {
	lo := r2.Vec{X: o.Min.X - radius, Y: o.Min.Y - radius}
	hi := r2.Vec{X: o.Max.X + radius, Y: o.Max.Y + radius}
	pos := p.Position
	if !(pos.X > lo.X && pos.X < hi.X && pos.Y > lo.Y && pos.Y < hi.Y) {
		return
	}

	pastLeft := (pos.X - lo.X) / (hi.X - lo.X)
	pastTop := (pos.Y - lo.Y) / (hi.Y - lo.Y)
	fractions := [4]float64{pastLeft, 1 - pastLeft, pastTop, 1 - pastTop}
	open := [4]bool{
		hi.X <= box.Width-radius,
		lo.X >= radius,
		hi.Y <= box.Height-radius,
		lo.Y >= radius,
	}

	exit := deepest(fractions, open)
	if exit < 0 {
		// the block spans the box; nothing better than the deepest face
		exit = deepest(fractions, [4]bool{true, true, true, true})
	}

	switch exit {
	case 0: // right face
		p.Position.X = hi.X
		p.Velocity.X = -p.Velocity.X
	case 1: // left face
		p.Position.X = lo.X
		p.Velocity.X = -p.Velocity.X
	case 2: // bottom face
		p.Position.Y = hi.Y
		p.Velocity.Y = -p.Velocity.Y
	case 3: // top face
		p.Position.Y = lo.Y
		p.Velocity.Y = -p.Velocity.Y
	}
}

// deepest returns the index of the first largest fraction among the open
// faces, or -1 when none is open.
func deepest(fractions [4]float64, open [4]bool) int {
	exit := -1
	for i, f := range fractions {
		if !open[i] {
			continue
		}
		if exit < 0 || f > fractions[exit] {
			exit = i
		}
	}
	return exit
}
