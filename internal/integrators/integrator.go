package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/sphfluid/internal/dynamo"

	"gonum.org/v1/gonum/spatial/r2"
)

// Integrator advances particles by one fixed timestep. Position runs at
// the start of a step with the acceleration of the previous step; Velocity
// runs at the end, after the new acceleration is known.
type Integrator interface {
	Name() string
	Position(p *dynamo.Particle)
	Velocity(p *dynamo.Particle)
	ToggleGravity()
	GravityOn() bool
	Dt() float64
}

// Gravity is a toggleable downward acceleration. Screen convention: +y is down.
type Gravity struct {
	Magnitude float64
	On        bool
}

func (g *Gravity) ToggleGravity()  { g.On = !g.On }
func (g *Gravity) GravityOn() bool { return g.On }

// Vector returns the gravity acceleration, zero when switched off.
func (g *Gravity) Vector() r2.Vec {
	if !g.On {
		return r2.Vec{}
	}
	return r2.Vec{Y: g.Magnitude}
}

const DefaultName = "verlet"

var registry = map[string]func(dt float64, g Gravity) Integrator{
	"verlet": func(dt float64, g Gravity) Integrator { return NewVerlet(dt, g) },
	"euler":  func(dt float64, g Gravity) Integrator { return NewEuler(dt, g) },
}

// New builds the named integrator. An empty name selects Verlet.
func New(name string, dt, gravity float64, gravityOn bool) (Integrator, error) {
	if name == "" {
		name = DefaultName
	}
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownIntegrator, name)
	}
	return ctor(dt, Gravity{Magnitude: gravity, On: gravityOn}), nil
}

// Names lists the registered integrators in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
