// Package kernels implements the 2D SPH smoothing kernels.
//
// Every kernel has compact support: it is zero for distance >= radius.
// The density kernels and their slopes reach zero continuously at the
// support boundary, so forces do not jump as particles cross it.
package kernels

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/sphfluid/internal/dynamo"
)

// Spiky is the density kernel 10/(pi h^5) (h-r)^3.
func Spiky(r, h float64) float64 {
	if r >= h {
		return 0
	}
	d := h - r
	return 10.0 / (math.Pi * math.Pow(h, 5)) * d * d * d
}

// SpikyDerivative is dW/dr of Spiky. It is negative inside the support and
// well defined at r = 0.
func SpikyDerivative(r, h float64) float64 {
	if r >= h {
		return 0
	}
	d := h - r
	return -30.0 / (math.Pi * math.Pow(h, 5)) * d * d
}

// Poly6 is the density kernel 4/(pi h^8) (h^2-r^2)^3.
func Poly6(r, h float64) float64 {
	if r >= h {
		return 0
	}
	d := h*h - r*r
	return 4.0 / (math.Pi * math.Pow(h, 8)) * d * d * d
}

// Poly6Derivative is dW/dr of Poly6. It is exactly zero at r = 0.
func Poly6Derivative(r, h float64) float64 {
	if r >= h {
		return 0
	}
	d := h*h - r*r
	return -24.0 * r / (math.Pi * math.Pow(h, 8)) * d * d
}

// ViscosityLaplacian is the Laplacian of the viscosity kernel, 40/(pi h^5) (h-r).
func ViscosityLaplacian(r, h float64) float64 {
	if r >= h {
		return 0
	}
	return 40.0 / (math.Pi * math.Pow(h, 5)) * (h - r)
}

// Func evaluates a kernel at distance r for smoothing radius h.
type Func func(r, h float64) float64

// Set bundles the kernels used by one interaction model.
type Set struct {
	Name      string
	Density   Func
	Slope     Func
	Viscosity Func
}

const DefaultName = "spiky"

var sets = map[string]Set{
	"spiky": {Name: "spiky", Density: Spiky, Slope: SpikyDerivative, Viscosity: ViscosityLaplacian},
	"poly6": {Name: "poly6", Density: Poly6, Slope: Poly6Derivative, Viscosity: ViscosityLaplacian},
}

// Lookup returns the kernel set registered under name. An empty name
// selects the spiky set.
func Lookup(name string) (Set, error) {
	if name == "" {
		name = DefaultName
	}
	s, ok := sets[name]
	if !ok {
		return Set{}, fmt.Errorf("%w: %s", dynamo.ErrUnknownKernel, name)
	}
	return s, nil
}

// Names lists the registered kernel sets in sorted order.
func Names() []string {
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
