// Package physics evaluates the SPH forces acting on fluid particles.
//
//   - [Interaction]: density, pressure and viscosity over a particle's
//     grid neighborhood
//   - [Attractor]: an optional radial force field driven by user input
//
// Both are read-only with respect to the particle slice: they compute a
// value for particle i and leave the write to the caller, so they can be
// evaluated for many particles concurrently between grid rebuilds.
//
// # Sign Convention
//
// Pressure uses the negative kernel gradient with the true (negative)
// kernel derivative. A pair whose shared pressure is positive, meaning
// denser than the target, pushes apart; a negative shared pressure pulls
// the pair together.
package physics
