// Package dynamo provides the shared primitives of the fluid simulation.
//
// The package defines the types every other simulation package agrees on:
//
//   - [Particle]: one fluid particle, addressed by its index in a fixed slice
//   - [View]: read-only window onto the particle slice handed to consumers
//   - [Metric], [Observer], [PhaseRecorder]: hooks driven by the step loop
//   - [ParallelFor]: fork-join helper used by every per-particle phase
//
// # Thread Safety
//
// A particle slice is owned by exactly one simulation. Within a phase each
// goroutine writes only the particles in its own index range; phases are
// separated by the join in [ParallelFor].
package dynamo
