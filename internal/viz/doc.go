// Package viz renders a running fluid simulation in the terminal.
//
// [Model] is a Bubble Tea model that steps the simulation on a timer and
// draws particles, the dam, the rectangle obstacle and the attractor on a
// braille [Canvas]. A sidebar shows a kinetic energy chart and density
// statistics.
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	N       - Single step while paused
//	G       - Toggle gravity
//	B       - Break the dam
//	A       - Toggle the attractor
//	Arrows  - Move the attractor
//	I/J/K/L - Move the obstacle up/left/down/right
//	Q       - Quit
//
// Holding the left mouse button over the canvas activates the attractor at
// the pointer; releasing it deactivates the attractor.
package viz
