// Package analysis characterizes recorded and live fluid runs.
//
//   - [Spectrum] and [DominantFrequency]: amplitude spectrum of a telemetry
//     series, e.g. the sloshing period of kinetic energy after a dam break
//   - [Divergence]: growth rate of the separation between two runs that
//     start one particle apart
//
// # Sensitivity
//
// A positive divergence rate means small input differences grow:
//
//	rate, err := analysis.Divergence(ctx, params, 1e-6, 600)
//	if err == nil && rate > 0 {
//	    // runs are sensitive to initial conditions
//	}
package analysis
