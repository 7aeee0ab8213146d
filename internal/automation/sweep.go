package automation

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/sim"
)

// ParameterSweep runs one simulation per value of a single fluid parameter.
type ParameterSweep struct {
	Base      sim.Params
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Steps     int
}

// SweepResult holds the final metric values for one parameter value.
type SweepResult struct {
	ParamValue float64
	Steps      int
	Metrics    map[string]float64
}

var setters = map[string]func(*sim.Params, float64){
	"viscosity":           func(p *sim.Params, v float64) { p.Viscosity = v },
	"pressure_multiplier": func(p *sim.Params, v float64) { p.PressureMultiplier = v },
	"target_density":      func(p *sim.Params, v float64) { p.TargetDensity = v },
	"smoothing_radius":    func(p *sim.Params, v float64) { p.SmoothingRadius = v },
	"gravity":             func(p *sim.Params, v float64) { p.Gravity = v },
	"dt":                  func(p *sim.Params, v float64) { p.Dt = v },
}

// SetParam assigns one sweepable parameter by name.
func SetParam(p *sim.Params, name string, value float64) error {
	set, ok := setters[name]
	if !ok {
		return dynamo.Invalid("param", name, "not sweepable")
	}
	set(p, value)
	return nil
}

// SweepParams lists the parameters a sweep can vary.
func SweepParams() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunSweep executes the sweep serially. newMetrics is called once per
// point to build fresh metrics for that run.
func RunSweep(ctx context.Context, sweep *ParameterSweep, newMetrics func() []dynamo.Metric) ([]SweepResult, error) {
	set, ok := setters[sweep.ParamName]
	if !ok {
		return nil, dynamo.Invalid("param", sweep.ParamName, "not sweepable")
	}
	if sweep.NumSteps < 2 {
		return nil, dynamo.Invalid("points", sweep.NumSteps, "need at least two")
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep
		p := sweep.Base
		set(&p, paramVal)

		var opts []sim.Option
		if newMetrics != nil {
			for _, m := range newMetrics() {
				opts = append(opts, sim.WithMetric(m))
			}
		}

		s, err := sim.New(p, opts...)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}
		res, err := s.Run(ctx, sweep.Steps)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			Steps:      res.Steps,
			Metrics:    res.Metrics,
		})
	}

	return results, nil
}
