package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/sphfluid/internal/analysis"
	"github.com/san-kum/sphfluid/internal/automation"
	"github.com/san-kum/sphfluid/internal/config"
	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/export"
	"github.com/san-kum/sphfluid/internal/metrics"
	"github.com/san-kum/sphfluid/internal/optim"
	"github.com/san-kum/sphfluid/internal/sim"
	"github.com/san-kum/sphfluid/internal/storage"
	"github.com/san-kum/sphfluid/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

const (
	speedLimit          = 100.0
	defaultSampleEvery  = 10
	benchWindowFallback = 120
)

// loadParams resolves the preset named in args (or the default), replaces
// it with --config when given, then applies flag overrides.
func loadParams(cmd *cobra.Command, args []string) (sim.Params, string, error) {
	name := config.DefaultPreset
	if len(args) > 0 {
		name = args[0]
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return sim.Params{}, "", fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return sim.Params{}, "", err
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if integrator != "" {
		cfg.Integrator.Name = integrator
	}
	if kernel != "" {
		cfg.Fluid.Kernel = kernel
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	return cfg.Params(), name, nil
}

func metricSet(p sim.Params) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewEnergy(),
		metrics.NewCompression(p.TargetDensity),
		metrics.NewStability(speedLimit),
	}
}

func withMetrics(ms []dynamo.Metric) []sim.Option {
	opts := make([]sim.Option, 0, len(ms))
	for _, m := range ms {
		opts = append(opts, sim.WithMetric(m))
	}
	return opts
}

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runLive(cmd *cobra.Command, args []string) error {
	p, name, err := loadParams(cmd, args)
	if err != nil {
		return err
	}

	perf := metrics.NewPerfCollector(60)
	s, err := sim.New(p, sim.WithPhaseRecorder(perf), sim.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	slog.Debug("starting viewer", "preset", name, "particles", p.Count)

	return viz.Run(s, viz.Options{
		FPS:           frameRate,
		StepsPerFrame: stepsPerFrame,
		Perf:          perf,
	})
}

func runHeadless(cmd *cobra.Command, args []string) error {
	p, name, err := loadParams(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	rec := metrics.NewRecorder(sampleEvery, 0)
	ms := metricSet(p)
	opts := append(withMetrics(ms), sim.WithObserver(rec), sim.WithLogger(slog.Default()))
	s, err := sim.New(p, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Printf("running %s: %d particles, %d steps...\n", name, p.Count, runSteps)
	start := time.Now()
	result, err := s.Run(ctx, runSteps)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := saveRun(st, name, p, result, rec.Frames())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	printMetrics(result)
	warnUnstable(ms)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	p, err := sc.Params()
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	every := sc.SampleEvery
	if scenarioEvery > 0 {
		every = scenarioEvery
	}
	if every == 0 {
		every = defaultSampleEvery
	}
	rec := metrics.NewRecorder(every, 0)
	ms := metricSet(p)
	opts := append(withMetrics(ms), sim.WithObserver(rec), sim.WithLogger(slog.Default()))

	ctx, cancel := interruptible()
	defer cancel()

	name := sc.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}
	fmt.Printf("running scenario %s: %d steps, %d events...\n", name, sc.Steps, len(sc.Events))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}

	_, result, err := automation.Run(ctx, sc, opts...)
	if err != nil {
		return err
	}

	runID, err := saveRun(st, name, p, result, rec.Frames())
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	printMetrics(result)
	warnUnstable(ms)
	return nil
}

func warnUnstable(ms []dynamo.Metric) {
	for _, m := range ms {
		st, ok := m.(*metrics.Stability)
		if !ok || st.FirstFailure() < 0 {
			continue
		}
		slog.Warn("run went unstable",
			"first_failure_t", st.FirstFailure(),
			"peak_speed", st.PeakSpeed(),
			"speed_limit", st.SpeedLimit,
		)
	}
}

func saveRun(st *storage.Store, name string, p sim.Params, result *sim.Result, frames []metrics.Frame) (string, error) {
	return st.Save(storage.RunMetadata{
		Name:       name,
		Seed:       p.Seed,
		Dt:         p.Dt,
		Steps:      result.Steps,
		Particles:  p.Count,
		Integrator: p.Integrator,
		Kernel:     p.Kernel,
		Metrics:    result.Metrics,
	}, frames)
}

func printMetrics(result *sim.Result) {
	fmt.Printf("steps: %d (t=%.3fs)\n", result.Steps, result.Time)
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runSweep(cmd *cobra.Command, args []string) error {
	p, name, err := loadParams(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Printf("sweeping %s over [%g, %g] on %s...\n\n", sweepParam, sweepMin, sweepMax, name)
	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		Base:      p,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepPoints,
		Steps:     sweepSteps,
	}, func() []dynamo.Metric { return metricSet(p) })
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(sweepParam)+"\tKINETIC\tCOMPRESSION\tSTABILITY")
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%.4f\t%.4f\t%.3f\n",
			r.ParamValue,
			r.Metrics["kinetic_energy"],
			r.Metrics["max_compression"],
			r.Metrics["stability"],
		)
	}
	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	p, name, err := loadParams(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Printf("running %d seeds of %s from seed %d...\n\n", runs, name, p.Seed)
	results, err := sim.NewEnsemble(p, runs, p.Seed, func() []dynamo.Metric { return metricSet(p) }).Run(ctx, ensembleSteps)
	if err != nil {
		return err
	}

	names := sortedKeys(results[0].Metrics)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\t"+strings.ToUpper(strings.Join(names, "\t")))
	for i, r := range results {
		row := []string{fmt.Sprintf("%d", p.Seed+int64(i))}
		for _, n := range names {
			row = append(row, fmt.Sprintf("%.4f", r.Metrics[n]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	row := []string{"mean±sd"}
	values := make([]float64, len(results))
	for _, n := range names {
		for i, r := range results {
			values[i] = r.Metrics[n]
		}
		mean, sd := stat.MeanStdDev(values, nil)
		row = append(row, fmt.Sprintf("%.4f±%.4f", mean, sd))
	}
	fmt.Fprintln(w, strings.Join(row, "\t"))
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	saved, err := st.List()
	if err != nil {
		return err
	}

	if len(saved) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tPARTICLES\tSTEPS\tDT\tINTEG\tKERNEL")
	for _, run := range saved {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.4fs\t%s\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Steps,
			run.Dt,
			run.Integrator,
			run.Kernel,
		)
	}
	return w.Flush()
}

var plotFields = map[string]func(metrics.Frame) float64{
	"kinetic_energy": func(f metrics.Frame) float64 { return f.KineticEnergy },
	"mean_density":   func(f metrics.Frame) float64 { return f.MeanDensity },
	"density_stddev": func(f metrics.Frame) float64 { return f.DensityStdDev },
	"max_density":    func(f metrics.Frame) float64 { return f.MaxDensity },
	"max_speed":      func(f metrics.Frame) float64 { return f.MaxSpeed },
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	records, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fields := []string{"kinetic_energy", "mean_density"}
	if plotField != "" {
		if _, ok := plotFields[plotField]; !ok {
			return fmt.Errorf("unknown field: %s", plotField)
		}
		fields = []string{plotField}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particles: %d, samples: %d\n\n", meta.Particles, len(records))

	for i, field := range fields {
		get := plotFields[field]
		data := make([]float64, 0, len(records))
		for _, r := range records {
			data = append(data, get(r.Frame()))
		}
		if i == 0 && plotSVG != "" {
			if err := os.WriteFile(plotSVG, []byte(export.Series(data, 800, 300, "#00ff88")), 0644); err != nil {
				return err
			}
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(field),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	records, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no data to export")
	}
	return gocsv.Marshal(&records, os.Stdout)
}

func initConfig(cmd *cobra.Command, args []string) error {
	name := config.DefaultPreset
	if len(args) > 1 {
		name = args[1]
	}
	cfg := config.GetPreset(name)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s preset to %s\n", name, args[0])
	return nil
}

func benchPreset(cmd *cobra.Command, args []string) error {
	p, name, err := loadParams(cmd, args)
	if err != nil {
		return err
	}

	window := benchSteps
	if window < 1 {
		window = benchWindowFallback
	}
	perf := metrics.NewPerfCollector(window)
	s, err := sim.New(p, sim.WithPhaseRecorder(perf))
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s: %d particles, %d workers\n\n", name, p.Count, dynamo.Workers(p.Workers))
	start := time.Now()
	for range benchSteps {
		s.Step()
	}
	elapsed := time.Since(start)
	stats := perf.Stats()
	slog.Debug("bench complete", "perf", stats)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHASE\tAVG\tSHARE")
	for _, phase := range metrics.Phases {
		fmt.Fprintf(w, "%s\t%v\t%.1f%%\n", phase, stats.PhaseAvg[phase], stats.PhasePct[phase])
	}
	fmt.Fprintf(w, "tick\t%v\t(min %v, max %v)\n", stats.AvgTick, stats.MinTick, stats.MaxTick)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d steps in %v (%.0f steps/sec)\n", benchSteps, elapsed, float64(benchSteps)/elapsed.Seconds())
	return nil
}

func snapshot(cmd *cobra.Command, args []string) error {
	p, name, err := loadParams(cmd, args)
	if err != nil {
		return err
	}
	s, err := sim.New(p, sim.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()
	if _, err := s.Run(ctx, snapSteps); err != nil {
		return err
	}

	if err := os.WriteFile(snapOut, []byte(export.Snapshot(s, snapScale)), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s after %d steps of %s\n", snapOut, s.StepCount(), name)
	return nil
}

// parseRange reads "name=min:max:points".
func parseRange(arg string) (string, []float64, error) {
	name, rng, ok := strings.Cut(arg, "=")
	parts := strings.Split(rng, ":")
	if !ok || len(parts) != 3 {
		return "", nil, fmt.Errorf("bad range %q: want name=min:max:points", arg)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("bad range %q: %w", arg, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("bad range %q: %w", arg, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", nil, fmt.Errorf("bad range %q: %w", arg, err)
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func tune(cmd *cobra.Command, args []string) error {
	base, name, err := loadParams(cmd, args)
	if err != nil {
		return err
	}

	var names []string
	var ranges [][]float64
	for _, raw := range tuneParams {
		n, values, err := parseRange(raw)
		if err != nil {
			return err
		}
		if err := automation.SetParam(&base, n, values[0]); err != nil {
			return err
		}
		names = append(names, n)
		ranges = append(ranges, values)
	}

	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Printf("tuning %s on %s...\n\n", strings.Join(names, ", "), name)
	best, val, trials, err := search.Search(ctx, func(point map[string]float64) (*sim.Simulation, error) {
		p := base
		for n, v := range point {
			if err := automation.SetParam(&p, n, v); err != nil {
				return nil, err
			}
		}
		return sim.New(p, withMetrics(metricSet(p))...)
	}, tuneSteps, tuneMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(tuneMetric))
	for _, t := range trials {
		row := make([]string, 0, len(names)+1)
		for _, n := range names {
			row = append(row, fmt.Sprintf("%.4f", t.Params[n]))
		}
		if t.Err != nil {
			row = append(row, "invalid")
		} else {
			row = append(row, fmt.Sprintf("%.4f", t.Value))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best == nil {
		return fmt.Errorf("no valid grid point")
	}
	fmt.Printf("\nbest %s = %.4f at", tuneMetric, val)
	for _, n := range names {
		fmt.Printf(" %s=%g", n, best[n])
	}
	fmt.Println()
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	get, ok := plotFields[analyzeField]
	if !ok {
		return fmt.Errorf("unknown field: %s", analyzeField)
	}

	st := storage.New(dataDir)
	records, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(records) < 2 {
		return fmt.Errorf("need at least two samples, have %d", len(records))
	}

	interval := records[1].Time - records[0].Time
	data := make([]float64, len(records))
	for i, r := range records {
		data[i] = get(r.Frame())
	}

	freqs, amps := analysis.Spectrum(data, interval)
	graph := asciigraph.Plot(amps[1:],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("amplitude spectrum (%s)", analyzeField)),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, err := analysis.DominantFrequency(data, interval)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.3f hz (resolution %.3f hz)\n", freq, freqs[1])
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func sensitivity(cmd *cobra.Command, args []string) error {
	p, name, err := loadParams(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	fmt.Printf("following %s for %d steps from a %g shift...\n", name, divSteps, perturbation)
	rate, err := analysis.Divergence(ctx, p, perturbation, divSteps)
	if err != nil {
		return err
	}
	fmt.Printf("divergence rate: %.4f /s\n", rate)
	if rate > 0 {
		fmt.Printf("doubling time: %.3f s\n", math.Ln2/rate)
	}
	return nil
}
