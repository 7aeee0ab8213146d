package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/sphfluid/internal/config"
	"github.com/spf13/cobra"
)

var (
	dataDir       string
	logJSON       bool
	verbose       bool
	configFile    string
	runSteps      int
	sweepSteps    int
	ensembleSteps int
	benchSteps    int
	snapSteps     int
	sampleEvery   int
	scenarioEvery int
	seed          int64
	integrator    string
	kernel        string
	workers       int
	frameRate     int
	stepsPerFrame int
	sweepParam    string
	sweepMin      float64
	sweepMax      float64
	sweepPoints   int
	runs          int
	plotField     string
	plotSVG       string
	analyzeField  string
	tuneSteps     int
	tuneParams    []string
	tuneMetric    string
	divSteps      int
	perturbation  float64
	snapOut       string
	snapScale     float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sphfluid",
		Short: "2D smoothed particle hydrodynamics sandbox",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
		RunE: runLive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".sphfluid", "data directory")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run the fluid in the terminal viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 2, "simulation steps per frame")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run headless and save telemetry",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHeadless,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&runSteps, "steps", 1200, "number of steps")
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", 10, "telemetry sampling interval in steps")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted YAML scenario and save telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().IntVar(&scenarioEvery, "sample-every", 0, "override the scenario sampling interval")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "vary one fluid parameter and compare outcomes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "viscosity", "parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.1, "lowest value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1.0, "highest value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "number of values")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 600, "steps per run")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [preset]",
		Short: "run one preset under consecutive seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addSimFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 4, "number of seeds")
	ensembleCmd.Flags().IntVar(&ensembleSteps, "steps", 600, "steps per run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotField, "field", "", "plot a single field (default: energy and density)")
	plotCmd.Flags().StringVar(&plotSVG, "svg", "", "also write the first plotted field as SVG")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [preset]",
		Short: "run headless and render the final state as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  snapshot,
	}
	addSimFlags(snapshotCmd)
	snapshotCmd.Flags().IntVar(&snapSteps, "steps", 600, "steps before the snapshot")
	snapshotCmd.Flags().StringVarP(&snapOut, "out", "o", "snapshot.svg", "output file")
	snapshotCmd.Flags().Float64Var(&snapScale, "scale", 20, "pixels per world unit")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write run telemetry to stdout as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				marker := " "
				if name == config.DefaultPreset {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, name)
			}
		},
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path] [preset]",
		Short: "write a preset as an editable YAML config",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  initConfig,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "time steps and phases",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchPreset,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchSteps, "steps", 300, "steps to time")

	tuneCmd := &cobra.Command{
		Use:   "tune [preset]",
		Short: "grid search parameters for the lowest metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tune,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().StringSliceVar(&tuneParams, "param", []string{"viscosity=0.1:1:4", "pressure_multiplier=10:40:4"}, "name=min:max:points, repeatable")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "max_compression", "metric to minimize")
	tuneCmd.Flags().IntVar(&tuneSteps, "steps", 300, "steps per trial")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of run telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeField, "field", "kinetic_energy", "telemetry field to analyze")

	sensitivityCmd := &cobra.Command{
		Use:   "sensitivity [preset]",
		Short: "estimate how fast a tiny perturbation grows",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sensitivity,
	}
	addSimFlags(sensitivityCmd)
	sensitivityCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-6, "initial shift of particle 0")
	sensitivityCmd.Flags().IntVar(&divSteps, "steps", 300, "steps to follow")

	rootCmd.AddCommand(liveCmd, runCmd, scenarioCmd, sweepCmd, ensembleCmd, listCmd, plotCmd, exportCSVCmd, presetsCmd, initCmd, benchCmd, snapshotCmd, tuneCmd, analyzeCmd, sensitivityCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (verlet, euler)")
	cmd.Flags().StringVar(&kernel, "kernel", "", "kernel (spiky, poly6)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = all cores)")
}

func setupLogging() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if logJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
