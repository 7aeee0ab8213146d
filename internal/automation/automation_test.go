package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/sphfluid/internal/config"
	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/metrics"
	"github.com/san-kum/sphfluid/internal/sim"
)

func smallParams() sim.Params {
	p := sim.DefaultParams()
	p.Width, p.Height = 10, 10
	p.Count = 30
	p.ParticleRadius = 0.2
	p.Dt = 0.01
	p.Spawn = sim.Rect{MinX: 1, MinY: 2, MaxX: 4, MaxY: 9}
	p.Dam = sim.DamParams{Enabled: true, X: 5}
	p.Obstacle = sim.ObstacleParams{Enabled: true, Rect: sim.Rect{MinX: 6, MinY: 6, MaxX: 7, MaxY: 9}}
	return p
}

func writeConfig(t *testing.T, p sim.Params) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.Save(path, config.FromParams(p)); err != nil {
		t.Fatalf("save config: %v", err)
	}
	return path
}

func TestScenarioEvents(t *testing.T) {
	sc := &Scenario{
		Name:   "events",
		Config: writeConfig(t, smallParams()),
		Steps:  4,
		Events: []Event{
			{At: 0, Action: ActionToggleGravity},
			{At: 1, Action: ActionBreakDam},
			{At: 2, Action: ActionMoveAttractor, X: 3, Y: 4},
			{At: 2, Action: ActionAttractorOn},
			{At: 3, Action: ActionMoveObstacle, DX: 1, DY: -1},
		},
	}

	s, res, err := Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Steps != 4 {
		t.Errorf("steps: got %d, want 4", res.Steps)
	}
	if s.GravityOn() {
		t.Error("gravity should be toggled off")
	}
	if s.DamIntact() {
		t.Error("dam should be broken")
	}
	a := s.Attractor()
	if !a.Active || a.Position.X != 3 || a.Position.Y != 4 {
		t.Errorf("attractor: got %+v", a)
	}

	var moved bool
	for _, o := range s.Obstacles() {
		if o.Min.X == 7 && o.Min.Y == 5 {
			moved = true
		}
	}
	if !moved {
		t.Errorf("obstacle not moved: %+v", s.Obstacles())
	}
}

func TestScenarioApplyOnlyMatchingStep(t *testing.T) {
	s, err := sim.New(smallParams())
	if err != nil {
		t.Fatal(err)
	}
	sc := &Scenario{Steps: 10, Events: []Event{{At: 5, Action: ActionBreakDam}}}

	if err := sc.Apply(s, 4); err != nil {
		t.Fatal(err)
	}
	if !s.DamIntact() {
		t.Error("dam broke early")
	}
	if err := sc.Apply(s, 5); err != nil {
		t.Fatal(err)
	}
	if s.DamIntact() {
		t.Error("dam should break at step 5")
	}
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name string
		sc   Scenario
		want error
	}{
		{"no steps", Scenario{}, dynamo.ErrInvalidConfig},
		{"unknown preset", Scenario{Steps: 1, Preset: "lava"}, dynamo.ErrInvalidConfig},
		{"unknown action", Scenario{Steps: 5, Events: []Event{{At: 1, Action: "flood"}}}, dynamo.ErrUnknownAction},
		{"event past end", Scenario{Steps: 5, Events: []Event{{At: 5, Action: ActionBreakDam}}}, dynamo.ErrInvalidConfig},
		{"negative at", Scenario{Steps: 5, Events: []Event{{At: -1, Action: ActionBreakDam}}}, dynamo.ErrInvalidConfig},
		{"ok", Scenario{Steps: 5, Preset: "calm_pool", Events: []Event{{At: 4, Action: ActionBreakDam}}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sc.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	data := []byte(`name: burst
preset: zero_g
seed: 42
steps: 50
sample_every: 5
events:
  - at: 10
    action: attractor_on
  - at: 20
    action: move_attractor
    x: 12.5
    y: 7
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if sc.Name != "burst" || sc.Steps != 50 || sc.SampleEvery != 5 {
		t.Errorf("header: got %+v", sc)
	}
	if len(sc.Events) != 2 || sc.Events[1].X != 12.5 || sc.Events[1].Y != 7 {
		t.Errorf("events: got %+v", sc.Events)
	}

	p, err := sc.Params()
	if err != nil {
		t.Fatal(err)
	}
	if p.Seed != 42 {
		t.Errorf("seed: got %d, want 42", p.Seed)
	}
	if p.GravityOn {
		t.Error("zero_g preset should start without gravity")
	}
}

func TestScenarioConfigRelativeToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs")
	if err := os.MkdirAll(filepath.Join(dir, "conf"), 0755); err != nil {
		t.Fatal(err)
	}
	want := smallParams()
	want.Viscosity = 0.37
	if err := config.Save(filepath.Join(dir, "conf", "small.yaml"), config.FromParams(want)); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte("config: conf/small.yaml\nsteps: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if got := sc.ConfigPath(); got != filepath.Join(dir, "conf", "small.yaml") {
		t.Errorf("ConfigPath = %q", got)
	}
	p, err := sc.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p.Viscosity != 0.37 || p.Count != want.Count {
		t.Errorf("got viscosity %v count %d from the scenario's config", p.Viscosity, p.Count)
	}

	abs := &Scenario{Config: filepath.Join(dir, "conf", "small.yaml"), dir: "elsewhere"}
	if abs.ConfigPath() != abs.Config {
		t.Errorf("absolute path rewritten to %q", abs.ConfigPath())
	}
}

func TestBundledScenario(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("..", "..", "scenarios", "dam_break.yaml"))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if sc.Preset != "obstacle_course" || len(sc.Events) != 5 {
		t.Errorf("got preset %q with %d events", sc.Preset, len(sc.Events))
	}
	p, err := sc.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p.Seed != 7 || !p.Obstacle.Enabled {
		t.Errorf("seed %d obstacle %v", p.Seed, p.Obstacle.Enabled)
	}
}

func TestLoadScenarioErrors(t *testing.T) {
	if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("steps: 3\nevents:\n  - at: 1\n    action: explode\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadScenario(path)
	if !errors.Is(err, dynamo.ErrUnknownAction) {
		t.Errorf("got %v, want ErrUnknownAction", err)
	}
}

func TestRunSweep(t *testing.T) {
	p := smallParams()
	p.Dam.Enabled = false
	p.Obstacle.Enabled = false

	sweep := &ParameterSweep{
		Base:      p,
		ParamName: "viscosity",
		ParamMin:  0,
		ParamMax:  1,
		NumSteps:  3,
		Steps:     5,
	}
	results, err := RunSweep(context.Background(), sweep, func() []dynamo.Metric {
		return []dynamo.Metric{metrics.NewEnergy()}
	})
	if err != nil {
		t.Fatalf("RunSweep: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	want := []float64{0, 0.5, 1}
	for i, r := range results {
		if r.ParamValue != want[i] {
			t.Errorf("result %d: value %g, want %g", i, r.ParamValue, want[i])
		}
		if r.Steps != 5 {
			t.Errorf("result %d: steps %d, want 5", i, r.Steps)
		}
		if _, ok := r.Metrics["kinetic_energy"]; !ok {
			t.Errorf("result %d: missing kinetic_energy", i)
		}
	}
}

func TestRunSweepRejectsUnknownParam(t *testing.T) {
	_, err := RunSweep(context.Background(), &ParameterSweep{
		Base:      smallParams(),
		ParamName: "temperature",
		NumSteps:  2,
		Steps:     1,
	}, nil)
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("got %v, want ErrInvalidConfig", err)
	}
}

func TestSweepParams(t *testing.T) {
	names := SweepParams()
	if len(names) != 6 || names[0] != "dt" {
		t.Errorf("got %v", names)
	}
}
