package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/sim"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Integrator.Name != "verlet" {
		t.Errorf("expected integrator verlet, got %s", cfg.Integrator.Name)
	}
	if cfg.Fluid.Kernel != "spiky" {
		t.Errorf("expected kernel spiky, got %s", cfg.Fluid.Kernel)
	}
	if !reflect.DeepEqual(cfg.Params(), sim.DefaultParams()) {
		t.Error("default config does not round-trip to default params")
	}
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	want := []string{"calm_pool", "dam_break", "obstacle_course", "zero_g"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("ListPresets() = %v, want %v", names, want)
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if cfg == nil {
				t.Fatal("expected preset, got nil")
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset invalid: %v", err)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("zero_g")
	if cfg.Integrator.GravityOn {
		t.Error("zero_g should start without gravity")
	}

	cfg.Particles.Count = 1
	if GetPreset("zero_g").Particles.Count == 1 {
		t.Error("GetPreset must return a fresh copy")
	}

	if !GetPreset("obstacle_course").Obstacle.Enabled {
		t.Error("obstacle_course should enable the obstacle")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestLoadOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fluid.yaml")
	data := []byte(`
particles:
  count: 300
fluid:
  kernel: poly6
integrator:
  name: euler
  gravity_on: false
obstacle:
  enabled: true
  min_x: 20
  min_y: 10
  max_x: 25
  max_y: 15
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Particles.Count != 300 || cfg.Fluid.Kernel != "poly6" || cfg.Integrator.Name != "euler" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Integrator.GravityOn {
		t.Error("gravity_on override not applied")
	}
	if cfg.Obstacle.MaxX != 25 || !cfg.Obstacle.Enabled {
		t.Errorf("inline obstacle rect not decoded: %+v", cfg.Obstacle)
	}
	if cfg.Box.Width != DefaultConfig().Box.Width {
		t.Error("unset keys should keep their defaults")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("box: [1, 2"), 0644)
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	os.WriteFile(invalid, []byte("integrator:\n  dt: -1\n"), 0644)
	if _, err := Load(invalid); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := GetPreset("obstacle_course")
	cfg.Seed = 77

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}
