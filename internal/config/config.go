package config

import (
	"fmt"
	"os"

	"github.com/san-kum/sphfluid/internal/sim"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Box        BoxConfig        `yaml:"box"`
	Particles  ParticleConfig   `yaml:"particles"`
	Fluid      FluidConfig      `yaml:"fluid"`
	Integrator IntegratorConfig `yaml:"integrator"`
	Dam        DamConfig        `yaml:"dam"`
	Obstacle   ObstacleConfig   `yaml:"obstacle"`
	Attractor  AttractorConfig  `yaml:"attractor"`
	Seed       int64            `yaml:"seed"`
	Workers    int              `yaml:"workers"`
}

type BoxConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type RectConfig struct {
	MinX float64 `yaml:"min_x"`
	MinY float64 `yaml:"min_y"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
}

type ParticleConfig struct {
	Count  int        `yaml:"count"`
	Mass   float64    `yaml:"mass"`
	Radius float64    `yaml:"radius"`
	Spawn  RectConfig `yaml:"spawn"`
}

type FluidConfig struct {
	SmoothingRadius    float64 `yaml:"smoothing_radius"`
	PressureMultiplier float64 `yaml:"pressure_multiplier"`
	TargetDensity      float64 `yaml:"target_density"`
	Viscosity          float64 `yaml:"viscosity"`
	Kernel             string  `yaml:"kernel"`
}

type IntegratorConfig struct {
	Name      string  `yaml:"name"`
	Dt        float64 `yaml:"dt"`
	Gravity   float64 `yaml:"gravity"`
	GravityOn bool    `yaml:"gravity_on"`
}

type DamConfig struct {
	Enabled bool    `yaml:"enabled"`
	X       float64 `yaml:"x"`
}

type ObstacleConfig struct {
	Enabled    bool `yaml:"enabled"`
	RectConfig `yaml:",inline"`
}

type AttractorConfig struct {
	Radius  float64 `yaml:"radius"`
	Pull    float64 `yaml:"pull"`
	Damping float64 `yaml:"damping"`
}

func DefaultConfig() *Config {
	return FromParams(sim.DefaultParams())
}

// FromParams mirrors simulation parameters into their file form.
func FromParams(p sim.Params) *Config {
	return &Config{
		Box: BoxConfig{Width: p.Width, Height: p.Height},
		Particles: ParticleConfig{
			Count:  p.Count,
			Mass:   p.Mass,
			Radius: p.ParticleRadius,
			Spawn:  fromRect(p.Spawn),
		},
		Fluid: FluidConfig{
			SmoothingRadius:    p.SmoothingRadius,
			PressureMultiplier: p.PressureMultiplier,
			TargetDensity:      p.TargetDensity,
			Viscosity:          p.Viscosity,
			Kernel:             p.Kernel,
		},
		Integrator: IntegratorConfig{
			Name:      p.Integrator,
			Dt:        p.Dt,
			Gravity:   p.Gravity,
			GravityOn: p.GravityOn,
		},
		Dam:       DamConfig{Enabled: p.Dam.Enabled, X: p.Dam.X},
		Obstacle:  ObstacleConfig{Enabled: p.Obstacle.Enabled, RectConfig: fromRect(p.Obstacle.Rect)},
		Attractor: AttractorConfig{Radius: p.Attractor.Radius, Pull: p.Attractor.Pull, Damping: p.Attractor.Damping},
		Seed:      p.Seed,
		Workers:   p.Workers,
	}
}

func fromRect(r sim.Rect) RectConfig {
	return RectConfig{MinX: r.MinX, MinY: r.MinY, MaxX: r.MaxX, MaxY: r.MaxY}
}

func (r RectConfig) rect() sim.Rect {
	return sim.Rect{MinX: r.MinX, MinY: r.MinY, MaxX: r.MaxX, MaxY: r.MaxY}
}

// Params converts the configuration into simulation parameters.
func (c *Config) Params() sim.Params {
	return sim.Params{
		Width:              c.Box.Width,
		Height:             c.Box.Height,
		Count:              c.Particles.Count,
		SmoothingRadius:    c.Fluid.SmoothingRadius,
		PressureMultiplier: c.Fluid.PressureMultiplier,
		TargetDensity:      c.Fluid.TargetDensity,
		Viscosity:          c.Fluid.Viscosity,
		Dt:                 c.Integrator.Dt,
		Mass:               c.Particles.Mass,
		ParticleRadius:     c.Particles.Radius,
		Gravity:            c.Integrator.Gravity,
		GravityOn:          c.Integrator.GravityOn,
		Integrator:         c.Integrator.Name,
		Kernel:             c.Fluid.Kernel,
		Seed:               c.Seed,
		Workers:            c.Workers,
		Spawn:              c.Particles.Spawn.rect(),
		Dam:                sim.DamParams{Enabled: c.Dam.Enabled, X: c.Dam.X},
		Obstacle:           sim.ObstacleParams{Enabled: c.Obstacle.Enabled, Rect: c.Obstacle.rect()},
		Attractor: sim.AttractorParams{
			Radius:  c.Attractor.Radius,
			Pull:    c.Attractor.Pull,
			Damping: c.Attractor.Damping,
		},
	}
}

// Validate checks the configuration by the same rules as sim.New.
func (c *Config) Validate() error {
	return c.Params().Validate()
}

// Load reads a YAML file over the defaults, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
