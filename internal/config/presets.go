package config

import "sort"

// Presets adjust the defaults into named starting scenes.
var Presets = map[string]func(*Config){
	"dam_break": func(c *Config) {},
	"calm_pool": func(c *Config) {
		c.Dam.Enabled = false
		c.Particles.Spawn = RectConfig{MinX: 1, MinY: 19, MaxX: 39, MaxY: 29.5}
		c.Fluid.TargetDensity = 3
		c.Fluid.Viscosity = 0.6
	},
	"obstacle_course": func(c *Config) {
		c.Obstacle = ObstacleConfig{
			Enabled:    true,
			RectConfig: RectConfig{MinX: 24, MinY: 20, MaxX: 28, MaxY: 30},
		}
	},
	"zero_g": func(c *Config) {
		c.Integrator.GravityOn = false
		c.Dam.Enabled = false
		c.Particles.Count = 800
		c.Particles.Spawn = RectConfig{MinX: 12, MinY: 8, MaxX: 28, MaxY: 22}
		c.Fluid.Viscosity = 0.8
	},
}

const DefaultPreset = "dam_break"

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
