package automation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/san-kum/sphfluid/internal/config"
	"github.com/san-kum/sphfluid/internal/dynamo"
	"github.com/san-kum/sphfluid/internal/sim"

	"gopkg.in/yaml.v3"
)

// Actions a scenario event may perform.
const (
	ActionToggleGravity = "toggle_gravity"
	ActionBreakDam      = "break_dam"
	ActionAttractorOn   = "attractor_on"
	ActionAttractorOff  = "attractor_off"
	ActionMoveAttractor = "move_attractor"
	ActionMoveObstacle  = "move_obstacle"
)

var actions = map[string]bool{
	ActionToggleGravity: true,
	ActionBreakDam:      true,
	ActionAttractorOn:   true,
	ActionAttractorOff:  true,
	ActionMoveAttractor: true,
	ActionMoveObstacle:  true,
}

// Scenario is a scripted headless run: a starting preset plus control
// events fired at fixed step numbers.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Preset      string  `yaml:"preset"`
	Config      string  `yaml:"config"`
	Seed        *int64  `yaml:"seed"`
	Steps       int     `yaml:"steps"`
	SampleEvery int     `yaml:"sample_every"`
	Events      []Event `yaml:"events"`

	// dir is the directory of the scenario file; a relative Config
	// resolves against it.
	dir string
}

// Event fires Action just before step At runs. X and Y position the
// attractor; DX and DY shift the obstacle.
type Event struct {
	At     int     `yaml:"at"`
	Action string  `yaml:"action"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	DX     float64 `yaml:"dx"`
	DY     float64 `yaml:"dy"`
}

// LoadScenario loads and validates a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	scenario.dir = filepath.Dir(path)
	return &scenario, nil
}

func (sc *Scenario) Validate() error {
	if sc.Steps <= 0 {
		return dynamo.Invalid("steps", sc.Steps, "must be positive")
	}
	if sc.SampleEvery < 0 {
		return dynamo.Invalid("sample_every", sc.SampleEvery, "must not be negative")
	}
	if sc.Preset != "" && config.GetPreset(sc.Preset) == nil {
		return dynamo.Invalid("preset", sc.Preset, "unknown preset")
	}
	for i, ev := range sc.Events {
		if !actions[ev.Action] {
			return fmt.Errorf("event %d: %w: %q", i, dynamo.ErrUnknownAction, ev.Action)
		}
		if ev.At < 0 || ev.At >= sc.Steps {
			return dynamo.Invalid(fmt.Sprintf("events[%d].at", i), ev.At, "must fall within the run")
		}
	}
	return nil
}

// ConfigPath is the config file the scenario names, resolved against the
// scenario file's directory when relative. It is empty when none is set.
func (sc *Scenario) ConfigPath() string {
	if sc.Config == "" || filepath.IsAbs(sc.Config) || sc.dir == "" {
		return sc.Config
	}
	return filepath.Join(sc.dir, sc.Config)
}

// Params resolves the starting configuration: the config file if given,
// else the preset, else the defaults, with the seed override applied last.
func (sc *Scenario) Params() (sim.Params, error) {
	var cfg *config.Config
	switch {
	case sc.Config != "":
		loaded, err := config.Load(sc.ConfigPath())
		if err != nil {
			return sim.Params{}, err
		}
		cfg = loaded
	case sc.Preset != "":
		cfg = config.GetPreset(sc.Preset)
		if cfg == nil {
			return sim.Params{}, dynamo.Invalid("preset", sc.Preset, "unknown preset")
		}
	default:
		cfg = config.DefaultConfig()
	}
	if sc.Seed != nil {
		cfg.Seed = *sc.Seed
	}
	return cfg.Params(), nil
}

// Apply fires every event scheduled for step, in file order. It satisfies
// sim.Controller.
func (sc *Scenario) Apply(s *sim.Simulation, step int) error {
	for _, ev := range sc.Events {
		if ev.At != step {
			continue
		}
		switch ev.Action {
		case ActionToggleGravity:
			s.ToggleGravity()
		case ActionBreakDam:
			s.BreakDam()
		case ActionAttractorOn:
			s.SetAttractorActive(true)
		case ActionAttractorOff:
			s.SetAttractorActive(false)
		case ActionMoveAttractor:
			s.SetAttractorPosition(ev.X, ev.Y)
		case ActionMoveObstacle:
			s.MoveObstacle(ev.DX, ev.DY)
		default:
			return fmt.Errorf("%w: %q", dynamo.ErrUnknownAction, ev.Action)
		}
	}
	return nil
}

// Run builds a simulation for the scenario and plays it to the end.
func Run(ctx context.Context, sc *Scenario, opts ...sim.Option) (*sim.Simulation, *sim.Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, nil, err
	}
	p, err := sc.Params()
	if err != nil {
		return nil, nil, err
	}

	s, err := sim.New(p, append(opts, sim.WithController(sc))...)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.Run(ctx, sc.Steps)
	if err != nil {
		return s, res, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	return s, res, nil
}
