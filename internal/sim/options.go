package sim

import (
	"log/slog"

	"github.com/san-kum/sphfluid/internal/dynamo"

	"gonum.org/v1/gonum/spatial/r2"
)

type settings struct {
	positions  []r2.Vec
	velocities []r2.Vec
	observers  []dynamo.Observer
	metrics    []dynamo.Metric
	recorder   dynamo.PhaseRecorder
	controller Controller
	logger     *slog.Logger
}

// Controller drives control events during Run. Apply is called before each
// step with the number of steps completed so far.
type Controller interface {
	Apply(s *Simulation, step int) error
}

// Option customises a Simulation at construction.
type Option func(*settings)

// WithPositions places particles explicitly instead of scattering them over
// the spawn region. The slice length must equal Params.Count.
func WithPositions(positions []r2.Vec) Option {
	return func(s *settings) { s.positions = positions }
}

// WithVelocities sets initial velocities. The slice length must equal Params.Count.
func WithVelocities(velocities []r2.Vec) Option {
	return func(s *settings) { s.velocities = velocities }
}

func WithObserver(o dynamo.Observer) Option {
	return func(s *settings) { s.observers = append(s.observers, o) }
}

func WithMetric(m dynamo.Metric) Option {
	return func(s *settings) { s.metrics = append(s.metrics, m) }
}

// WithPhaseRecorder times the phases of every step.
func WithPhaseRecorder(r dynamo.PhaseRecorder) Option {
	return func(s *settings) { s.recorder = r }
}

// WithController lets c issue control events during Run.
func WithController(c Controller) Option {
	return func(s *settings) { s.controller = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

type noopRecorder struct{}

func (noopRecorder) StartTick()        {}
func (noopRecorder) StartPhase(string) {}
func (noopRecorder) EndTick()          {}
