package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/sphfluid/internal/collision"
	"github.com/san-kum/sphfluid/internal/metrics"
	"github.com/san-kum/sphfluid/internal/sim"
)

const (
	defaultCols     = 80
	defaultRows     = 30
	historyCapacity = 300
)

// Options tune the live viewer.
type Options struct {
	FPS           int
	StepsPerFrame int
	Cols, Rows    int
	// AttractorStep is how far one arrow key press moves the attractor.
	AttractorStep float64
	// ObstacleStep is how far one i/j/k/l press moves the obstacle.
	ObstacleStep float64
	// Perf, when set, supplies tick timing for the sidebar. It should be
	// the same collector passed to sim.WithPhaseRecorder.
	Perf *metrics.PerfCollector
}

func DefaultOptions() Options {
	return Options{
		FPS:           30,
		StepsPerFrame: 2,
		Cols:          defaultCols,
		Rows:          defaultRows,
		AttractorStep: 1,
		ObstacleStep:  0.5,
	}
}

type TickMsg time.Time

// Model drives a simulation from the bubbletea event loop and renders it
// onto a braille canvas.
type Model struct {
	sim           *sim.Simulation
	canvas        *Canvas
	opts          Options
	running       bool
	dragging      bool
	frame         metrics.Frame
	energyHistory []float64
}

func NewModel(s *sim.Simulation, opts Options) Model {
	def := DefaultOptions()
	if opts.FPS <= 0 {
		opts.FPS = def.FPS
	}
	if opts.StepsPerFrame <= 0 {
		opts.StepsPerFrame = def.StepsPerFrame
	}
	if opts.Cols <= 0 {
		opts.Cols = def.Cols
	}
	if opts.Rows <= 0 {
		opts.Rows = def.Rows
	}
	if opts.AttractorStep <= 0 {
		opts.AttractorStep = def.AttractorStep
	}
	if opts.ObstacleStep <= 0 {
		opts.ObstacleStep = def.ObstacleStep
	}

	m := Model{
		sim:           s,
		canvas:        NewCanvas(opts.Cols, opts.Rows),
		opts:          opts,
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
	}
	m.sample()
	return m
}

// Run opens the viewer full screen with mouse tracking and blocks until
// the user quits.
func Run(s *sim.Simulation, opts Options) error {
	p := tea.NewProgram(NewModel(s, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case TickMsg:
		if m.running {
			for range m.opts.StepsPerFrame {
				m.sim.Step()
			}
			m.sample()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := m.sim.Attractor()
	as, obs := m.opts.AttractorStep, m.opts.ObstacleStep

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "n":
		if !m.running {
			m.sim.Step()
			m.sample()
		}
	case "g":
		m.sim.ToggleGravity()
	case "b":
		m.sim.BreakDam()
	case "a":
		m.sim.SetAttractorActive(!a.Active)
	case "up":
		m.moveAttractor(0, -as)
	case "down":
		m.moveAttractor(0, as)
	case "left":
		m.moveAttractor(-as, 0)
	case "right":
		m.moveAttractor(as, 0)
	case "i":
		m.sim.MoveObstacle(0, -obs)
	case "k":
		m.sim.MoveObstacle(0, obs)
	case "j":
		m.sim.MoveObstacle(-obs, 0)
	case "l":
		m.sim.MoveObstacle(obs, 0)
	}
	return m, nil
}

// moveAttractor shifts the attractor, keeping it inside the box.
func (m *Model) moveAttractor(dx, dy float64) {
	p := m.sim.Params()
	pos := m.sim.Attractor().Position
	x := min(max(pos.X+dx, 0), p.Width)
	y := min(max(pos.Y+dy, 0), p.Height)
	m.sim.SetAttractorPosition(x, y)
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		x, y, ok := m.screenToWorld(msg.X, msg.Y)
		if !ok {
			return
		}
		m.dragging = true
		m.sim.SetAttractorPosition(x, y)
		m.sim.SetAttractorActive(true)
	case tea.MouseActionMotion:
		if !m.dragging {
			return
		}
		if x, y, ok := m.screenToWorld(msg.X, msg.Y); ok {
			m.sim.SetAttractorPosition(x, y)
		}
	case tea.MouseActionRelease:
		if m.dragging {
			m.dragging = false
			m.sim.SetAttractorActive(false)
		}
	}
}

// screenToWorld maps a terminal cell to the center of the box region it
// covers. Cells outside the canvas report false.
func (m Model) screenToWorld(cx, cy int) (float64, float64, bool) {
	col, row := cx-canvasOffsetX, cy-canvasOffsetY
	if col < 0 || row < 0 || col >= m.canvas.Width || row >= m.canvas.Height {
		return 0, 0, false
	}
	p := m.sim.Params()
	x := (float64(col) + 0.5) * p.Width / float64(m.canvas.Width)
	y := (float64(row) + 0.5) * p.Height / float64(m.canvas.Height)
	return x, y, true
}

// worldToDot maps a box position to canvas dot coordinates. The y axis
// points down on both.
func (m Model) worldToDot(x, y float64) (int, int) {
	p := m.sim.Params()
	w, h := m.canvas.Dots()
	dx := int(x / p.Width * float64(w))
	dy := int(y / p.Height * float64(h))
	return min(max(dx, 0), w-1), min(max(dy, 0), h-1)
}

func (m *Model) sample() {
	m.frame = metrics.Sample(m.sim.StepCount(), m.sim.Time(), m.sim.View())
	m.energyHistory = append(m.energyHistory, m.frame.KineticEnergy)
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m *Model) draw() {
	c := m.canvas
	c.Clear()

	for _, o := range m.sim.Obstacles() {
		switch o.Kind {
		case collision.Dam:
			if !o.Intact() {
				continue
			}
			x0, y0 := m.worldToDot(o.X, 0)
			x1, y1 := m.worldToDot(o.X, m.sim.Params().Height)
			c.DrawLine(x0, y0, x1, y1)
		case collision.Rectangle:
			x0, y0 := m.worldToDot(o.Min.X, o.Min.Y)
			x1, y1 := m.worldToDot(o.Max.X, o.Max.Y)
			c.DrawRect(x0, y0, x1, y1)
		}
	}

	for _, p := range m.sim.View().All() {
		if !p.IsFinite() {
			continue
		}
		c.Set(m.worldToDot(p.Position.X, p.Position.Y))
	}

	if a := m.sim.Attractor(); a.Active {
		x, y := m.worldToDot(a.Position.X, a.Position.Y)
		c.DrawLine(x-2, y, x+2, y)
		c.DrawLine(x, y-2, x, y+2)
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render("SPH FLUID") + "\n")

	switch {
	case m.frame.Finite < 1:
		s.WriteString(statusBad.Render("DIVERGED") + "\n\n")
	case m.running:
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory,
			asciigraph.Height(6),
			asciigraph.Width(30),
			asciigraph.Caption("kinetic energy"),
		)
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	p := m.sim.Params()
	s.WriteString(row("Step", fmt.Sprintf("%d", m.frame.Step)))
	s.WriteString(row("Time", fmt.Sprintf("%.2fs", m.frame.Time)))
	s.WriteString(row("Particles", fmt.Sprintf("%d", p.Count)))
	s.WriteString(row("Energy", fmt.Sprintf("%.2f", m.frame.KineticEnergy)))
	s.WriteString(row("Density", fmt.Sprintf("%.2f ± %.2f", m.frame.MeanDensity, m.frame.DensityStdDev)))
	s.WriteString(row("Max dens", fmt.Sprintf("%.2f", m.frame.MaxDensity)))
	s.WriteString(row("Max speed", fmt.Sprintf("%.2f", m.frame.MaxSpeed)))
	if p.TargetDensity > 0 {
		s.WriteString(labelStyle.Render("Fill") + ProgressBar(m.frame.MeanDensity/(2*p.TargetDensity), 16) + "\n")
	}
	if m.opts.Perf != nil {
		st := m.opts.Perf.Stats()
		s.WriteString(row("Ticks/s", fmt.Sprintf("%.0f", st.TicksPerSecond)))
	}

	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Gravity") + flag(m.sim.GravityOn(), "on", "off") + "\n")
	if p.Dam.Enabled {
		s.WriteString(labelStyle.Render("Dam") + flag(m.sim.DamIntact(), "intact", "broken") + "\n")
	}
	s.WriteString(labelStyle.Render("Attractor") + flag(m.sim.Attractor().Active, "on", "off") + "\n")

	s.WriteString(helpStyle.Render("SP:pause N:step Q:quit\nG:gravity B:dam A:attractor\n←↑↓→:attractor IJKL:obstacle\nmouse: hold to attract"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}
