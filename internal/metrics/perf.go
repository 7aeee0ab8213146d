package metrics

import (
	"log/slog"
	"time"

	"github.com/san-kum/sphfluid/internal/dynamo"
)

// Phases lists the step phases in execution order.
var Phases = []string{
	dynamo.PhaseIntegrate,
	dynamo.PhaseGrid,
	dynamo.PhaseDensity,
	dynamo.PhaseAcceleration,
	dynamo.PhaseVelocity,
}

type tickSample struct {
	total  time.Duration
	phases map[string]time.Duration
}

// PerfCollector times simulation steps and their phases over a rolling
// window. It implements dynamo.PhaseRecorder.
type PerfCollector struct {
	window  []tickSample
	next    int
	filled  int
	now     func() time.Time
	current map[string]time.Duration
	start   time.Time
	mark    time.Time
	phase   string
}

// NewPerfCollector keeps the last windowSize ticks; values below 1 mean 120.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 120
	}
	return &PerfCollector{
		window: make([]tickSample, windowSize),
		now:    time.Now,
	}
}

func (p *PerfCollector) StartTick() {
	p.start = p.now()
	p.current = make(map[string]time.Duration, len(Phases))
	p.phase = ""
}

func (p *PerfCollector) StartPhase(name string) {
	t := p.now()
	p.closePhase(t)
	p.phase = name
	p.mark = t
}

func (p *PerfCollector) EndTick() {
	t := p.now()
	p.closePhase(t)
	p.window[p.next] = tickSample{total: t.Sub(p.start), phases: p.current}
	p.next = (p.next + 1) % len(p.window)
	if p.filled < len(p.window) {
		p.filled++
	}
}

func (p *PerfCollector) closePhase(t time.Time) {
	if p.phase != "" {
		p.current[p.phase] += t.Sub(p.mark)
	}
}

// PerfStats aggregates the samples in the window.
type PerfStats struct {
	Ticks          int
	AvgTick        time.Duration
	MinTick        time.Duration
	MaxTick        time.Duration
	PhaseAvg       map[string]time.Duration
	PhasePct       map[string]float64
	TicksPerSecond float64
}

func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		Ticks:    p.filled,
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
	}
	if p.filled == 0 {
		return stats
	}

	var sum time.Duration
	phaseSum := make(map[string]time.Duration)
	for i, s := range p.window[:p.filled] {
		sum += s.total
		if i == 0 || s.total < stats.MinTick {
			stats.MinTick = s.total
		}
		if s.total > stats.MaxTick {
			stats.MaxTick = s.total
		}
		for name, d := range s.phases {
			phaseSum[name] += d
		}
	}

	stats.AvgTick = sum / time.Duration(p.filled)
	for name, d := range phaseSum {
		avg := d / time.Duration(p.filled)
		stats.PhaseAvg[name] = avg
		if stats.AvgTick > 0 {
			stats.PhasePct[name] = float64(avg) / float64(stats.AvgTick) * 100
		}
	}
	if stats.AvgTick > 0 {
		stats.TicksPerSecond = float64(time.Second) / float64(stats.AvgTick)
	}
	return stats
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for _, name := range Phases {
		if pct, ok := s.PhasePct[name]; ok {
			attrs = append(attrs, slog.Float64(name+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}
