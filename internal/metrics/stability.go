package metrics

import "github.com/san-kum/sphfluid/internal/dynamo"

// Stability scores a run by the share of observed steps in which every
// particle stayed finite and below SpeedLimit. FirstFailure and PeakSpeed
// help locate a blow-up after the fact.
type Stability struct {
	SpeedLimit float64

	observed     int
	failed       int
	firstFailure float64
	peakSpeed    float64
}

func NewStability(speedLimit float64) *Stability {
	return &Stability{SpeedLimit: speedLimit, firstFailure: -1}
}

func (*Stability) Name() string { return "stability" }

func (s *Stability) Observe(v dynamo.View, t float64) {
	s.observed++
	ok := true
	for _, p := range v.All() {
		if !p.IsFinite() {
			ok = false
			continue
		}
		speed := p.Speed()
		s.peakSpeed = max(s.peakSpeed, speed)
		if speed > s.SpeedLimit {
			ok = false
		}
	}
	if ok {
		return
	}
	s.failed++
	if s.firstFailure < 0 {
		s.firstFailure = t
	}
}

// Value is 1 for a clean run and 0 when every step failed.
func (s *Stability) Value() float64 {
	if s.observed == 0 {
		return 1
	}
	return 1 - float64(s.failed)/float64(s.observed)
}

// FirstFailure is the simulated time of the first failing step, or -1.
func (s *Stability) FirstFailure() float64 { return s.firstFailure }

// PeakSpeed is the highest finite speed seen.
func (s *Stability) PeakSpeed() float64 { return s.peakSpeed }

func (s *Stability) Reset() {
	*s = Stability{SpeedLimit: s.SpeedLimit, firstFailure: -1}
}
