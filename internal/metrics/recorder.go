package metrics

import "github.com/san-kum/sphfluid/internal/dynamo"

// Frame is an aggregate snapshot of the fluid at one step.
type Frame struct {
	Step          int
	Time          float64
	KineticEnergy float64
	MeanDensity   float64
	DensityStdDev float64
	MaxDensity    float64
	MaxSpeed      float64
	Finite        float64
}

// Sample computes a Frame for the current view.
func Sample(step int, t float64, v dynamo.View) Frame {
	mean, std := DensityStats(v)
	return Frame{
		Step:          step,
		Time:          t,
		KineticEnergy: KineticEnergy(v),
		MeanDensity:   mean,
		DensityStdDev: std,
		MaxDensity:    MaxDensity(v),
		MaxSpeed:      MaxSpeed(v),
		Finite:        FiniteFraction(v),
	}
}

// Recorder is an observer that samples a Frame every N steps. When limit is
// positive only the most recent limit frames are kept.
type Recorder struct {
	every  int
	limit  int
	frames []Frame
}

func NewRecorder(every, limit int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{every: every, limit: limit}
}

func (r *Recorder) OnStep(step int, t float64, v dynamo.View) {
	if step%r.every != 0 {
		return
	}
	r.frames = append(r.frames, Sample(step, t, v))
	if r.limit > 0 && len(r.frames) > r.limit {
		r.frames = append(r.frames[:0], r.frames[len(r.frames)-r.limit:]...)
	}
}

func (r *Recorder) Frames() []Frame {
	return r.frames
}

// Series extracts one field of every recorded frame, in order, skipping
// non-finite values.
func (r *Recorder) Series(field func(Frame) float64) []float64 {
	out := make([]float64, 0, len(r.frames))
	for _, f := range r.frames {
		if v := field(f); finite(v) {
			out = append(out, v)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.frames = r.frames[:0]
}
