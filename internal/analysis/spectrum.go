package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

var ErrShortSeries = errors.New("series too short")

// Spectrum returns the one-sided amplitude spectrum of a series sampled
// every interval seconds. The mean is removed first, so amps[0] is zero
// for any input.
func Spectrum(series []float64, interval float64) (freqs, amps []float64) {
	n := len(series)
	if n < 2 || interval <= 0 {
		return nil, nil
	}

	mean := stat.Mean(series, nil)
	centered := make([]float64, n)
	for i, v := range series {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, centered)

	freqs = make([]float64, len(coeffs))
	amps = make([]float64, len(coeffs))
	for i, c := range coeffs {
		freqs[i] = fft.Freq(i) / interval
		amps[i] = cmplx.Abs(c)
	}
	return freqs, amps
}

// DominantFrequency returns the frequency, in Hz, of the strongest
// non-constant component.
func DominantFrequency(series []float64, interval float64) (float64, error) {
	freqs, amps := Spectrum(series, interval)
	if len(amps) < 2 {
		return 0, ErrShortSeries
	}

	best := 1
	for i := 2; i < len(amps); i++ {
		if amps[i] > amps[best] {
			best = i
		}
	}
	return freqs[best], nil
}
