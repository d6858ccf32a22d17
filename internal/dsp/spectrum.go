// internal/dsp/spectrum.go
package dsp

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/dsp/fourier"
)

// BandPeak is the strongest FFT bin inside a frequency band.
type BandPeak struct {
	Frequency float64
	Magnitude float64
}

// SpectrumAnalyzer computes Hann-windowed magnitude spectra for windows of
// one fixed length. It reuses scratch buffers, so a single analyzer must not
// be shared between goroutines.
type SpectrumAnalyzer struct {
	fft        *fourier.FFT
	sampleRate float64
	hann       []float64

	frame  []float64
	coeffs []complex128
	re, im []float64
	mags   []float64
}

// NewSpectrumAnalyzer creates an analyzer for windows of length samples.
func NewSpectrumAnalyzer(length int, sampleRate float64) (*SpectrumAnalyzer, error) {
	if length < 2 {
		return nil, ErrWindowTooShort
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	bins := length/2 + 1
	return &SpectrumAnalyzer{
		fft:        fourier.NewFFT(length),
		sampleRate: sampleRate,
		hann:       hannWindow(length),
		frame:      make([]float64, length),
		coeffs:     make([]complex128, bins),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
		mags:       make([]float64, bins),
	}, nil
}

// hannWindow returns the symmetric Hann window
// w[n] = 0.5 - 0.5*cos(2*pi*n/(N-1)).
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// Magnitudes returns the one-sided magnitude spectrum of samples. The
// returned slice is owned by the analyzer and overwritten by the next call.
func (s *SpectrumAnalyzer) Magnitudes(samples []float64) []float64 {
	n := len(s.frame)
	copy(s.frame, samples[:n])
	vecmath.MulBlockInPlace(s.frame, s.hann)

	s.fft.Coefficients(s.coeffs, s.frame)
	for i, c := range s.coeffs {
		s.re[i] = real(c)
		s.im[i] = imag(c)
	}
	vecmath.Magnitude(s.mags, s.re, s.im)
	return s.mags
}

// BinFrequency returns the centre frequency of bin i in Hz.
func (s *SpectrumAnalyzer) BinFrequency(i int) float64 {
	return s.fft.Freq(i) * s.sampleRate
}

// Peak returns the strongest bin of mags whose frequency lies in [lo, hi].
// The zero BandPeak is returned when no bin falls inside the band.
func (s *SpectrumAnalyzer) Peak(mags []float64, lo, hi float64) BandPeak {
	var peak BandPeak
	found := false
	for i, m := range mags {
		f := s.BinFrequency(i)
		if f < lo || f > hi {
			continue
		}
		if !found || m > peak.Magnitude {
			peak = BandPeak{Frequency: f, Magnitude: m}
			found = true
		}
	}
	return peak
}
