// internal/dsp/goertzel.go
package dsp

import (
	"errors"
	"math"
)

var (
	// ErrInvalidBlockSize indicates block size must be positive
	ErrInvalidBlockSize = errors.New("block size must be positive")
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidFrequency indicates frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("target frequency must be positive and less than Nyquist frequency")
	// ErrInsufficientSamples indicates not enough samples for the configured block size
	ErrInsufficientSamples = errors.New("insufficient samples for block size")
)

// GoertzelConfig holds configuration for one Goertzel filter.
type GoertzelConfig struct {
	// TargetFrequency is the frequency to measure in Hz
	TargetFrequency float64
	// SampleRate is the audio sample rate in Hz
	SampleRate float64
	// BlockSize is the number of samples per analysis window
	BlockSize int
}

// Goertzel measures the DFT magnitude of a single bin.
//
// The target frequency is snapped to the nearest integer bin
// k = round(N*f/Fs). The magnitude is not normalised: a full-window tone of
// amplitude A lands near A*N/2, so it scales with both amplitude and block
// size. Detection thresholds downstream depend on that scaling.
type Goertzel struct {
	config      GoertzelConfig
	bin         int
	coefficient float64 // 2 * cos(ω)
	sine        float64 // sin(ω)
	cosine      float64 // cos(ω)
}

// NewGoertzel creates a new Goertzel filter with the given configuration.
// Returns an error if the configuration is invalid.
func NewGoertzel(cfg GoertzelConfig) (*Goertzel, error) {
	if cfg.BlockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	if cfg.SampleRate <= 0 || math.IsNaN(cfg.SampleRate) || math.IsInf(cfg.SampleRate, 0) {
		return nil, ErrInvalidSampleRate
	}
	nyquist := cfg.SampleRate / 2.0
	if cfg.TargetFrequency <= 0 || cfg.TargetFrequency >= nyquist || math.IsNaN(cfg.TargetFrequency) {
		return nil, ErrInvalidFrequency
	}

	n := float64(cfg.BlockSize)
	k := int(0.5 + n*cfg.TargetFrequency/cfg.SampleRate)
	omega := 2.0 * math.Pi * float64(k) / n
	cosine := math.Cos(omega)

	return &Goertzel{
		config:      cfg,
		bin:         k,
		coefficient: 2.0 * cosine,
		sine:        math.Sin(omega),
		cosine:      cosine,
	}, nil
}

// Magnitude computes the magnitude of the target bin over the first
// BlockSize samples.
func (g *Goertzel) Magnitude(samples []float64) (float64, error) {
	if len(samples) < g.config.BlockSize {
		return 0, ErrInsufficientSamples
	}

	return g.computeMagnitude(samples), nil
}

// MagnitudeNoAlloc computes magnitude without bounds checking for hot path usage.
// Caller MUST ensure samples has at least BlockSize elements.
func (g *Goertzel) MagnitudeNoAlloc(samples []float64) float64 {
	return g.computeMagnitude(samples)
}

func (g *Goertzel) computeMagnitude(samples []float64) float64 {
	var q0, q1, q2 float64
	coeff := g.coefficient

	for _, x := range samples[:g.config.BlockSize] {
		q0 = coeff*q1 - q2 + x
		q2 = q1
		q1 = q0
	}

	re := q1 - q2*g.cosine
	im := q2 * g.sine
	return math.Sqrt(re*re + im*im)
}

// Bin returns the DFT bin index the target frequency was snapped to.
func (g *Goertzel) Bin() int {
	return g.bin
}

// BinFrequency returns the centre frequency of the snapped bin in Hz.
func (g *Goertzel) BinFrequency() float64 {
	return float64(g.bin) * g.config.SampleRate / float64(g.config.BlockSize)
}
