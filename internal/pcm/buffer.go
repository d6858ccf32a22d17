// Package pcm holds the in-memory sample buffer consumed by the detector and
// the loaders that produce it from recordings.
package pcm

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyBuffer indicates a recording without any samples
	ErrEmptyBuffer = errors.New("sample buffer is empty")
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
)

// Buffer is an immutable run of signed 16-bit samples at a fixed sample rate.
type Buffer struct {
	samples    []int16
	sampleRate float64
}

// NewBuffer copies samples into a new Buffer.
func NewBuffer(samples []int16, sampleRate float64) (Buffer, error) {
	if sampleRate <= 0 {
		return Buffer{}, ErrInvalidSampleRate
	}
	owned := make([]int16, len(samples))
	copy(owned, samples)
	return Buffer{samples: owned, sampleRate: sampleRate}, nil
}

// Len returns the number of samples.
func (b Buffer) Len() int {
	return len(b.samples)
}

// SampleRate returns the sample rate in Hz.
func (b Buffer) SampleRate() float64 {
	return b.sampleRate
}

// Duration returns the length of the recording.
func (b Buffer) Duration() time.Duration {
	if b.sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.samples)) / b.sampleRate * float64(time.Second))
}

// At returns sample i.
func (b Buffer) At(i int) int16 {
	return b.samples[i]
}

// Samples returns a copy of the raw samples.
func (b Buffer) Samples() []int16 {
	out := make([]int16, len(b.samples))
	copy(out, b.samples)
	return out
}

// Float64 converts the samples to float64 without rescaling, so downstream
// magnitudes stay in raw sample units.
func (b Buffer) Float64() []float64 {
	out := make([]float64, len(b.samples))
	for i, s := range b.samples {
		out[i] = float64(s)
	}
	return out
}

// Validate reports ErrEmptyBuffer or ErrInvalidSampleRate.
func (b Buffer) Validate() error {
	if b.sampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if len(b.samples) == 0 {
		return ErrEmptyBuffer
	}
	return nil
}

// String describes the buffer for logs.
func (b Buffer) String() string {
	return fmt.Sprintf("%d samples @ %.0f Hz (%s)", len(b.samples), b.sampleRate, b.Duration())
}
