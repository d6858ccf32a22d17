// internal/dsp/window.go
package dsp

import (
	"errors"
	"iter"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// FullScale is the reference level for dBFS, a full-scale 16-bit sample
	FullScale = 32768.0
	// dbEpsilon keeps log10 finite for all-zero windows
	dbEpsilon = 1e-15
)

var (
	// ErrInvalidHop indicates the hop between windows must be at least one sample
	ErrInvalidHop = errors.New("hop must be at least one sample")
	// ErrWindowTooShort indicates a window must hold at least two samples
	ErrWindowTooShort = errors.New("window length must be at least 2 samples")
	// ErrWindowTooLong indicates the window does not fit inside the buffer
	ErrWindowTooLong = errors.New("window length exceeds buffer length")
)

// Window is a view into a sample buffer plus its derived timing and energy.
type Window struct {
	Index      int
	Offset     int
	Length     int
	StartTime  float64 // seconds
	CenterTime float64 // seconds
	RMS        float64
	EnergyDB   float64 // RMS in dB relative to full scale

	samples []float64
}

// Samples returns the window's slice of the underlying buffer. Callers must
// not modify it.
func (w Window) Samples() []float64 {
	return w.samples
}

// Windower slices a buffer into overlapping windows of constant length.
type Windower struct {
	samples    []float64
	sampleRate float64
	length     int
	hop        int
}

// WindowLength converts a duration in milliseconds to a sample count,
// saturating at math.MaxInt.
func WindowLength(windowMs, sampleRate float64) int {
	n := windowMs * sampleRate / 1000
	if n >= math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}

// HopLength returns the hop for a window length and overlap fraction.
// The result is truncated, so an overlap close to 1 can yield zero.
func HopLength(length int, overlap float64) int {
	return int(float64(length) * (1 - overlap))
}

// NewWindower creates a Windower over samples. The slice is not copied.
func NewWindower(samples []float64, sampleRate float64, length, hop int) (*Windower, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if length < 2 {
		return nil, ErrWindowTooShort
	}
	if hop < 1 {
		return nil, ErrInvalidHop
	}
	if length > len(samples) {
		return nil, ErrWindowTooLong
	}
	return &Windower{
		samples:    samples,
		sampleRate: sampleRate,
		length:     length,
		hop:        hop,
	}, nil
}

// Count returns the number of windows All will produce.
func (w *Windower) Count() int {
	if len(w.samples) < w.length {
		return 0
	}
	return (len(w.samples)-w.length)/w.hop + 1
}

// Length returns the window length in samples.
func (w *Windower) Length() int { return w.length }

// Hop returns the hop in samples.
func (w *Windower) Hop() int { return w.hop }

// All yields every full window in time order. The trailing partial window is
// dropped. The sequence can be ranged over any number of times.
func (w *Windower) All() iter.Seq[Window] {
	return func(yield func(Window) bool) {
		for i, offset := 0, 0; offset+w.length <= len(w.samples); i, offset = i+1, offset+w.hop {
			if !yield(w.window(i, offset)) {
				return
			}
		}
	}
}

func (w *Windower) window(index, offset int) Window {
	view := w.samples[offset : offset+w.length]
	rms := RMS(view)
	return Window{
		Index:      index,
		Offset:     offset,
		Length:     w.length,
		StartTime:  float64(offset) / w.sampleRate,
		CenterTime: float64(offset+w.length/2) / w.sampleRate,
		RMS:        rms,
		EnergyDB:   DBFS(rms),
		samples:    view,
	}
}

// RMS returns the root mean square of samples, or 0 for an empty slice.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(samples, samples) / float64(len(samples)))
}

// DBFS converts a linear amplitude in raw 16-bit units to dB full scale.
func DBFS(amplitude float64) float64 {
	return 20 * math.Log10(amplitude/FullScale+dbEpsilon)
}
