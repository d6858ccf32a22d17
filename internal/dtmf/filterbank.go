package dtmf

import (
	"fmt"
	"math"

	"github.com/ColonelBlimp/dtmfdecoder/internal/dsp"
	"gonum.org/v1/gonum/floats"
)

// twistEpsilon guards the twist ratio against a zero denominator.
const twistEpsilon = 1e-10

// FilterBank holds one Goertzel filter per DTMF frequency for a fixed window
// length. It is immutable after construction and safe for concurrent use.
type FilterBank struct {
	low  [4]*dsp.Goertzel
	high [4]*dsp.Goertzel
	size int
}

// NewFilterBank builds the eight filters for windows of windowLength samples.
func NewFilterBank(sampleRate float64, windowLength int) (*FilterBank, error) {
	fb := &FilterBank{size: windowLength}
	for i := range lowFrequencies {
		g, err := dsp.NewGoertzel(dsp.GoertzelConfig{
			TargetFrequency: lowFrequencies[i],
			SampleRate:      sampleRate,
			BlockSize:       windowLength,
		})
		if err != nil {
			return nil, fmt.Errorf("filter %.0f Hz: %w", lowFrequencies[i], err)
		}
		fb.low[i] = g
	}
	for i := range highFrequencies {
		g, err := dsp.NewGoertzel(dsp.GoertzelConfig{
			TargetFrequency: highFrequencies[i],
			SampleRate:      sampleRate,
			BlockSize:       windowLength,
		})
		if err != nil {
			return nil, fmt.Errorf("filter %.0f Hz: %w", highFrequencies[i], err)
		}
		fb.high[i] = g
	}
	return fb, nil
}

// BinFrequencies returns the centre frequencies the eight filters were
// snapped to, in the order of the row and column tables.
func (fb *FilterBank) BinFrequencies() (low, high [4]float64) {
	for i := range fb.low {
		low[i] = fb.low[i].BinFrequency()
		high[i] = fb.high[i].BinFrequency()
	}
	return low, high
}

// WindowLength returns the number of samples each evaluation consumes.
func (fb *FilterBank) WindowLength() int { return fb.size }

// Evaluate runs all eight filters over the first WindowLength samples.
func (fb *FilterBank) Evaluate(samples []float64) (BankResult, error) {
	if len(samples) < fb.size {
		return BankResult{}, dsp.ErrInsufficientSamples
	}

	var r BankResult
	for i, g := range fb.low {
		r.Low[i] = g.MagnitudeNoAlloc(samples)
	}
	for i, g := range fb.high {
		r.High[i] = g.MagnitudeNoAlloc(samples)
	}
	r.LowIndex = floats.MaxIdx(r.Low[:])
	r.HighIndex = floats.MaxIdx(r.High[:])
	return r, nil
}

// BankResult holds the eight magnitudes of one window and the strongest
// tone of each group.
type BankResult struct {
	Low       [4]float64
	High      [4]float64
	LowIndex  int
	HighIndex int
}

// LowFrequency returns the strongest row tone.
func (r BankResult) LowFrequency() float64 { return lowFrequencies[r.LowIndex] }

// LowMagnitude returns the magnitude of the strongest row tone.
func (r BankResult) LowMagnitude() float64 { return r.Low[r.LowIndex] }

// HighFrequency returns the strongest column tone.
func (r BankResult) HighFrequency() float64 { return highFrequencies[r.HighIndex] }

// HighMagnitude returns the magnitude of the strongest column tone.
func (r BankResult) HighMagnitude() float64 { return r.High[r.HighIndex] }

// Peak returns max(best low, best high), the statistic the noise floor is
// built from.
func (r BankResult) Peak() float64 {
	return math.Max(r.LowMagnitude(), r.HighMagnitude())
}

// Twist returns the ratio of the stronger to the weaker best tone.
func (r BankResult) Twist() float64 {
	return Twist(r.LowMagnitude(), r.HighMagnitude())
}

// Pair returns the digit encoded by the best tones. The lookup is closed:
// every pair of best tones maps to a digit.
func (r BankResult) Pair() Digit {
	return Lookup(r.LowIndex, r.HighIndex)
}

// Twist returns max(a, b)/max(min(a, b), epsilon).
func Twist(a, b float64) float64 {
	return math.Max(a, b) / math.Max(math.Min(a, b), twistEpsilon)
}
