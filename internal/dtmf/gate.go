// internal/dtmf/gate.go
package dtmf

import (
	"math"
	"slices"
)

// EnergyGate separates active windows from noise by RMS level.
type EnergyGate struct {
	ThresholdDB float64 // dBFS
}

// Active reports whether a window at energyDB passes the gate.
func (g EnergyGate) Active(energyDB float64) bool {
	return energyDB >= g.ThresholdDB
}

// Calibration is the absolute detection threshold derived from the noise
// windows of one run.
type Calibration struct {
	NoiseWindows int
	Percentile   float64
	Multiplier   float64
	NoiseFloor   float64 // percentile of per-window peak filter magnitude
	Threshold    float64 // Multiplier * NoiseFloor
	Fallback     bool    // no noise windows, NoiseFloor is the configured fallback
}

// Calibrate computes the noise floor as the given percentile (0-100] of
// noisePeaks and scales it by multiplier. The threshold never depends on
// sample amplitude, only on what the filter bank reports for noise. When
// noisePeaks is empty the fallback floor is used instead.
func Calibrate(noisePeaks []float64, percentile, multiplier, fallback float64) Calibration {
	c := Calibration{
		NoiseWindows: len(noisePeaks),
		Percentile:   percentile,
		Multiplier:   multiplier,
	}

	if len(noisePeaks) == 0 {
		c.NoiseFloor = fallback
		c.Fallback = true
	} else {
		sorted := slices.Clone(noisePeaks)
		slices.Sort(sorted)
		c.NoiseFloor = percentileOf(sorted, percentile)
	}

	c.Threshold = c.NoiseFloor * multiplier
	return c
}

// percentileOf interpolates linearly between the closest ranks of sorted at
// position p/100 * (n-1), so p=0 is the minimum and p=100 the maximum.
func percentileOf(sorted []float64, p float64) float64 {
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
