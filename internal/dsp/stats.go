// internal/dsp/stats.go
package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ClipLevel is the absolute sample value above which a sample counts as clipped.
const ClipLevel = 32000

// Stats summarises a whole recording.
type Stats struct {
	Samples        int
	Min            float64
	Max            float64
	Mean           float64
	StdDev         float64 // population standard deviation
	PeakAmplitude  float64
	PeakDBFS       float64
	RMS            float64
	RMSDBFS        float64
	Clipped        int
	ClippedPercent float64
}

// ComputeStats returns level statistics for samples in raw 16-bit units.
// An empty slice yields the zero Stats.
func ComputeStats(samples []float64) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	lo, hi := floats.Min(samples), floats.Max(samples)
	mean := stat.Mean(samples, nil)
	// stat.StdDev applies the n-1 correction; level reports use the population value
	variance := stat.MomentAbout(2, samples, mean, nil)
	peak := math.Max(math.Abs(lo), math.Abs(hi))
	rms := RMS(samples)

	clipped := 0
	for _, s := range samples {
		if math.Abs(s) > ClipLevel {
			clipped++
		}
	}

	return Stats{
		Samples:        len(samples),
		Min:            lo,
		Max:            hi,
		Mean:           mean,
		StdDev:         math.Sqrt(variance),
		PeakAmplitude:  peak,
		PeakDBFS:       DBFS(peak),
		RMS:            rms,
		RMSDBFS:        DBFS(rms),
		Clipped:        clipped,
		ClippedPercent: 100 * float64(clipped) / float64(len(samples)),
	}
}

// PeakAbs returns the largest absolute sample value.
func PeakAbs(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}
