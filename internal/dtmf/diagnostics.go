// internal/dtmf/diagnostics.go
package dtmf

import (
	"math"
	"slices"

	"github.com/ColonelBlimp/dtmfdecoder/internal/dsp"
)

// spectralHistogramSize caps the FFT peak histograms, which can hold one
// entry per bin.
const spectralHistogramSize = 5

// SpectralPeaks is the Hann-windowed FFT view of one window. It is reported
// next to the Goertzel decode and never feeds into it.
type SpectralPeaks struct {
	Low         dsp.BandPeak
	High        dsp.BandPeak
	NearestLow  float64 // 0 when the band had no peak
	NearestHigh float64
	Digit       Digit // digit of the snapped pair
	Twist       float64
}

func spectralPeaks(s *dsp.SpectrumAnalyzer, samples []float64) *SpectralPeaks {
	mags := s.Magnitudes(samples)
	p := &SpectralPeaks{
		Low:  s.Peak(mags, LowBandMin, LowBandMax),
		High: s.Peak(mags, HighBandMin, HighBandMax),
	}
	if p.Low.Frequency > 0 {
		p.NearestLow = NearestLow(p.Low.Frequency)
	}
	if p.High.Frequency > 0 {
		p.NearestHigh = NearestHigh(p.High.Frequency)
	}
	p.Digit, _ = LookupPair(p.NearestLow, p.NearestHigh)
	p.Twist = Twist(p.Low.Magnitude, p.High.Magnitude)
	return p
}

// Diagnostics explains a run: how well the filter bank separates tone from
// noise and why an amplitude-relative threshold would have failed.
type Diagnostics struct {
	Degenerate    bool // no window passed the energy gate
	Fallback      bool // threshold came from the fallback noise floor
	SNR           *SignalToNoise
	PeakThreshold *PeakThresholdCheck

	// Goertzel winners over active windows, most common first
	LowWinners  []FrequencyCount
	HighWinners []FrequencyCount

	// FFT band peaks over active windows, only with spectral diagnostics
	SpectralLow  []FrequencyCount
	SpectralHigh []FrequencyCount
}

// SignalToNoise compares the loudest noise window to the quietest active
// window, both measured as the peak filter magnitude. Any threshold below
// NoiseMax lets noise through.
type SignalToNoise struct {
	NoiseMax  float64
	ActiveMin float64 // 0 when no window is active
	Ratio     float64
}

// PeakThresholdCheck measures one noise window against the
// peak-amplitude-percentage threshold. Goertzel output grows with N/2 times
// amplitude while such a threshold grows with amplitude alone, so the filter
// magnitude clears it by a wide margin even in noise.
type PeakThresholdCheck struct {
	WindowIndex   int
	Time          float64
	WindowLength  int
	PeakAmplitude float64
	Threshold10   float64 // 10% of peak amplitude
	Threshold30   float64 // 30% of peak amplitude
	GoertzelPeak  float64
}

// Exceeds10 returns how many times the Goertzel peak exceeds the 10% threshold.
func (p PeakThresholdCheck) Exceeds10() float64 {
	return p.GoertzelPeak / math.Max(p.Threshold10, twistEpsilon)
}

// Exceeds30 returns how many times the Goertzel peak exceeds the 30% threshold.
func (p PeakThresholdCheck) Exceeds30() float64 {
	return p.GoertzelPeak / math.Max(p.Threshold30, twistEpsilon)
}

// FrequencyCount is one histogram bucket.
type FrequencyCount struct {
	Frequency float64
	Count     int
}

func diagnose(a *Analysis) Diagnostics {
	d := Diagnostics{
		Degenerate: len(a.Regions) == 0,
		Fallback:   a.Calibration.Fallback,
	}

	var noise, active []WindowClassification
	for _, w := range a.Windows {
		if w.Active {
			active = append(active, w)
		} else {
			noise = append(noise, w)
		}
	}

	if len(noise) > 0 {
		snr := &SignalToNoise{}
		for _, w := range noise {
			snr.NoiseMax = math.Max(snr.NoiseMax, w.Bank.Peak())
		}
		for i, w := range active {
			if p := w.Bank.Peak(); i == 0 || p < snr.ActiveMin {
				snr.ActiveMin = p
			}
		}
		snr.Ratio = snr.ActiveMin / math.Max(snr.NoiseMax, twistEpsilon)
		d.SNR = snr

		mid := noise[len(noise)/2]
		peak := dsp.PeakAbs(mid.Window.Samples())
		d.PeakThreshold = &PeakThresholdCheck{
			WindowIndex:   mid.Window.Index,
			Time:          mid.Window.CenterTime,
			WindowLength:  mid.Window.Length,
			PeakAmplitude: peak,
			Threshold10:   peak * 0.1,
			Threshold30:   peak * 0.3,
			GoertzelPeak:  mid.Bank.Peak(),
		}
	}

	if len(active) > 0 {
		var lows, highs, fftLows, fftHighs tally[float64]
		spectral := false
		for _, w := range active {
			lows.add(w.Bank.LowFrequency())
			highs.add(w.Bank.HighFrequency())
			if w.Spectral != nil {
				spectral = true
				fftLows.add(round1(w.Spectral.Low.Frequency))
				fftHighs.add(round1(w.Spectral.High.Frequency))
			}
		}
		d.LowWinners = histogram(&lows, 0)
		d.HighWinners = histogram(&highs, 0)
		if spectral {
			d.SpectralLow = histogram(&fftLows, spectralHistogramSize)
			d.SpectralHigh = histogram(&fftHighs, spectralHistogramSize)
		}
	}

	return d
}

// histogram orders a tally by count, most common first, keeping first-seen
// order between equal counts. limit <= 0 keeps every bucket.
func histogram(t *tally[float64], limit int) []FrequencyCount {
	out := make([]FrequencyCount, 0, len(t.order))
	for _, f := range t.order {
		out = append(out, FrequencyCount{Frequency: f, Count: t.counts[f]})
	}
	slices.SortStableFunc(out, func(a, b FrequencyCount) int {
		return b.Count - a.Count
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
