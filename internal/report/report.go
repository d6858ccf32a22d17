// Package report renders detector runs and parameter sweeps as text, JSON
// or YAML.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ColonelBlimp/dtmfdecoder/internal/dtmf"
)

// Format selects a renderer.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ErrUnknownFormat is returned for an output format that has no renderer.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat accepts text, json, yaml and yml in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Options controls how much of a run is rendered.
type Options struct {
	Windows bool // include the per-window table
}

// Report is the serialisable projection of one analysis.
type Report struct {
	Sequence    string           `json:"sequence" yaml:"sequence"`
	Strategy    string           `json:"strategy" yaml:"strategy"`
	Events      []Event          `json:"events" yaml:"events"`
	Strategies  []StrategyResult `json:"strategies" yaml:"strategies"`
	Input       Input            `json:"input" yaml:"input"`
	Parameters  Parameters       `json:"parameters" yaml:"parameters"`
	Stats       Stats            `json:"stats" yaml:"stats"`
	Calibration Calibration      `json:"calibration" yaml:"calibration"`
	Regions     []Region         `json:"regions" yaml:"regions"`
	Windows     []Window         `json:"windows,omitempty" yaml:"windows,omitempty"`
	Diagnostics Diagnostics      `json:"diagnostics" yaml:"diagnostics"`
	ElapsedMs   float64          `json:"elapsed_ms" yaml:"elapsed_ms"`
}

type Event struct {
	Digit            string  `json:"digit" yaml:"digit"`
	StartTimeSeconds float64 `json:"start_time_seconds" yaml:"start_time_seconds"`
	DurationMs       float64 `json:"duration_ms" yaml:"duration_ms"`
}

// StrategyResult is the decoded sequence of one assembly strategy.
type StrategyResult struct {
	Strategy string `json:"strategy" yaml:"strategy"`
	Sequence string `json:"sequence" yaml:"sequence"`
	Events   int    `json:"events" yaml:"events"`
}

type Input struct {
	SampleRate      float64 `json:"sample_rate" yaml:"sample_rate"`
	Samples         int     `json:"samples" yaml:"samples"`
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`
}

type Parameters struct {
	WindowMs             float64 `json:"window_ms" yaml:"window_ms"`
	WindowSamples        int     `json:"window_samples" yaml:"window_samples"`
	HopSamples           int     `json:"hop_samples" yaml:"hop_samples"`
	Overlap              float64 `json:"overlap" yaml:"overlap"`
	EnergyGateDBFS       float64 `json:"energy_gate_dbfs" yaml:"energy_gate_dbfs"`
	TwistRatio           float64 `json:"twist_ratio" yaml:"twist_ratio"`
	NoiseFloorPercentile float64 `json:"noise_floor_percentile" yaml:"noise_floor_percentile"`
	ThresholdMultiplier  float64 `json:"threshold_multiplier" yaml:"threshold_multiplier"`
	FallbackNoiseFloor   float64 `json:"fallback_noise_floor" yaml:"fallback_noise_floor"`
	MinDigitMs           float64 `json:"min_digit_ms" yaml:"min_digit_ms"`
}

type Stats struct {
	Min            float64 `json:"min" yaml:"min"`
	Max            float64 `json:"max" yaml:"max"`
	Mean           float64 `json:"mean" yaml:"mean"`
	StdDev         float64 `json:"std" yaml:"std"`
	PeakAmplitude  float64 `json:"peak_amplitude" yaml:"peak_amplitude"`
	PeakDBFS       float64 `json:"peak_dbfs" yaml:"peak_dbfs"`
	RMS            float64 `json:"rms" yaml:"rms"`
	RMSDBFS        float64 `json:"rms_dbfs" yaml:"rms_dbfs"`
	Clipped        int     `json:"clipped_samples" yaml:"clipped_samples"`
	ClippedPercent float64 `json:"clipped_percent" yaml:"clipped_percent"`
}

type Calibration struct {
	NoiseWindows int     `json:"noise_windows" yaml:"noise_windows"`
	NoiseFloor   float64 `json:"noise_floor" yaml:"noise_floor"`
	Threshold    float64 `json:"threshold" yaml:"threshold"`
	Fallback     bool    `json:"fallback" yaml:"fallback"`
}

type Region struct {
	Index            int     `json:"index" yaml:"index"`
	StartTimeSeconds float64 `json:"start_time_seconds" yaml:"start_time_seconds"`
	EndTimeSeconds   float64 `json:"end_time_seconds" yaml:"end_time_seconds"`
	DurationMs       float64 `json:"duration_ms" yaml:"duration_ms"`
	Windows          int     `json:"windows" yaml:"windows"`
	Representative   int     `json:"representative_window" yaml:"representative_window"`
	Digit            string  `json:"digit" yaml:"digit"`
	DigitVotes       int     `json:"digit_votes" yaml:"digit_votes"`
	LowHz            float64 `json:"low_hz" yaml:"low_hz"`
	LowVotes         int     `json:"low_votes" yaml:"low_votes"`
	HighHz           float64 `json:"high_hz" yaml:"high_hz"`
	HighVotes        int     `json:"high_votes" yaml:"high_votes"`
}

type Window struct {
	Index             int       `json:"index" yaml:"index"`
	StartTimeSeconds  float64   `json:"start_time_seconds" yaml:"start_time_seconds"`
	CenterTimeSeconds float64   `json:"center_time_seconds" yaml:"center_time_seconds"`
	RMS               float64   `json:"rms" yaml:"rms"`
	EnergyDBFS        float64   `json:"energy_dbfs" yaml:"energy_dbfs"`
	Active            bool      `json:"active" yaml:"active"`
	LowHz             float64   `json:"low_hz" yaml:"low_hz"`
	LowMagnitude      float64   `json:"low_magnitude" yaml:"low_magnitude"`
	HighHz            float64   `json:"high_hz" yaml:"high_hz"`
	HighMagnitude     float64   `json:"high_magnitude" yaml:"high_magnitude"`
	Twist             float64   `json:"twist" yaml:"twist"`
	Digit             string    `json:"digit,omitempty" yaml:"digit,omitempty"`
	Spectral          *Spectral `json:"fft,omitempty" yaml:"fft,omitempty"`
}

// Spectral is the FFT cross-check of one window.
type Spectral struct {
	LowHz         float64 `json:"low_hz" yaml:"low_hz"`
	LowMagnitude  float64 `json:"low_magnitude" yaml:"low_magnitude"`
	HighHz        float64 `json:"high_hz" yaml:"high_hz"`
	HighMagnitude float64 `json:"high_magnitude" yaml:"high_magnitude"`
	NearestLowHz  float64 `json:"nearest_low_hz" yaml:"nearest_low_hz"`
	NearestHighHz float64 `json:"nearest_high_hz" yaml:"nearest_high_hz"`
	Digit         string  `json:"digit,omitempty" yaml:"digit,omitempty"`
	Twist         float64 `json:"twist" yaml:"twist"`
}

type Diagnostics struct {
	DegenerateSignal    bool            `json:"degenerate_signal" yaml:"degenerate_signal"`
	FallbackCalibration bool            `json:"fallback_calibration" yaml:"fallback_calibration"`
	SNR                 *SNR            `json:"snr,omitempty" yaml:"snr,omitempty"`
	PeakThreshold       *PeakThreshold  `json:"peak_threshold,omitempty" yaml:"peak_threshold,omitempty"`
	LowWinners          []FrequencyHits `json:"low_winners" yaml:"low_winners"`
	HighWinners         []FrequencyHits `json:"high_winners" yaml:"high_winners"`
	SpectralLow         []FrequencyHits `json:"fft_low_peaks,omitempty" yaml:"fft_low_peaks,omitempty"`
	SpectralHigh        []FrequencyHits `json:"fft_high_peaks,omitempty" yaml:"fft_high_peaks,omitempty"`
}

type SNR struct {
	NoiseMax  float64 `json:"noise_max" yaml:"noise_max"`
	ActiveMin float64 `json:"active_min" yaml:"active_min"`
	Ratio     float64 `json:"ratio" yaml:"ratio"`
}

type PeakThreshold struct {
	WindowIndex      int     `json:"window_index" yaml:"window_index"`
	TimeSeconds      float64 `json:"time_seconds" yaml:"time_seconds"`
	PeakAmplitude    float64 `json:"peak_amplitude" yaml:"peak_amplitude"`
	Threshold10      float64 `json:"threshold_10pct" yaml:"threshold_10pct"`
	Threshold30      float64 `json:"threshold_30pct" yaml:"threshold_30pct"`
	GoertzelPeak     float64 `json:"goertzel_peak" yaml:"goertzel_peak"`
	Exceeds10Percent float64 `json:"exceeds_10pct" yaml:"exceeds_10pct"`
	Exceeds30Percent float64 `json:"exceeds_30pct" yaml:"exceeds_30pct"`
}

type FrequencyHits struct {
	Hz    float64 `json:"hz" yaml:"hz"`
	Count int     `json:"count" yaml:"count"`
}

// New projects a into a Report.
func New(a *dtmf.Analysis, opts Options) *Report {
	cfg := a.Config
	r := &Report{
		Sequence: a.Sequence(),
		Strategy: a.Strategy.String(),
		Events:   events(a.Events),
		Input: Input{
			SampleRate:      a.SampleRate,
			Samples:         a.Samples,
			DurationSeconds: a.Duration,
		},
		Parameters: Parameters{
			WindowMs:             cfg.WindowMs,
			WindowSamples:        a.WindowLength,
			HopSamples:           a.Hop,
			Overlap:              cfg.Overlap,
			EnergyGateDBFS:       cfg.EnergyGateDBFS,
			TwistRatio:           cfg.TwistRatio,
			NoiseFloorPercentile: cfg.NoiseFloorPercentile,
			ThresholdMultiplier:  cfg.ThresholdMultiplier,
			FallbackNoiseFloor:   cfg.FallbackNoiseFloor,
			MinDigitMs:           cfg.MinDigitMs,
		},
		Stats: Stats{
			Min:            a.Stats.Min,
			Max:            a.Stats.Max,
			Mean:           a.Stats.Mean,
			StdDev:         a.Stats.StdDev,
			PeakAmplitude:  a.Stats.PeakAmplitude,
			PeakDBFS:       a.Stats.PeakDBFS,
			RMS:            a.Stats.RMS,
			RMSDBFS:        a.Stats.RMSDBFS,
			Clipped:        a.Stats.Clipped,
			ClippedPercent: a.Stats.ClippedPercent,
		},
		Calibration: Calibration{
			NoiseWindows: a.Calibration.NoiseWindows,
			NoiseFloor:   a.Calibration.NoiseFloor,
			Threshold:    a.Calibration.Threshold,
			Fallback:     a.Calibration.Fallback,
		},
		Regions:     make([]Region, 0, len(a.Regions)),
		Diagnostics: diagnostics(a.Diagnostics),
		ElapsedMs:   float64(a.Elapsed.Microseconds()) / 1000,
	}

	for _, s := range dtmf.Strategies {
		ev := a.EventsFor(s)
		r.Strategies = append(r.Strategies, StrategyResult{
			Strategy: s.String(),
			Sequence: dtmf.Sequence(ev),
			Events:   len(ev),
		})
	}

	for _, g := range a.Regions {
		r.Regions = append(r.Regions, Region{
			Index:            g.Index,
			StartTimeSeconds: g.Start,
			EndTimeSeconds:   g.End,
			DurationMs:       g.Duration() * 1000,
			Windows:          len(g.Members),
			Representative:   g.Representative,
			Digit:            g.Digit.String(),
			DigitVotes:       g.DigitVotes,
			LowHz:            g.LowFrequency,
			LowVotes:         g.LowVotes,
			HighHz:           g.HighFrequency,
			HighVotes:        g.HighVotes,
		})
	}

	if opts.Windows {
		r.Windows = make([]Window, 0, len(a.Windows))
		for _, c := range a.Windows {
			r.Windows = append(r.Windows, window(c))
		}
	}
	return r
}

func events(in []dtmf.DigitEvent) []Event {
	out := make([]Event, 0, len(in))
	for _, e := range in {
		out = append(out, Event{
			Digit:            e.Digit.String(),
			StartTimeSeconds: e.Start,
			DurationMs:       e.DurationMs(),
		})
	}
	return out
}

func window(c dtmf.WindowClassification) Window {
	w := Window{
		Index:             c.Window.Index,
		StartTimeSeconds:  c.Window.StartTime,
		CenterTimeSeconds: c.Window.CenterTime,
		RMS:               c.Window.RMS,
		EnergyDBFS:        c.Window.EnergyDB,
		Active:            c.Active,
		LowHz:             c.Bank.LowFrequency(),
		LowMagnitude:      c.Bank.LowMagnitude(),
		HighHz:            c.Bank.HighFrequency(),
		HighMagnitude:     c.Bank.HighMagnitude(),
		Twist:             c.Twist,
		Digit:             c.Digit.String(),
	}
	if s := c.Spectral; s != nil {
		w.Spectral = &Spectral{
			LowHz:         s.Low.Frequency,
			LowMagnitude:  s.Low.Magnitude,
			HighHz:        s.High.Frequency,
			HighMagnitude: s.High.Magnitude,
			NearestLowHz:  s.NearestLow,
			NearestHighHz: s.NearestHigh,
			Digit:         s.Digit.String(),
			Twist:         s.Twist,
		}
	}
	return w
}

func diagnostics(d dtmf.Diagnostics) Diagnostics {
	out := Diagnostics{
		DegenerateSignal:    d.Degenerate,
		FallbackCalibration: d.Fallback,
		LowWinners:          hits(d.LowWinners),
		HighWinners:         hits(d.HighWinners),
		SpectralLow:         hits(d.SpectralLow),
		SpectralHigh:        hits(d.SpectralHigh),
	}
	if d.SNR != nil {
		out.SNR = &SNR{NoiseMax: d.SNR.NoiseMax, ActiveMin: d.SNR.ActiveMin, Ratio: d.SNR.Ratio}
	}
	if p := d.PeakThreshold; p != nil {
		out.PeakThreshold = &PeakThreshold{
			WindowIndex:      p.WindowIndex,
			TimeSeconds:      p.Time,
			PeakAmplitude:    p.PeakAmplitude,
			Threshold10:      p.Threshold10,
			Threshold30:      p.Threshold30,
			GoertzelPeak:     p.GoertzelPeak,
			Exceeds10Percent: p.Exceeds10(),
			Exceeds30Percent: p.Exceeds30(),
		}
	}
	return out
}

func hits(in []dtmf.FrequencyCount) []FrequencyHits {
	if in == nil {
		return nil
	}
	out := make([]FrequencyHits, len(in))
	for i, f := range in {
		out[i] = FrequencyHits{Hz: f.Frequency, Count: f.Count}
	}
	return out
}

// Write renders r to w in the given format.
func (r *Report) Write(w io.Writer, f Format) error {
	switch f {
	case Text:
		return writeText(w, r)
	case JSON:
		return writeJSON(w, r)
	case YAML:
		return writeYAML(w, r)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
