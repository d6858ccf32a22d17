// internal/dtmf/detector.go
package dtmf

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/ColonelBlimp/dtmfdecoder/internal/dsp"
	"github.com/ColonelBlimp/dtmfdecoder/internal/pcm"
)

// Config holds detector parameters.
type Config struct {
	WindowMs             float64  // analysis window length
	Overlap              float64  // fraction of a window shared with the next, [0, 1)
	EnergyGateDBFS       float64  // windows at or above this RMS level are active
	TwistRatio           float64  // exclusive upper bound on best-tone imbalance
	NoiseFloorPercentile float64  // percentile of noise-window peaks, (0, 100]
	ThresholdMultiplier  float64  // absolute threshold = multiplier * noise floor
	FallbackNoiseFloor   float64  // noise floor when a recording has no noise windows
	MinDigitMs           float64  // events shorter than this are dropped, 0 disables
	Strategy             Strategy // which events Analysis.Events holds
	SpectralDiagnostics  bool     // run an FFT per window for reporting
}

// DefaultConfig returns the parameters used by the reference recordings.
func DefaultConfig() Config {
	return Config{
		WindowMs:             250,
		Overlap:              0.5,
		EnergyGateDBFS:       -20,
		TwistRatio:           4.0,
		NoiseFloorPercentile: 95,
		ThresholdMultiplier:  10,
		FallbackNoiseFloor:   1000,
		MinDigitMs:           0,
		Strategy:             RegionConsensus,
	}
}

// Validate checks the parameters that do not depend on the input buffer.
func (c Config) Validate() error {
	switch {
	case !(c.WindowMs > 0) || math.IsInf(c.WindowMs, 0):
		return &ConfigError{Param: "window_ms", Value: c.WindowMs, Reason: "must be positive"}
	case !(c.Overlap >= 0 && c.Overlap < 1):
		return &ConfigError{Param: "overlap", Value: c.Overlap, Reason: "must be in [0, 1)"}
	case !(c.TwistRatio > 1):
		return &ConfigError{Param: "twist_ratio", Value: c.TwistRatio, Reason: "must be greater than 1"}
	case !(c.NoiseFloorPercentile > 0 && c.NoiseFloorPercentile <= 100):
		return &ConfigError{Param: "noise_floor_percentile", Value: c.NoiseFloorPercentile, Reason: "must be in (0, 100]"}
	case !(c.ThresholdMultiplier > 0):
		return &ConfigError{Param: "threshold_multiplier", Value: c.ThresholdMultiplier, Reason: "must be positive"}
	case !(c.FallbackNoiseFloor >= 0):
		return &ConfigError{Param: "fallback_noise_floor", Value: c.FallbackNoiseFloor, Reason: "must not be negative"}
	case !(c.MinDigitMs >= 0):
		return &ConfigError{Param: "min_digit_ms", Value: c.MinDigitMs, Reason: "must not be negative"}
	case !slices.Contains(Strategies, c.Strategy):
		return &ConfigError{Param: "strategy", Value: c.Strategy, Reason: "unknown strategy"}
	}
	return nil
}

// layout derives window length and hop for a buffer and checks them.
func (c Config) layout(n int, sampleRate float64) (length, hop int, err error) {
	if !(sampleRate > 0) {
		return 0, 0, &ConfigError{Param: "sample_rate", Value: sampleRate, Reason: "must be positive"}
	}
	if top := highFrequencies[len(highFrequencies)-1]; top >= sampleRate/2 {
		return 0, 0, &ConfigError{
			Param:  "sample_rate",
			Value:  sampleRate,
			Reason: fmt.Sprintf("%.0f Hz tone is at or above the Nyquist frequency", top),
		}
	}

	// compare before converting, a huge window_ms would overflow int
	if exact := math.Floor(c.WindowMs * sampleRate / 1000); exact > float64(n) {
		return 0, 0, &ConfigError{
			Param:  "window_ms",
			Value:  c.WindowMs,
			Reason: fmt.Sprintf("window of %.0f samples is longer than the %d sample buffer", exact, n),
		}
	}
	length = dsp.WindowLength(c.WindowMs, sampleRate)
	if length < 2 {
		return 0, 0, &ConfigError{Param: "window_ms", Value: c.WindowMs, Reason: "window is shorter than 2 samples"}
	}

	hop = dsp.HopLength(length, c.Overlap)
	if hop < 1 {
		return 0, 0, &ConfigError{Param: "overlap", Value: c.Overlap, Reason: "hop is shorter than one sample"}
	}
	return length, hop, nil
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l
		}
	}
}

// Detector runs the full pipeline over buffered recordings. It holds no
// per-run state, so one Detector can analyze many buffers.
type Detector struct {
	cfg        Config
	logger     *slog.Logger
	assemblers []Assembler
}

// NewDetector validates cfg and creates a Detector.
func NewDetector(cfg Config, opts ...Option) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Detector{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}

	minDuration := cfg.MinDigitMs / 1000
	for _, s := range Strategies {
		a, err := NewAssembler(s, minDuration)
		if err != nil {
			return nil, err
		}
		d.assemblers = append(d.assemblers, a)
	}
	return d, nil
}

// Config returns the detector configuration.
func (d *Detector) Config() Config { return d.cfg }

// Analyze decodes buf. Configuration problems that depend on the buffer
// (window longer than the recording, hop under one sample, a tone above
// Nyquist) are reported as *ConfigError before any window is processed. A
// recording without any active window is not an error: the result simply
// has no events and Diagnostics.Degenerate set.
func (d *Detector) Analyze(buf pcm.Buffer) (*Analysis, error) {
	started := time.Now()

	if buf.Len() == 0 {
		return nil, ErrEmptyInput
	}
	rate := buf.SampleRate()
	length, hop, err := d.cfg.layout(buf.Len(), rate)
	if err != nil {
		return nil, err
	}

	samples := buf.Float64()
	bank, err := NewFilterBank(rate, length)
	if err != nil {
		return nil, fmt.Errorf("build filter bank: %w", err)
	}
	lowBins, highBins := bank.BinFrequencies()
	d.logger.Debug("filter bank",
		"window", length,
		"hop", hop,
		"low_bins_hz", lowBins,
		"high_bins_hz", highBins)
	windower, err := dsp.NewWindower(samples, rate, length, hop)
	if err != nil {
		return nil, fmt.Errorf("slice windows: %w", err)
	}

	var spectrum *dsp.SpectrumAnalyzer
	if d.cfg.SpectralDiagnostics {
		if spectrum, err = dsp.NewSpectrumAnalyzer(length, rate); err != nil {
			return nil, fmt.Errorf("spectrum analyzer: %w", err)
		}
	}

	gate := EnergyGate{ThresholdDB: d.cfg.EnergyGateDBFS}
	windows := make([]WindowClassification, 0, windower.Count())
	var noisePeaks []float64

	for w := range windower.All() {
		r, err := bank.Evaluate(w.Samples())
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", w.Index, err)
		}
		c := WindowClassification{
			Window: w,
			Active: gate.Active(w.EnergyDB),
			Bank:   r,
			Twist:  r.Twist(),
		}
		if spectrum != nil {
			c.Spectral = spectralPeaks(spectrum, w.Samples())
		}
		if !c.Active {
			noisePeaks = append(noisePeaks, r.Peak())
		}
		windows = append(windows, c)
	}

	cal := Calibrate(noisePeaks, d.cfg.NoiseFloorPercentile, d.cfg.ThresholdMultiplier, d.cfg.FallbackNoiseFloor)
	if cal.Fallback {
		d.logger.Warn("no noise windows, using fallback noise floor",
			"noise_floor", cal.NoiseFloor, "threshold", cal.Threshold)
	} else {
		d.logger.Debug("noise floor calibrated",
			"noise_windows", cal.NoiseWindows,
			"percentile", cal.Percentile,
			"noise_floor", cal.NoiseFloor,
			"threshold", cal.Threshold)
	}

	dec := Decoder{Threshold: cal.Threshold, TwistLimit: d.cfg.TwistRatio}
	for i := range windows {
		windows[i].Digit = dec.Decode(windows[i].Bank, windows[i].Active)
	}

	regions := Segment(windows)
	for _, r := range regions {
		d.logger.Debug("tone region",
			"index", r.Index,
			"start", r.Start,
			"end", r.End,
			"windows", len(r.Members),
			"digit", r.Digit.String(),
			"votes", r.DigitVotes)
	}

	end := float64(buf.Len()) / rate
	a := &Analysis{
		Config:       d.cfg,
		SampleRate:   rate,
		Samples:      buf.Len(),
		Duration:     end,
		WindowLength: length,
		Hop:          hop,
		Stats:        dsp.ComputeStats(samples),
		Calibration:  cal,
		Windows:      windows,
		Regions:      regions,
		Strategy:     d.cfg.Strategy,
		events:       make(map[Strategy][]DigitEvent, len(d.assemblers)),
	}
	for _, asm := range d.assemblers {
		a.events[asm.Strategy()] = asm.Assemble(windows, regions, end)
	}
	a.Events = a.events[d.cfg.Strategy]
	a.Diagnostics = diagnose(a)

	if a.Diagnostics.Degenerate {
		d.logger.Info("no active windows, signal is degenerate",
			"windows", len(windows), "gate_dbfs", d.cfg.EnergyGateDBFS)
	}
	a.Elapsed = time.Since(started)
	d.logger.Debug("analysis complete",
		"windows", len(windows),
		"active", a.ActiveWindows(),
		"regions", len(regions),
		"strategy", a.Strategy.String(),
		"sequence", a.Sequence(),
		"elapsed", a.Elapsed)

	return a, nil
}

// Analysis is the result of one Detector run.
type Analysis struct {
	Config       Config
	SampleRate   float64
	Samples      int
	Duration     float64 // seconds
	WindowLength int     // samples
	Hop          int     // samples
	Stats        dsp.Stats
	Calibration  Calibration
	Windows      []WindowClassification
	Regions      []Region
	Strategy     Strategy
	Events       []DigitEvent // events of Strategy
	Diagnostics  Diagnostics
	Elapsed      time.Duration

	events map[Strategy][]DigitEvent
}

// EventsFor returns the events produced by strategy s.
func (a *Analysis) EventsFor(s Strategy) []DigitEvent {
	return a.events[s]
}

// Sequence returns the decoded string for the configured strategy.
func (a *Analysis) Sequence() string {
	return Sequence(a.Events)
}

// ActiveWindows counts windows that passed the energy gate.
func (a *Analysis) ActiveWindows() int {
	n := 0
	for _, w := range a.Windows {
		if w.Active {
			n++
		}
	}
	return n
}
