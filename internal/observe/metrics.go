// Package observe records detector runs as OpenTelemetry metrics and
// exports them through a Prometheus registry.
//
// Metrics are created against a caller-supplied [metric.MeterProvider], so
// tests can read them back with a manual reader instead of a global provider.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ColonelBlimp/dtmfdecoder/internal/dtmf"
)

// meterName is the instrumentation scope for all detector metrics.
const meterName = "github.com/ColonelBlimp/dtmfdecoder"

// Metrics holds the instruments for detector runs. All fields are safe for
// concurrent use.
type Metrics struct {
	// Analyses counts completed runs. Attribute: strategy.
	Analyses metric.Int64Counter

	// Windows counts analysis windows processed.
	Windows metric.Int64Counter

	// ActiveWindows counts windows that passed the energy gate.
	ActiveWindows metric.Int64Counter

	// Regions counts tone regions found.
	Regions metric.Int64Counter

	// Digits counts emitted digit events. Attribute: digit.
	Digits metric.Int64Counter

	// DegenerateRuns counts runs in which no window was active.
	DegenerateRuns metric.Int64Counter

	// FallbackRuns counts runs calibrated from the fallback noise floor.
	FallbackRuns metric.Int64Counter

	// AnalysisDuration tracks wall time per run.
	AnalysisDuration metric.Float64Histogram
}

// durationBuckets are histogram boundaries in seconds. A minute of audio
// analyses in well under a second.
var durationBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&met.Analyses, "dtmfdecoder.analyses", "Completed detector runs."},
		{&met.Windows, "dtmfdecoder.windows", "Analysis windows processed."},
		{&met.ActiveWindows, "dtmfdecoder.windows.active", "Windows that passed the energy gate."},
		{&met.Regions, "dtmfdecoder.regions", "Tone regions found."},
		{&met.Digits, "dtmfdecoder.digits", "Digit events emitted."},
		{&met.DegenerateRuns, "dtmfdecoder.degenerate_runs", "Runs without any active window."},
		{&met.FallbackRuns, "dtmfdecoder.fallback_runs", "Runs calibrated from the fallback noise floor."},
	}
	for _, c := range counters {
		if *c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}

	if met.AnalysisDuration, err = m.Float64Histogram("dtmfdecoder.analysis.duration",
		metric.WithDescription("Wall time of one detector run."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordAnalysis adds one finished run to the instruments.
func (m *Metrics) RecordAnalysis(ctx context.Context, a *dtmf.Analysis) {
	strategy := metric.WithAttributes(attribute.String("strategy", a.Strategy.String()))

	m.Analyses.Add(ctx, 1, strategy)
	m.Windows.Add(ctx, int64(len(a.Windows)))
	m.ActiveWindows.Add(ctx, int64(a.ActiveWindows()))
	m.Regions.Add(ctx, int64(len(a.Regions)))
	for _, e := range a.Events {
		m.Digits.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("digit", e.Digit.String()),
				attribute.String("strategy", a.Strategy.String()),
			),
		)
	}
	if a.Diagnostics.Degenerate {
		m.DegenerateRuns.Add(ctx, 1)
	}
	if a.Calibration.Fallback {
		m.FallbackRuns.Add(ctx, 1)
	}
	m.AnalysisDuration.Record(ctx, a.Elapsed.Seconds(), strategy)
}
