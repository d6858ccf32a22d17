package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// textWriter accumulates the first write error so the renderers can print
// line after line without checking each one.
type textWriter struct {
	p   *message.Printer
	w   io.Writer
	err error
}

func newTextWriter(w io.Writer) *textWriter {
	return &textWriter{p: message.NewPrinter(language.English), w: w}
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = t.p.Fprintf(t.w, format, args...)
}

// table writes a header and rows through a tabwriter and flushes it.
func (t *textWriter) table(header string, rows func(tw io.Writer)) {
	if t.err != nil {
		return
	}
	tw := tabwriter.NewWriter(t.w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, header)
	rows(tw)
	t.err = tw.Flush()
}

func writeText(w io.Writer, r *Report) error {
	t := newTextWriter(w)

	t.printf("Input:       %d samples @ %.0f Hz (%.3f s)\n", r.Input.Samples, r.Input.SampleRate, r.Input.DurationSeconds)
	t.printf("Window:      %.0f ms = %d samples, hop %d (%.0f%% overlap)\n",
		r.Parameters.WindowMs, r.Parameters.WindowSamples, r.Parameters.HopSamples, r.Parameters.Overlap*100)
	t.printf("Level:       peak %.0f (%.1f dBFS), rms %.1f (%.1f dBFS), %d clipped (%.2f%%)\n",
		r.Stats.PeakAmplitude, r.Stats.PeakDBFS, r.Stats.RMS, r.Stats.RMSDBFS, r.Stats.Clipped, r.Stats.ClippedPercent)

	cal := r.Calibration
	if cal.Fallback {
		t.printf("Threshold:   %.1f (fallback noise floor %.1f x %.0f)\n",
			cal.Threshold, cal.NoiseFloor, r.Parameters.ThresholdMultiplier)
	} else {
		t.printf("Threshold:   %.1f (p%.0f of %d noise windows = %.1f, x %.0f)\n",
			cal.Threshold, r.Parameters.NoiseFloorPercentile, cal.NoiseWindows, cal.NoiseFloor, r.Parameters.ThresholdMultiplier)
	}
	t.printf("\n")

	if len(r.Events) > 0 {
		t.table("Digit\tStart [s]\tDuration [ms]", func(w io.Writer) {
			for _, e := range r.Events {
				_, _ = fmt.Fprintf(w, "%s\t%.3f\t%.0f\n", e.Digit, e.StartTimeSeconds, e.DurationMs)
			}
		})
		t.printf("\n")
	}

	if len(r.Regions) > 0 {
		t.table("Region\tStart [s]\tEnd [s]\tWindows\tDigit\tVotes\tLow [Hz]\tHigh [Hz]", func(w io.Writer) {
			for _, g := range r.Regions {
				digit := g.Digit
				if digit == "" {
					digit = "-"
				}
				_, _ = fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%d\t%s\t%d/%d\t%.0f\t%.0f\n",
					g.Index, g.StartTimeSeconds, g.EndTimeSeconds, g.Windows, digit, g.DigitVotes, g.Windows, g.LowHz, g.HighHz)
			}
		})
		t.printf("\n")
	}

	if len(r.Windows) > 0 {
		t.table("Window\tCenter [s]\tdBFS\tActive\tLow [Hz]\tHigh [Hz]\tTwist\tDigit\tFFT", func(w io.Writer) {
			for _, c := range r.Windows {
				digit := c.Digit
				if digit == "" {
					digit = "-"
				}
				fft := "-"
				if s := c.Spectral; s != nil {
					fft = fmt.Sprintf("%.0f/%.0f %s", s.LowHz, s.HighHz, s.Digit)
				}
				_, _ = fmt.Fprintf(w, "%d\t%.3f\t%.1f\t%t\t%.0f\t%.0f\t%.2f\t%s\t%s\n",
					c.Index, c.CenterTimeSeconds, c.EnergyDBFS, c.Active, c.LowHz, c.HighHz, c.Twist, digit, fft)
			}
		})
		t.printf("\n")
	}

	writeDiagnostics(t, r.Diagnostics)

	for _, s := range r.Strategies {
		if s.Strategy != r.Strategy {
			t.printf("Alternative (%s): %q\n", s.Strategy, s.Sequence)
		}
	}
	t.printf("Sequence (%s): %q\n", r.Strategy, r.Sequence)
	return t.err
}

func writeDiagnostics(t *textWriter, d Diagnostics) {
	if d.DegenerateSignal {
		t.printf("Degenerate signal: no window passed the energy gate\n")
	}
	if d.FallbackCalibration {
		t.printf("Fallback calibration: no noise windows to measure\n")
	}
	if s := d.SNR; s != nil {
		t.printf("Goertzel SNR: noise max %.1f, active min %.1f, ratio %.1f\n", s.NoiseMax, s.ActiveMin, s.Ratio)
	}
	if p := d.PeakThreshold; p != nil {
		t.printf("Peak threshold check (window %d at %.3fs): peak %.0f, 10%% = %.1f (x%.1f), 30%% = %.1f (x%.1f), Goertzel %.1f\n",
			p.WindowIndex, p.TimeSeconds, p.PeakAmplitude, p.Threshold10, p.Exceeds10Percent, p.Threshold30, p.Exceeds30Percent, p.GoertzelPeak)
	}
	winners := func(label string, hits []FrequencyHits) {
		if len(hits) == 0 {
			return
		}
		t.printf("%s:", label)
		for _, h := range hits {
			t.printf(" %.0f Hz x%d", h.Hz, h.Count)
		}
		t.printf("\n")
	}
	winners("Low winners", d.LowWinners)
	winners("High winners", d.HighWinners)
	winners("FFT low peaks", d.SpectralLow)
	winners("FFT high peaks", d.SpectralHigh)
}
