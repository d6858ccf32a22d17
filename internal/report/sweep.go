package report

import (
	"fmt"
	"io"

	"github.com/ColonelBlimp/dtmfdecoder/internal/sweep"
)

// SweepReport lists one row per grid point in grid order.
type SweepReport struct {
	Expect  string     `json:"expect,omitempty" yaml:"expect,omitempty"`
	Points  []SweepRow `json:"points" yaml:"points"`
	Matches int        `json:"matches" yaml:"matches"`
}

type SweepRow struct {
	WindowMs            float64 `json:"window_ms" yaml:"window_ms"`
	Overlap             float64 `json:"overlap" yaml:"overlap"`
	TwistRatio          float64 `json:"twist_ratio" yaml:"twist_ratio"`
	ThresholdMultiplier float64 `json:"threshold_multiplier" yaml:"threshold_multiplier"`
	Sequence            string  `json:"sequence" yaml:"sequence"`
	Events              int     `json:"events" yaml:"events"`
	Regions             int     `json:"regions" yaml:"regions"`
	Threshold           float64 `json:"threshold" yaml:"threshold"`
	Match               bool    `json:"match" yaml:"match"`
	Error               string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewSweep projects sweep results.
func NewSweep(results []sweep.Result, expect string) *SweepReport {
	r := &SweepReport{Expect: expect, Points: make([]SweepRow, 0, len(results))}
	for _, res := range results {
		row := SweepRow{
			WindowMs:            res.Params.WindowMs,
			Overlap:             res.Params.Overlap,
			TwistRatio:          res.Params.TwistRatio,
			ThresholdMultiplier: res.Params.ThresholdMultiplier,
			Sequence:            res.Sequence,
			Events:              len(res.Events),
			Regions:             res.Regions,
			Threshold:           res.Threshold,
			Match:               res.Match,
		}
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		if res.Match {
			r.Matches++
		}
		r.Points = append(r.Points, row)
	}
	return r
}

// Write renders s to w in the given format.
func (s *SweepReport) Write(w io.Writer, f Format) error {
	switch f {
	case Text:
		return writeSweepText(w, s)
	case JSON:
		return writeJSON(w, s)
	case YAML:
		return writeYAML(w, s)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

func writeSweepText(w io.Writer, s *SweepReport) error {
	t := newTextWriter(w)
	t.table("Window [ms]\tOverlap\tTwist\tMult\tThreshold\tRegions\tSequence\tMatch", func(w io.Writer) {
		for _, p := range s.Points {
			seq := fmt.Sprintf("%q", p.Sequence)
			if p.Error != "" {
				seq = "error: " + p.Error
			}
			match := ""
			if p.Match {
				match = "yes"
			}
			_, _ = fmt.Fprintf(w, "%.0f\t%.0f%%\t%.1f\t%.0fx\t%.1f\t%d\t%s\t%s\n",
				p.WindowMs, p.Overlap*100, p.TwistRatio, p.ThresholdMultiplier, p.Threshold, p.Regions, seq, match)
		}
	})
	if s.Expect != "" {
		t.printf("\n%d of %d parameter sets decoded %q\n", s.Matches, len(s.Points), s.Expect)
	}
	return t.err
}
