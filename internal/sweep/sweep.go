// Package sweep runs the detector over a grid of parameter sets so a
// recording can be used to calibrate window length, overlap, twist and
// threshold multiplier.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ColonelBlimp/dtmfdecoder/internal/dtmf"
	"github.com/ColonelBlimp/dtmfdecoder/internal/pcm"
	"github.com/ColonelBlimp/dtmfdecoder/internal/recovery"
)

// Params is one point of the grid. Everything else comes from the base
// configuration.
type Params struct {
	WindowMs            float64
	Overlap             float64
	TwistRatio          float64
	ThresholdMultiplier float64
}

func (p Params) String() string {
	return fmt.Sprintf("win=%gms overlap=%g%% twist=%g mult=%gx",
		p.WindowMs, p.Overlap*100, p.TwistRatio, p.ThresholdMultiplier)
}

// apply overlays p on base.
func (p Params) apply(base dtmf.Config) dtmf.Config {
	base.WindowMs = p.WindowMs
	base.Overlap = p.Overlap
	base.TwistRatio = p.TwistRatio
	base.ThresholdMultiplier = p.ThresholdMultiplier
	return base
}

// DefaultGrid covers 100, 150 and 200 ms windows with the overlap and twist
// each was tuned with, crossed with three threshold multipliers.
func DefaultGrid() []Params {
	shapes := []struct{ window, overlap, twist float64 }{
		{100, 0.5, 4.0},
		{150, 0.5, 3.0},
		{200, 0.25, 3.0},
	}
	multipliers := []float64{5, 10, 20}

	grid := make([]Params, 0, len(shapes)*len(multipliers))
	for _, s := range shapes {
		for _, m := range multipliers {
			grid = append(grid, Params{
				WindowMs:            s.window,
				Overlap:             s.overlap,
				TwistRatio:          s.twist,
				ThresholdMultiplier: m,
			})
		}
	}
	return grid
}

// Result is the outcome of one grid point. Err holds a configuration error
// for that point; it does not fail the sweep.
type Result struct {
	Params    Params
	Sequence  string
	Events    []dtmf.DigitEvent
	Regions   int
	Threshold float64
	Match     bool // Sequence equals the expected sequence
	Err       error
}

// Runner fans grid points out over a bounded number of workers.
type Runner struct {
	Base    dtmf.Config
	Workers int // <= 0 uses GOMAXPROCS
	Logger  *slog.Logger
}

// Run analyzes buf once per grid point and returns results in grid order.
// expect, when non-empty, marks the results whose sequence matches it.
func (r Runner) Run(ctx context.Context, buf pcm.Buffer, grid []Params, expect string) ([]Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(grid))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range grid {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return recovery.Guard(func() error {
				results[i] = r.runOne(buf, p, expect, logger)
				return nil
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	return results, nil
}

func (r Runner) runOne(buf pcm.Buffer, p Params, expect string, logger *slog.Logger) Result {
	res := Result{Params: p}

	d, err := dtmf.NewDetector(p.apply(r.Base), dtmf.WithLogger(logger))
	if err != nil {
		res.Err = err
		return res
	}
	a, err := d.Analyze(buf)
	if err != nil {
		res.Err = err
		return res
	}

	res.Events = a.Events
	res.Sequence = a.Sequence()
	res.Regions = len(a.Regions)
	res.Threshold = a.Calibration.Threshold
	res.Match = expect != "" && res.Sequence == expect
	logger.Debug("sweep point", "params", p.String(), "sequence", res.Sequence, "match", res.Match)
	return res
}

// Matches returns the results whose sequence matched.
func Matches(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Match {
			out = append(out, r)
		}
	}
	return out
}
