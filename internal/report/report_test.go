package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ColonelBlimp/dtmfdecoder/internal/dtmf"
	"github.com/ColonelBlimp/dtmfdecoder/internal/pcm"
	"github.com/ColonelBlimp/dtmfdecoder/internal/sweep"
)

const testRate = 11025.0

// analyzeNineOne decodes "19" from two 400 ms bursts. Burst edges sit 130
// samples past a multiple of the 275 sample hop so no noise window overlaps
// a tone.
func analyzeNineOne(t *testing.T, mutate func(*dtmf.Config)) *dtmf.Analysis {
	t.Helper()
	const (
		hop   = 275
		tone  = 4410
		first = 8*hop + 130
		next  = first + 30*hop
		total = next + tone + 12*hop // 18290
	)

	rng := rand.New(rand.NewPCG(3, 4))
	samples := make([]float64, total)
	for i := range samples {
		samples[i] = (rng.Float64()*2 - 1) * 50
	}
	for _, b := range []struct {
		d     dtmf.Digit
		start int
	}{{'1', first}, {'9', next}} {
		low, high, _ := dtmf.Frequencies(b.d)
		for i := 0; i < tone; i++ {
			ts := float64(i) / testRate
			samples[b.start+i] += 8000 * (math.Sin(2*math.Pi*low*ts) + math.Sin(2*math.Pi*high*ts))
		}
	}
	raw := make([]int16, total)
	for i, s := range samples {
		raw[i] = int16(math.Round(s))
	}
	buf, err := pcm.NewBuffer(raw, testRate)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}

	cfg := dtmf.DefaultConfig()
	cfg.WindowMs = 50
	if mutate != nil {
		mutate(&cfg)
	}
	d, err := dtmf.NewDetector(cfg, dtmf.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	a, err := d.Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if a.Sequence() != "19" {
		t.Fatalf("test recording decoded as %q, want \"19\"", a.Sequence())
	}
	return a
}

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", Text, false},
		{"TEXT", Text, false},
		{"json", JSON, false},
		{"yml", YAML, false},
		{" yaml ", YAML, false},
		{"csv", "", true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("ParseFormat(%q) error = %v, want ErrUnknownFormat", tc.in, err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	a := analyzeNineOne(t, nil)
	r := New(a, Options{})

	if r.Sequence != "19" || r.Strategy != "region" {
		t.Errorf("Sequence/Strategy = %q/%q", r.Sequence, r.Strategy)
	}
	if len(r.Events) != 2 || r.Events[1].Digit != "9" {
		t.Fatalf("Events = %+v", r.Events)
	}
	if !approx(r.Events[0].StartTimeSeconds, a.Events[0].Start) || !approx(r.Events[0].DurationMs, a.Events[0].Duration*1000) {
		t.Errorf("event 0 = %+v, analysis event %v", r.Events[0], a.Events[0])
	}
	if len(r.Strategies) != len(dtmf.Strategies) {
		t.Errorf("got %d strategy results, want %d", len(r.Strategies), len(dtmf.Strategies))
	}
	if r.Windows != nil {
		t.Error("windows should be omitted without Options.Windows")
	}
	if len(r.Regions) != len(a.Regions) || r.Regions[0].Digit != "1" {
		t.Errorf("Regions = %+v", r.Regions)
	}
	if r.Parameters.WindowSamples != 551 || r.Parameters.HopSamples != 275 {
		t.Errorf("window/hop = %d/%d, want 551/275", r.Parameters.WindowSamples, r.Parameters.HopSamples)
	}
	if r.Input.Samples != 18290 {
		t.Errorf("Input.Samples = %d", r.Input.Samples)
	}
}

func TestReport_JSON(t *testing.T) {
	a := analyzeNineOne(t, func(c *dtmf.Config) { c.SpectralDiagnostics = true })

	var buf bytes.Buffer
	if err := New(a, Options{Windows: true}).Write(&buf, JSON); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["sequence"] != "19" {
		t.Errorf("sequence = %v", decoded["sequence"])
	}
	events := decoded["events"].([]any)
	first := events[0].(map[string]any)
	for _, key := range []string{"digit", "start_time_seconds", "duration_ms"} {
		if _, ok := first[key]; !ok {
			t.Errorf("event missing %q: %v", key, first)
		}
	}
	windows := decoded["windows"].([]any)
	if len(windows) != len(a.Windows) {
		t.Errorf("got %d windows, want %d", len(windows), len(a.Windows))
	}
	if _, ok := windows[0].(map[string]any)["fft"]; !ok {
		t.Error("window missing fft section with spectral diagnostics")
	}
	diag := decoded["diagnostics"].(map[string]any)
	if diag["degenerate_signal"] != false {
		t.Errorf("degenerate_signal = %v", diag["degenerate_signal"])
	}
}

func TestReport_YAML(t *testing.T) {
	a := analyzeNineOne(t, nil)

	var buf bytes.Buffer
	if err := New(a, Options{}).Write(&buf, YAML); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded Report
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if decoded.Sequence != "19" || len(decoded.Events) != 2 {
		t.Errorf("decoded = %q with %d events", decoded.Sequence, len(decoded.Events))
	}
	if !strings.Contains(buf.String(), "start_time_seconds:") {
		t.Error("YAML keys should use snake case")
	}
}

func TestReport_Text(t *testing.T) {
	a := analyzeNineOne(t, nil)

	var buf bytes.Buffer
	if err := New(a, Options{Windows: true}).Write(&buf, Text); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"18,290 samples",
		"551 samples, hop 275",
		"Digit  Start [s]",
		"Center [s]",
		"Goertzel SNR",
		`Sequence (region): "19"`,
		`Alternative (window): "19"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestReport_UnknownFormat(t *testing.T) {
	a := analyzeNineOne(t, nil)
	err := New(a, Options{}).Write(&bytes.Buffer{}, Format("xml"))
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Write(xml) error = %v, want ErrUnknownFormat", err)
	}
}

func TestSweepReport(t *testing.T) {
	results := []sweep.Result{
		{Params: sweep.Params{WindowMs: 100, Overlap: 0.5, TwistRatio: 4, ThresholdMultiplier: 10}, Sequence: "19", Regions: 2, Match: true},
		{Params: sweep.Params{WindowMs: 200, Overlap: 0.25, TwistRatio: 3, ThresholdMultiplier: 20}, Sequence: "1", Regions: 2},
		{Params: sweep.Params{WindowMs: 9000, Overlap: 0.5, TwistRatio: 3, ThresholdMultiplier: 5}, Err: errors.New("window too long")},
	}
	s := NewSweep(results, "19")
	if s.Matches != 1 || len(s.Points) != 3 {
		t.Fatalf("Matches=%d Points=%d", s.Matches, len(s.Points))
	}
	if s.Points[2].Error != "window too long" {
		t.Errorf("error row = %+v", s.Points[2])
	}

	var text bytes.Buffer
	if err := s.Write(&text, Text); err != nil {
		t.Fatalf("Write text failed: %v", err)
	}
	for _, want := range []string{"Window [ms]", "error: window too long", `1 of 3 parameter sets decoded "19"`} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("sweep text missing %q:\n%s", want, text.String())
		}
	}

	var js bytes.Buffer
	if err := s.Write(&js, JSON); err != nil {
		t.Fatalf("Write json failed: %v", err)
	}
	var decoded SweepReport
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded.Points[0].Sequence != "19" || !decoded.Points[0].Match {
		t.Errorf("first point = %+v", decoded.Points[0])
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
