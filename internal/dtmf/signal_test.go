package dtmf

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/ColonelBlimp/dtmfdecoder/internal/pcm"
)

const (
	testRate      = 11025.0
	toneAmplitude = 8000.0 // per tone
	noiseLevel    = 50.0
)

// dualTone returns n samples of the two tones encoding d, each at amplitude.
func dualTone(t *testing.T, d Digit, amplitude float64, n int, rate float64) []float64 {
	t.Helper()
	low, high, ok := Frequencies(d)
	if !ok {
		t.Fatalf("no tone pair for %q", d)
	}
	out := make([]float64, n)
	for i := range out {
		ts := float64(i) / rate
		out[i] = amplitude * (math.Sin(2*math.Pi*low*ts) + math.Sin(2*math.Pi*high*ts))
	}
	return out
}

// uniformNoise returns n samples in [-amplitude, amplitude] from a fixed seed.
func uniformNoise(n int, amplitude float64, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, 0xda3e39cb94b95bdb))
	out := make([]float64, n)
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// toBuffer rounds and clamps samples into a pcm.Buffer.
func toBuffer(t *testing.T, samples []float64, rate float64) pcm.Buffer {
	t.Helper()
	raw := make([]int16, len(samples))
	for i, s := range samples {
		raw[i] = int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(s))))
	}
	buf, err := pcm.NewBuffer(raw, rate)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	return buf
}

type burst struct {
	digit Digit
	start int // sample offset
	n     int // samples
}

// recording lays bursts over background noise of length total.
func recording(t *testing.T, total int, bursts []burst) []float64 {
	t.Helper()
	out := uniformNoise(total, noiseLevel, 42)
	for _, b := range bursts {
		tone := dualTone(t, b.digit, toneAmplitude, b.n, testRate)
		for i, s := range tone {
			out[b.start+i] += s
		}
	}
	return out
}

// keypadBursts is "147*": 400 ms bursts, 748 ms apart, separated by 348 ms
// of noise. Starts sit 130 samples past a multiple of the 275 sample hop used
// with 50 ms windows, so every window touching a burst overlaps it by at least
// 140 samples and clears the energy gate.
func keypadBursts() (total int, bursts []burst) {
	const (
		hop     = 275
		spacing = 30 * hop // 748 ms
		length  = 4410     // 400 ms
	)
	start := 8*hop + 130
	for _, d := range []Digit{'1', '4', '7', '*'} {
		bursts = append(bursts, burst{digit: d, start: start, n: length})
		start += spacing
	}
	last := bursts[len(bursts)-1]
	return last.start + last.n + 12*hop, bursts
}

// shortBursts is "147*" at the shortest keypress the detector is built for:
// 150 ms tones with 100 ms gaps, starting offset samples into a 1.5 s lead of
// noise. A tail of the same length keeps the noise floor clean of tone edges.
func shortBursts(offset int) (total int, bursts []burst) {
	const (
		lead   = 16537 // 1.5 s
		length = 1653  // 150 ms
		gap    = 1102  // 100 ms
	)
	start := lead + offset
	for _, d := range []Digit{'1', '4', '7', '*'} {
		bursts = append(bursts, burst{digit: d, start: start, n: length})
		start += length + gap
	}
	last := bursts[len(bursts)-1]
	return last.start + last.n + lead, bursts
}
