package audio

import (
	"sync/atomic"

	"github.com/ColonelBlimp/dtmfdecoder/internal/dsp"
)

// LevelMeter tracks the peak input level between reads. Observe is safe to
// call from the audio thread.
type LevelMeter struct {
	peak atomic.Int32
}

// Observe folds a block of samples into the running peak. It matches
// SampleCallback.
func (m *LevelMeter) Observe(samples []int16) {
	var p int32
	for _, s := range samples {
		v := int32(s)
		if v < 0 {
			v = -v
		}
		p = max(p, v)
	}
	for {
		cur := m.peak.Load()
		if p <= cur || m.peak.CompareAndSwap(cur, p) {
			return
		}
	}
}

// Peak returns the peak since the last call, in dBFS, and resets it.
func (m *LevelMeter) Peak() float64 {
	return dsp.DBFS(float64(m.peak.Swap(0)))
}
