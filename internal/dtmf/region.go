// internal/dtmf/region.go
package dtmf

import "github.com/ColonelBlimp/dtmfdecoder/internal/dsp"

// WindowClassification is everything the detector decided about one window.
type WindowClassification struct {
	Window   dsp.Window
	Active   bool
	Bank     BankResult
	Digit    Digit
	Twist    float64
	Spectral *SpectralPeaks // nil unless spectral diagnostics are enabled
}

// EnergyDB returns the window's RMS level in dBFS.
func (c WindowClassification) EnergyDB() float64 { return c.Window.EnergyDB }

// Region is a run of contiguous active windows, treated as one keypress.
// The interval [Start, End) uses window start times, like DigitEvent.
type Region struct {
	Index          int
	Start          float64
	End            float64
	Members        []int // window indices
	Representative int   // index of the member with the highest RMS
	Digit          Digit // majority vote over the members' decoded digits
	DigitVotes     int
	LowFrequency   float64 // most common best row tone among members
	LowVotes       int
	HighFrequency  float64 // most common best column tone among members
	HighVotes      int
}

// Duration returns End - Start in seconds.
func (r Region) Duration() float64 { return r.End - r.Start }

type segmentState int

const (
	outside segmentState = iota
	inside
)

// RegionSegmenter groups the classified window stream into regions. Feed
// windows in time order with Push and call Finish once at the end.
type RegionSegmenter struct {
	state   segmentState
	lastAt  float64
	current Region
	repRMS  float64
	digits  tally[Digit]
	lows    tally[float64]
	highs   tally[float64]
	regions []Region
}

// Push advances the state machine by one window.
func (s *RegionSegmenter) Push(c WindowClassification) {
	at := c.Window.StartTime

	switch s.state {
	case outside:
		if c.Active {
			s.open(at)
			s.add(c)
		}
	case inside:
		if c.Active {
			s.add(c)
		} else {
			s.close(at)
		}
	}
	s.lastAt = at
}

// Finish closes a region still open at the end of the stream, using the last
// window's time as its end, and returns all regions in time order.
func (s *RegionSegmenter) Finish() []Region {
	if s.state == inside {
		s.close(s.lastAt)
	}
	return s.regions
}

func (s *RegionSegmenter) open(at float64) {
	s.state = inside
	s.current = Region{Index: len(s.regions), Start: at, Representative: -1}
	s.repRMS = 0
	s.digits.reset()
	s.lows.reset()
	s.highs.reset()
}

func (s *RegionSegmenter) add(c WindowClassification) {
	idx := c.Window.Index
	s.current.Members = append(s.current.Members, idx)
	if s.current.Representative < 0 || c.Window.RMS > s.repRMS {
		s.current.Representative = idx
		s.repRMS = c.Window.RMS
	}
	if c.Digit != None {
		s.digits.add(c.Digit)
	}
	s.lows.add(c.Bank.LowFrequency())
	s.highs.add(c.Bank.HighFrequency())
}

func (s *RegionSegmenter) close(at float64) {
	r := s.current
	r.End = at
	r.Digit, r.DigitVotes = s.digits.winner()
	r.LowFrequency, r.LowVotes = s.lows.winner()
	r.HighFrequency, r.HighVotes = s.highs.winner()
	s.regions = append(s.regions, r)
	s.state = outside
}

// Segment runs a RegionSegmenter over windows.
func Segment(windows []WindowClassification) []Region {
	var s RegionSegmenter
	for _, c := range windows {
		s.Push(c)
	}
	return s.Finish()
}

// tally counts votes and breaks ties in favour of the value seen first.
type tally[K comparable] struct {
	counts map[K]int
	order  []K
}

func (t *tally[K]) reset() {
	t.counts = make(map[K]int)
	t.order = t.order[:0]
}

func (t *tally[K]) add(k K) {
	if t.counts == nil {
		t.counts = make(map[K]int)
	}
	if _, seen := t.counts[k]; !seen {
		t.order = append(t.order, k)
	}
	t.counts[k]++
}

// winner returns the most common value and its count, or the zero value
// when nothing was added.
func (t *tally[K]) winner() (K, int) {
	var best K
	bestCount := 0
	for _, k := range t.order {
		if n := t.counts[k]; n > bestCount {
			best, bestCount = k, n
		}
	}
	return best, bestCount
}
