// Package dtmf detects dual-tone multi-frequency digits in a buffered
// recording.
//
// A Detector slices the recording into overlapping windows, measures the
// eight DTMF frequencies in each with a FilterBank, gates windows by energy,
// calibrates an absolute magnitude threshold from the noise windows and then
// assembles digit events with one of two strategies: per-window debounce or
// per-region majority vote.
package dtmf

import "math"

// Digit is one DTMF symbol: '0'-'9', '*', '#' or 'A'-'D'. The zero value
// is None.
type Digit rune

// None marks a window or region without a decodable digit.
const None Digit = 0

var (
	lowFrequencies  = [4]float64{697, 770, 852, 941}
	highFrequencies = [4]float64{1209, 1336, 1477, 1633}

	keypad = [4][4]Digit{
		{'1', '2', '3', 'A'},
		{'4', '5', '6', 'B'},
		{'7', '8', '9', 'C'},
		{'*', '0', '#', 'D'},
	}
)

// Band limits used when searching raw spectra for DTMF peaks.
const (
	LowBandMin  = 650.0
	LowBandMax  = 1000.0
	HighBandMin = 1150.0
	HighBandMax = 1700.0
)

// LowFrequencies returns the four row tones in Hz.
func LowFrequencies() [4]float64 { return lowFrequencies }

// HighFrequencies returns the four column tones in Hz.
func HighFrequencies() [4]float64 { return highFrequencies }

// String returns the symbol, or the empty string for None.
func (d Digit) String() string {
	if d == None {
		return ""
	}
	return string(rune(d))
}

// Valid reports whether d is one of the sixteen keypad symbols.
func (d Digit) Valid() bool {
	_, _, ok := Position(d)
	return ok
}

// Lookup returns the digit for a row and column index. Out-of-range
// indices yield None.
func Lookup(row, col int) Digit {
	if row < 0 || row >= len(keypad) || col < 0 || col >= len(keypad[row]) {
		return None
	}
	return keypad[row][col]
}

// LookupPair maps an exact (low, high) frequency pair to its digit.
func LookupPair(low, high float64) (Digit, bool) {
	row, col := indexOf(lowFrequencies, low), indexOf(highFrequencies, high)
	if row < 0 || col < 0 {
		return None, false
	}
	return keypad[row][col], true
}

// Position returns the keypad row and column of d.
func Position(d Digit) (row, col int, ok bool) {
	for r := range keypad {
		for c := range keypad[r] {
			if keypad[r][c] == d {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// Frequencies returns the tone pair that encodes d.
func Frequencies(d Digit) (low, high float64, ok bool) {
	r, c, ok := Position(d)
	if !ok {
		return 0, 0, false
	}
	return lowFrequencies[r], highFrequencies[c], true
}

// Digits returns all sixteen symbols in keypad order.
func Digits() []Digit {
	out := make([]Digit, 0, 16)
	for _, row := range keypad {
		out = append(out, row[:]...)
	}
	return out
}

// NearestLow snaps an arbitrary frequency to the closest row tone. It is a
// reporting aid for raw spectral peaks and never part of decoding.
func NearestLow(f float64) float64 { return nearest(lowFrequencies, f) }

// NearestHigh snaps an arbitrary frequency to the closest column tone.
func NearestHigh(f float64) float64 { return nearest(highFrequencies, f) }

func nearest(set [4]float64, f float64) float64 {
	best := set[0]
	for _, c := range set[1:] {
		if math.Abs(c-f) < math.Abs(best-f) {
			best = c
		}
	}
	return best
}

func indexOf(set [4]float64, f float64) int {
	for i, c := range set {
		if c == f {
			return i
		}
	}
	return -1
}
