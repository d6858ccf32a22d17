package dtmf

import "testing"

func TestKeypad_Bijection(t *testing.T) {
	seen := make(map[Digit][2]float64)
	low, high := LowFrequencies(), HighFrequencies()

	for _, lf := range low {
		for _, hf := range high {
			d, ok := LookupPair(lf, hf)
			if !ok || d == None {
				t.Fatalf("LookupPair(%v, %v) = %q, %v", lf, hf, d, ok)
			}
			if prev, dup := seen[d]; dup {
				t.Errorf("digit %q mapped from %v and %v", d, prev, [2]float64{lf, hf})
			}
			seen[d] = [2]float64{lf, hf}
		}
	}

	if len(seen) != 16 {
		t.Errorf("table has %d distinct digits, want 16", len(seen))
	}
	if got := len(Digits()); got != 16 {
		t.Errorf("Digits() has %d entries, want 16", got)
	}
}

func TestKeypad_Layout(t *testing.T) {
	testCases := []struct {
		digit     Digit
		low, high float64
	}{
		{'1', 697, 1209},
		{'2', 697, 1336},
		{'3', 697, 1477},
		{'A', 697, 1633},
		{'4', 770, 1209},
		{'5', 770, 1336},
		{'6', 770, 1477},
		{'B', 770, 1633},
		{'7', 852, 1209},
		{'8', 852, 1336},
		{'9', 852, 1477},
		{'C', 852, 1633},
		{'*', 941, 1209},
		{'0', 941, 1336},
		{'#', 941, 1477},
		{'D', 941, 1633},
	}

	for _, tc := range testCases {
		t.Run(tc.digit.String(), func(t *testing.T) {
			low, high, ok := Frequencies(tc.digit)
			if !ok || low != tc.low || high != tc.high {
				t.Errorf("Frequencies(%q) = %v, %v, %v; want %v, %v", tc.digit, low, high, ok, tc.low, tc.high)
			}
			if !tc.digit.Valid() {
				t.Errorf("%q should be valid", tc.digit)
			}
		})
	}
}

func TestLookup_OutOfRange(t *testing.T) {
	for _, idx := range [][2]int{{-1, 0}, {0, 4}, {4, 0}} {
		if d := Lookup(idx[0], idx[1]); d != None {
			t.Errorf("Lookup(%d, %d) = %q, want None", idx[0], idx[1], d)
		}
	}
	if _, ok := LookupPair(700, 1209); ok {
		t.Error("LookupPair must not snap to the nearest frequency")
	}
}

func TestDigit_NoneAndInvalid(t *testing.T) {
	if None.String() != "" {
		t.Errorf("None.String() = %q, want empty", None.String())
	}
	if None.Valid() || Digit('E').Valid() {
		t.Error("None and 'E' must not be valid digits")
	}
}

func TestNearest(t *testing.T) {
	testCases := []struct {
		in   float64
		low  float64
		high float64
	}{
		{650, 697, 1209},
		{735, 770, 1209},
		{900, 941, 1209},
		{1400, 941, 1336},
		{1700, 941, 1633},
	}

	for _, tc := range testCases {
		if got := NearestLow(tc.in); got != tc.low {
			t.Errorf("NearestLow(%v) = %v, want %v", tc.in, got, tc.low)
		}
		if got := NearestHigh(tc.in); got != tc.high {
			t.Errorf("NearestHigh(%v) = %v, want %v", tc.in, got, tc.high)
		}
	}
}
