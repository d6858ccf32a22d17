package dtmf

import (
	"math"
	"testing"
)

func TestEnergyGate_Active(t *testing.T) {
	g := EnergyGate{ThresholdDB: -20}

	testCases := []struct {
		db   float64
		want bool
	}{
		{-19.9, true},
		{-20, true},
		{-20.1, false},
		{-300, false},
	}

	for _, tc := range testCases {
		if got := g.Active(tc.db); got != tc.want {
			t.Errorf("Active(%v) = %v, want %v", tc.db, got, tc.want)
		}
	}
}

func TestCalibrate(t *testing.T) {
	peaks := []float64{10, 3, 7, 1, 9, 2, 8, 6, 4, 5}
	original := append([]float64(nil), peaks...)

	c := Calibrate(peaks, 95, 10, 1000)

	// rank 0.95*9 = 8.55 lies between the 9th and 10th of 10 sorted values
	if math.Abs(c.NoiseFloor-9.55) > 1e-12 {
		t.Errorf("NoiseFloor = %v, want 9.55", c.NoiseFloor)
	}
	if math.Abs(c.Threshold-95.5) > 1e-9 {
		t.Errorf("Threshold = %v, want 95.5", c.Threshold)
	}
	if c.Fallback || c.NoiseWindows != 10 {
		t.Errorf("Fallback = %v, NoiseWindows = %d; want false, 10", c.Fallback, c.NoiseWindows)
	}
	for i := range peaks {
		if peaks[i] != original[i] {
			t.Fatal("Calibrate must not reorder its input")
		}
	}
}

func TestCalibrate_Percentiles(t *testing.T) {
	peaks := make([]float64, 20)
	for i := range peaks {
		peaks[i] = float64(i + 1)
	}

	testCases := []struct {
		percentile float64
		want       float64
	}{
		{95, 19.05},
		{100, 20},
		{50, 10.5},
		{0.0001, 1.000019},
	}

	for _, tc := range testCases {
		if got := Calibrate(peaks, tc.percentile, 1, 0).NoiseFloor; math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("percentile %v: NoiseFloor = %v, want %v", tc.percentile, got, tc.want)
		}
	}
}

func TestCalibrate_ClosestRanks(t *testing.T) {
	testCases := []struct {
		name  string
		peaks []float64
		p     float64
		want  float64
	}{
		{"three values", []float64{30, 10, 20}, 95, 29},
		{"single value", []float64{7}, 95, 7},
		{"exact rank", []float64{1, 2, 3, 4, 5}, 75, 4},
		{"ties", []float64{5, 5, 5, 9}, 50, 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Calibrate(tc.peaks, tc.p, 1, 0).NoiseFloor; math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("NoiseFloor = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCalibrate_Fallback(t *testing.T) {
	c := Calibrate(nil, 95, 10, 250)
	if !c.Fallback {
		t.Error("Fallback should be set without noise windows")
	}
	if c.NoiseFloor != 250 || c.Threshold != 2500 {
		t.Errorf("NoiseFloor/Threshold = %v/%v, want 250/2500", c.NoiseFloor, c.Threshold)
	}
}
