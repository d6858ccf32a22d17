package pcm

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadCSV_MultiLine(t *testing.T) {
	input := `# capture from handset
1,2,3
-4, 5 ,6

7,
`
	buf, err := ReadCSV(strings.NewReader(input), 22050)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	want := []int16{1, 2, 3, -4, 5, 6, 7}
	if buf.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", buf.Len(), len(want))
	}
	for i, w := range want {
		if buf.At(i) != w {
			t.Errorf("At(%d) = %d, want %d", i, buf.At(i), w)
		}
	}
	if buf.SampleRate() != 22050 {
		t.Errorf("SampleRate() = %v, want default 22050", buf.SampleRate())
	}
}

func TestReadCSV_RateHeader(t *testing.T) {
	tests := []struct {
		header string
		want   float64
	}{
		{"# sample_rate: 11025", 11025},
		{"# rate=8000", 8000},
		{"# Sample_Rate 44100 Hz", 44100},
		{"# rate: bogus", 22050},
		{"# notes", 22050},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			buf, err := ReadCSV(strings.NewReader(tt.header+"\n1,2\n"), 22050)
			if err != nil {
				t.Fatalf("ReadCSV() error = %v", err)
			}
			if buf.SampleRate() != tt.want {
				t.Errorf("SampleRate() = %v, want %v", buf.SampleRate(), tt.want)
			}
		})
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmptyBuffer},
		{"comments only", "# nothing\n", ErrEmptyBuffer},
		{"too large", "40000\n", ErrSampleOutOfRange},
		{"too small", "-40000\n", ErrSampleOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), 22050)
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadCSV() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReadCSV_NotANumber(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("1,abc\n"), 22050)
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Errorf("error %q should name the line", err)
	}
}

func TestLoadCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dial.csv")
	if err := os.WriteFile(path, []byte("# rate: 11025\n10,-10\n"), 0644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}

	buf, err := Load(path, 22050)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if buf.Len() != 2 || buf.SampleRate() != 11025 {
		t.Errorf("Load() = %s, want 2 samples @ 11025 Hz", buf)
	}
}

func TestLoadCSV_Missing(t *testing.T) {
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), 22050); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
