package pcm

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewBuffer_CopiesSamples(t *testing.T) {
	src := []int16{1, 2, 3}
	buf, err := NewBuffer(src, 8000)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}

	src[0] = 99
	if buf.At(0) != 1 {
		t.Errorf("buffer shares caller slice: At(0) = %d, want 1", buf.At(0))
	}

	out := buf.Samples()
	out[1] = 99
	if buf.At(1) != 2 {
		t.Errorf("Samples() exposes internal slice: At(1) = %d, want 2", buf.At(1))
	}
}

func TestNewBuffer_InvalidRate(t *testing.T) {
	for _, rate := range []float64{0, -1} {
		if _, err := NewBuffer([]int16{1}, rate); !errors.Is(err, ErrInvalidSampleRate) {
			t.Errorf("NewBuffer(rate=%v) error = %v, want ErrInvalidSampleRate", rate, err)
		}
	}
}

func TestBuffer_Validate(t *testing.T) {
	empty, err := NewBuffer(nil, 11025)
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}
	if err := empty.Validate(); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("Validate() on empty buffer = %v, want ErrEmptyBuffer", err)
	}
	if err := (Buffer{}).Validate(); !errors.Is(err, ErrInvalidSampleRate) {
		t.Errorf("Validate() on zero buffer = %v, want ErrInvalidSampleRate", err)
	}
}

func TestBuffer_Duration(t *testing.T) {
	buf, _ := NewBuffer(make([]int16, 11025), 11025)
	if got := buf.Duration(); got != time.Second {
		t.Errorf("Duration() = %v, want 1s", got)
	}
	if buf.Len() != 11025 {
		t.Errorf("Len() = %d, want 11025", buf.Len())
	}
}

func TestBuffer_Float64_NoRescale(t *testing.T) {
	buf, _ := NewBuffer([]int16{-32768, 0, 32767}, 8000)
	got := buf.Float64()
	want := []float64{-32768, 0, 32767}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Float64()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLoad_UnknownExtension(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "capture.mp3"), 22050)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Load(.mp3) error = %v, want ErrUnknownFormat", err)
	}
}

func TestBuffer_String(t *testing.T) {
	buf, _ := NewBuffer(make([]int16, 100), 22050)
	if s := buf.String(); !strings.Contains(s, "100 samples") {
		t.Errorf("String() = %q, want sample count", s)
	}
}
