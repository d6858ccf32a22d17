package pcm

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	// ErrInvalidWAV indicates the input is not a PCM WAV file
	ErrInvalidWAV = errors.New("invalid WAV file")
	// ErrUnsupportedBitDepth indicates a PCM bit depth outside 8-32 bits
	ErrUnsupportedBitDepth = errors.New("unsupported WAV bit depth")
)

// ReadWAV decodes a PCM WAV stream. Multi-channel recordings are mixed down
// to mono and every bit depth is rescaled to 16 bits.
func ReadWAV(r io.ReadSeeker) (Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Buffer{}, ErrInvalidWAV
	}

	ib, err := dec.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("decode wav: %w", err)
	}
	if ib == nil || ib.Format == nil {
		return Buffer{}, ErrInvalidWAV
	}

	depth := ib.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	if depth < 8 || depth > 32 {
		return Buffer{}, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, depth)
	}

	samples := mixDown(ib, depth)
	buf := Buffer{samples: samples, sampleRate: float64(ib.Format.SampleRate)}
	if err := buf.Validate(); err != nil {
		return Buffer{}, err
	}
	return buf, nil
}

// LoadWAV opens path and decodes it with ReadWAV.
func LoadWAV(path string) (Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	buf, err := ReadWAV(f)
	if err != nil {
		return Buffer{}, fmt.Errorf("load wav %s: %w", path, err)
	}
	return buf, nil
}

func mixDown(ib *audio.IntBuffer, depth int) []int16 {
	channels := ib.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	frames := len(ib.Data) / channels
	out := make([]int16, frames)

	for f := 0; f < frames; f++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += to16(ib.Data[f*channels+c], depth)
		}
		out[f] = clamp16(math.Round(sum / float64(channels)))
	}
	return out
}

// to16 rescales a decoded sample to the signed 16-bit range. 8-bit WAV data
// is unsigned with a 128 offset.
func to16(v, depth int) float64 {
	switch {
	case depth == 8:
		return float64((v - 128) << 8)
	case depth > 16:
		return float64(v) / float64(int64(1)<<(depth-16))
	case depth < 16:
		return float64(v << (16 - depth))
	default:
		return float64(v)
	}
}

func clamp16(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
