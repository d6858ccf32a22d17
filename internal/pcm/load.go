package pcm

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat indicates a file extension without a loader
var ErrUnknownFormat = errors.New("unknown recording format")

// Load picks a loader from the file extension. defaultRate applies to
// formats that carry no sample rate of their own.
func Load(path string, defaultRate float64) (Buffer, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return LoadCSV(path, defaultRate)
	case ".wav", ".wave":
		return LoadWAV(path)
	default:
		return Buffer{}, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}
