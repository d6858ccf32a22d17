package pcm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrSampleOutOfRange indicates a CSV value that does not fit in 16 bits
var ErrSampleOutOfRange = errors.New("sample value out of 16-bit range")

// ReadCSV parses a capture dump: comma-separated integers over any number of
// lines. Lines starting with '#' are comments; a comment of the form
// "# sample_rate: 11025" (or "rate=11025") overrides defaultRate.
func ReadCSV(r io.Reader, defaultRate float64) (Buffer, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	rate := defaultRate
	var samples []int16
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if hdr, ok := parseRateHeader(line); ok {
				rate = hdr
			}
			continue
		}
		for _, field := range strings.Split(line, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			v, err := strconv.Atoi(field)
			if err != nil {
				return Buffer{}, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if v < math.MinInt16 || v > math.MaxInt16 {
				return Buffer{}, fmt.Errorf("line %d: %d: %w", lineNo, v, ErrSampleOutOfRange)
			}
			samples = append(samples, int16(v))
		}
	}
	if err := scanner.Err(); err != nil {
		return Buffer{}, fmt.Errorf("scan csv: %w", err)
	}

	buf := Buffer{samples: samples, sampleRate: rate}
	if err := buf.Validate(); err != nil {
		return Buffer{}, err
	}
	return buf, nil
}

// LoadCSV opens path and parses it with ReadCSV.
func LoadCSV(path string, defaultRate float64) (Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	buf, err := ReadCSV(f, defaultRate)
	if err != nil {
		return Buffer{}, fmt.Errorf("load csv %s: %w", path, err)
	}
	return buf, nil
}

func parseRateHeader(line string) (float64, bool) {
	body := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "#")))
	for _, key := range []string{"sample_rate", "samplerate", "rate"} {
		if !strings.HasPrefix(body, key) {
			continue
		}
		rest := strings.TrimSpace(body[len(key):])
		rest = strings.TrimLeft(rest, ":= ")
		rest = strings.TrimSuffix(strings.TrimSpace(rest), "hz")
		v, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
		if err != nil || v <= 0 {
			return 0, false
		}
		return v, true
	}
	return 0, false
}
