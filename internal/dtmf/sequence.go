// internal/dtmf/sequence.go
package dtmf

import (
	"fmt"
	"strings"
)

// DigitEvent is one decoded keypress. Both strategies time events from
// window start times.
type DigitEvent struct {
	Digit    Digit
	Start    float64 // seconds from the start of the buffer
	Duration float64 // seconds
}

// End returns Start + Duration.
func (e DigitEvent) End() float64 { return e.Start + e.Duration }

// DurationMs returns the duration in milliseconds.
func (e DigitEvent) DurationMs() float64 { return e.Duration * 1000 }

func (e DigitEvent) String() string {
	return fmt.Sprintf("'%s' at %.3fs (%.0fms)", e.Digit, e.Start, e.DurationMs())
}

// Sequence concatenates the digits of events in order.
func Sequence(events []DigitEvent) string {
	var b strings.Builder
	for _, e := range events {
		b.WriteString(e.Digit.String())
	}
	return b.String()
}

// SequenceAssembler debounces the per-window digit stream: consecutive
// windows with the same digit form one event that ends when the digit
// changes or disappears. Times are window start times.
type SequenceAssembler struct {
	MinDuration float64 // seconds; shorter events are dropped
}

// Strategy implements Assembler.
func (SequenceAssembler) Strategy() Strategy { return WindowDebounce }

// Assemble implements Assembler. Regions are ignored; an event still open at
// the end of the stream is closed at bufferEnd.
func (a SequenceAssembler) Assemble(windows []WindowClassification, _ []Region, bufferEnd float64) []DigitEvent {
	var (
		events []DigitEvent
		last   = None
		start  float64
	)

	emit := func(end float64) {
		e := DigitEvent{Digit: last, Start: start, Duration: end - start}
		if e.Duration >= a.MinDuration {
			events = append(events, e)
		}
	}

	for _, c := range windows {
		if c.Digit == last {
			continue
		}
		now := c.Window.StartTime
		if last != None {
			emit(now)
		}
		last = c.Digit
		start = now
	}
	if last != None {
		emit(bufferEnd)
	}
	return events
}
