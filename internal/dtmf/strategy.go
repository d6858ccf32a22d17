// internal/dtmf/strategy.go
package dtmf

import (
	"fmt"
	"strings"
)

// Strategy names a way of turning classified windows into digit events.
type Strategy int

const (
	// RegionConsensus emits one event per tone region, using the majority
	// digit of its windows.
	RegionConsensus Strategy = iota
	// WindowDebounce emits an event for every run of identical per-window
	// digits.
	WindowDebounce
)

// Strategies lists every strategy in a stable order.
var Strategies = []Strategy{RegionConsensus, WindowDebounce}

func (s Strategy) String() string {
	switch s {
	case RegionConsensus:
		return "region"
	case WindowDebounce:
		return "window"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "region" or "window", plus the long forms
// "region-consensus" and "window-debounce".
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "region", "region-consensus", "region_consensus", "":
		return RegionConsensus, nil
	case "window", "window-debounce", "window_debounce":
		return WindowDebounce, nil
	default:
		return 0, &ConfigError{Param: "strategy", Value: name, Reason: `must be "region" or "window"`}
	}
}

// Assembler turns classified windows and regions into digit events.
type Assembler interface {
	Strategy() Strategy
	Assemble(windows []WindowClassification, regions []Region, bufferEnd float64) []DigitEvent
}

// RegionAssembler emits one event per region that has a consensus digit.
type RegionAssembler struct {
	MinDuration float64 // seconds; shorter events are dropped
}

// Strategy implements Assembler.
func (RegionAssembler) Strategy() Strategy { return RegionConsensus }

// Assemble implements Assembler.
func (a RegionAssembler) Assemble(_ []WindowClassification, regions []Region, _ float64) []DigitEvent {
	var events []DigitEvent
	for _, r := range regions {
		if r.Digit == None || r.Duration() < a.MinDuration {
			continue
		}
		events = append(events, DigitEvent{Digit: r.Digit, Start: r.Start, Duration: r.Duration()})
	}
	return events
}

// NewAssembler returns the Assembler for s.
func NewAssembler(s Strategy, minDuration float64) (Assembler, error) {
	switch s {
	case RegionConsensus:
		return RegionAssembler{MinDuration: minDuration}, nil
	case WindowDebounce:
		return SequenceAssembler{MinDuration: minDuration}, nil
	default:
		return nil, &ConfigError{Param: "strategy", Value: s, Reason: "unknown strategy"}
	}
}
