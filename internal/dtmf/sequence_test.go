package dtmf

import "testing"

func TestSequenceAssembler_Debounce(t *testing.T) {
	windows := stream("..111..22.3", nil)
	events := SequenceAssembler{}.Assemble(windows, nil, 1.2)

	want := []DigitEvent{
		{Digit: '1', Start: 0.2, Duration: 0.3},
		{Digit: '2', Start: 0.7, Duration: 0.2},
		{Digit: '3', Start: 1.0, Duration: 0.2},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(events), events, len(want))
	}
	for i := range want {
		if events[i].Digit != want[i].Digit || !approx(events[i].Start, want[i].Start) || !approx(events[i].Duration, want[i].Duration) {
			t.Errorf("event %d = %v, want %v", i, events[i], want[i])
		}
	}
	if got := Sequence(events); got != "123" {
		t.Errorf("Sequence() = %q, want \"123\"", got)
	}
}

func TestSequenceAssembler_DirectChange(t *testing.T) {
	events := SequenceAssembler{}.Assemble(stream(".4455.", nil), nil, 0.6)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if !approx(events[0].End(), events[1].Start) {
		t.Errorf("first event ends at %v, second starts at %v, want adjacent", events[0].End(), events[1].Start)
	}
}

func TestSequenceAssembler_MinDuration(t *testing.T) {
	events := SequenceAssembler{MinDuration: 0.15}.Assemble(stream(".9..666.", nil), nil, 0.8)
	if got := Sequence(events); got != "6" {
		t.Errorf("Sequence() = %q, want \"6\" with the single-window blip dropped", got)
	}
}

func TestSequenceAssembler_Empty(t *testing.T) {
	if events := (SequenceAssembler{}).Assemble(stream("..--..", nil), nil, 0.6); len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestDigitEvent(t *testing.T) {
	e := DigitEvent{Digit: '#', Start: 1.25, Duration: 0.4}
	if !approx(e.End(), 1.65) || !approx(e.DurationMs(), 400) {
		t.Errorf("End/DurationMs = %v/%v, want 1.65/400", e.End(), e.DurationMs())
	}
	if s := e.String(); s != "'#' at 1.250s (400ms)" {
		t.Errorf("String() = %q", s)
	}
}
