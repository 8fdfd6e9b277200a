package core

import (
	"strings"
	"testing"
)

func TestEventRingWraps(t *testing.T) {
	ring := NewEventRing(4)
	for i := 0; i < 6; i++ {
		ring.Record(EvtSubseq, uint32(i), int32(i), 0)
	}

	if ring.Len() != 4 {
		t.Errorf("Expected 4 events, got %d", ring.Len())
	}
	events := ring.Events()
	if events[0].Value1 != 2 || events[3].Value1 != 5 {
		t.Errorf("Expected oldest 2 and newest 5, got %+v", events)
	}

	ring.Clear()
	if ring.Len() != 0 || len(ring.Events()) != 0 {
		t.Errorf("Clear left events behind")
	}
}

func TestEventRingDump(t *testing.T) {
	ring := NewEventRing(8)
	ring.Record(EvtSetpoint, 10, 300, 100)
	ring.Record(EvtAbort, 42, 300, 180)

	var lines []string
	ring.Dump(func(s string) { lines = append(lines, s) })

	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %v", lines)
	}
	if lines[0] != "SETPOINT t=10 v1=300 v2=100" {
		t.Errorf("Unexpected first line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "ABORT t=42") {
		t.Errorf("Unexpected second line %q", lines[1])
	}
}

func TestDebugPrintlnGated(t *testing.T) {
	var got []string
	SetDebugWriter(func(s string) { got = append(got, s) })
	defer SetDebugWriter(func(string) {})
	defer SetDebugEnabled(false)

	SetDebugEnabled(false)
	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")

	if len(got) != 1 || got[0] != "shown" {
		t.Errorf("Expected only the enabled message, got %v", got)
	}
}
