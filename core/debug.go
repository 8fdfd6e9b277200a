package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether debug output is active
	debugEnabled bool
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to a spare UART, glog, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// EventKind tags a MotionEvent.
type EventKind uint8

// Event type codes
const (
	EvtNone      EventKind = iota
	EvtSetpoint            // setpoint accepted, Value1=setpoint Value2=position
	EvtReject              // setpoint rejected, Value1=requested Value2=position
	EvtSubseq              // one sub-sequence driven, Value1=setpoint Value2=position
	EvtDecel               // sub-sequence inside the deceleration band
	EvtComplete            // setpoint reached
	EvtAbort               // motion cancelled
	EvtADCError            // position read failed
	EvtRelays              // relay mask written, Value1=mask
	EvtInputDrop           // operator line discarded, Value1=length
)

func (k EventKind) String() string {
	switch k {
	case EvtSetpoint:
		return "SETPOINT"
	case EvtReject:
		return "REJECT"
	case EvtSubseq:
		return "SUBSEQ"
	case EvtDecel:
		return "DECEL"
	case EvtComplete:
		return "COMPLETE"
	case EvtAbort:
		return "ABORT"
	case EvtADCError:
		return "ADC_ERROR"
	case EvtRelays:
		return "RELAYS"
	case EvtInputDrop:
		return "INPUT_DROP"
	default:
		return "UNKNOWN"
	}
}

// MotionEvent captures one controller event for post-mortem analysis
type MotionEvent struct {
	Kind   EventKind
	Clock  uint32 // Clock.Millis at event
	Value1 int32  // Context-dependent value
	Value2 int32  // Context-dependent value
}

// EventRing keeps the most recent events, overwriting the oldest.
type EventRing struct {
	events []MotionEvent
	head   int
	count  int
}

// NewEventRing creates a ring holding size events.
func NewEventRing(size int) *EventRing {
	if size < 1 {
		size = 1
	}
	return &EventRing{events: make([]MotionEvent, size)}
}

// Record stores an event. Never blocks.
func (r *EventRing) Record(kind EventKind, clock uint32, v1, v2 int32) {
	r.events[r.head] = MotionEvent{Kind: kind, Clock: clock, Value1: v1, Value2: v2}
	r.head = (r.head + 1) % len(r.events)
	if r.count < len(r.events) {
		r.count++
	}
}

// Len returns the number of stored events.
func (r *EventRing) Len() int {
	return r.count
}

// Events returns the stored events, oldest first.
func (r *EventRing) Events() []MotionEvent {
	out := make([]MotionEvent, 0, r.count)
	start := (r.head - r.count + len(r.events)) % len(r.events)
	for i := 0; i < r.count; i++ {
		out = append(out, r.events[(start+i)%len(r.events)])
	}
	return out
}

// Dump writes one line per stored event, oldest first.
func (r *EventRing) Dump(w DebugWriter) {
	for _, evt := range r.Events() {
		w(evt.Kind.String() +
			" t=" + utoa(evt.Clock) +
			" v1=" + itoa(int(evt.Value1)) +
			" v2=" + itoa(int(evt.Value2)))
	}
}

// Clear empties the ring.
func (r *EventRing) Clear() {
	for i := range r.events {
		r.events[i] = MotionEvent{}
	}
	r.head = 0
	r.count = 0
}
