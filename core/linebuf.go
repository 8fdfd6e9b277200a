package core

import "errors"

var (
	// ErrInputTimeout reports a burst that kept arriving past the burst window.
	ErrInputTimeout = errors.New("input timeout")
	// ErrInputOverflow reports a burst longer than the maximum command length.
	ErrInputOverflow = errors.New("input overflow")
)

// LineAccumulator collects bytes from a SerialPort into command lines.
//
// A line ends on CR or LF, or when no byte has arrived for the inactivity gap.
// A burst still open when the burst window closes is discarded, as is one
// that exceeds the maximum length. Poll never blocks.
//
// The window counts time between polls, with any single interval capped at
// the gap. A caller that stalls longer than the gap cannot tell a steady
// stream from a short pause, so the stall counts as one gap.
type LineAccumulator struct {
	port     SerialPort
	clock    Clock
	gapMS    uint32
	windowMS uint32
	buf      []byte
	line     []byte
	max      int
	open     bool
	watched  uint32
	lastAt   uint32
	polledAt uint32
}

// NewLineAccumulator creates an accumulator reading from port.
func NewLineAccumulator(port SerialPort, clock Clock, gapMS, windowMS uint32, maxLen int) *LineAccumulator {
	return &LineAccumulator{
		port:     port,
		clock:    clock,
		gapMS:    gapMS,
		windowMS: windowMS,
		buf:      make([]byte, 0, maxLen),
		line:     make([]byte, 0, maxLen),
		max:      maxLen,
	}
}

// Pending returns the number of bytes held for the open burst.
func (a *LineAccumulator) Pending() int {
	return len(a.buf)
}

// Poll drains the port and returns a complete line, or nil when none is ready.
// The returned slice is valid until the next call.
func (a *LineAccumulator) Poll() ([]byte, error) {
	now := a.clock.Millis()
	step := elapsed(a.polledAt, now)
	if step > a.gapMS {
		step = a.gapMS
	}
	a.polledAt = now
	if a.open {
		a.watched += step
	}

	for a.port.Available() > 0 {
		b, err := a.port.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == '\r' || b == '\n' {
			if len(a.buf) > 0 {
				return a.take(), nil
			}
			continue
		}
		if !a.open {
			a.open = true
			a.watched = 0
		}
		a.lastAt = now
		if len(a.buf) >= a.max {
			a.discard()
			return nil, ErrInputOverflow
		}
		a.buf = append(a.buf, b)
	}

	if !a.open {
		return nil, nil
	}
	if elapsed(a.lastAt, now) >= a.gapMS {
		return a.take(), nil
	}
	if a.watched >= a.windowMS {
		a.discard()
		return nil, ErrInputTimeout
	}
	return nil, nil
}

// take closes the burst and hands out its bytes.
func (a *LineAccumulator) take() []byte {
	a.line = append(a.line[:0], a.buf...)
	a.buf = a.buf[:0]
	a.open = false
	return a.line
}

// Reset drops the open burst.
func (a *LineAccumulator) Reset() {
	a.discard()
}

func (a *LineAccumulator) discard() {
	a.buf = a.buf[:0]
	a.open = false
	a.watched = 0
}
