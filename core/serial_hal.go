package core

// SerialPort is a non-blocking byte stream. The primary operator channel and
// the controller bridge both use it.
type SerialPort interface {
	// Available returns the number of bytes that can be read without blocking.
	Available() int

	// ReadByte returns the next buffered byte.
	ReadByte() (byte, error)

	// Write transmits p.
	Write(p []byte) (int, error)
}

// NVStore is byte-addressed non-volatile memory.
type NVStore interface {
	LoadByte(addr uint16) (byte, error)
	StoreByte(addr uint16, value byte) error
}

// Clock supplies a free-running millisecond counter and a blocking delay.
type Clock interface {
	// Millis returns milliseconds since an arbitrary epoch. It may wrap.
	Millis() uint32

	// Sleep blocks for ms milliseconds.
	Sleep(ms uint32)
}

// elapsed returns now-since, correct across one wrap of the counter.
func elapsed(since, now uint32) uint32 {
	return now - since
}
