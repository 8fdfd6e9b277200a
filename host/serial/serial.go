package serial

import (
	"io"
)

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Standard input and output, for piping a session through a terminal
// - Mock serial (for testing)
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int

	// Character framing. Zero values mean 8N1.
	DataBits int
	Parity   string // "N", "E" or "O"
	StopBits int
}

// DefaultConfig returns the operator channel framing: 9600 8N1
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        9600,
		ReadTimeout: 100,
		DataBits:    8,
		Parity:      "N",
		StopBits:    1,
	}
}

// ControllerConfig returns the usual framing of a Delta style PID controller
// in Modbus ASCII mode: 9600 7E1
func ControllerConfig(device string) *Config {
	cfg := DefaultConfig(device)
	cfg.DataBits = 7
	cfg.Parity = "E"
	return cfg
}
