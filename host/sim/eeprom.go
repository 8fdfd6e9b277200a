package sim

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrAddress reports an access past the end of the EEPROM.
var ErrAddress = errors.New("eeprom address out of range")

// EEPROM is a byte-addressed store that reads 0xFF when blank. When backed by
// a file every write is flushed so the contents survive a restart.
type EEPROM struct {
	mu    sync.Mutex
	cells []byte
	path  string
}

// NewEEPROM returns a blank in-memory store of size bytes.
func NewEEPROM(size int) *EEPROM {
	cells := make([]byte, size)
	for i := range cells {
		cells[i] = 0xFF
	}
	return &EEPROM{cells: cells}
}

// OpenEEPROM loads path into a store of size bytes, creating it blank when
// the file does not exist.
func OpenEEPROM(path string, size int) (*EEPROM, error) {
	e := NewEEPROM(size)
	e.path = path
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		copy(e.cells, data)
	case os.IsNotExist(err):
		if err := e.flush(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("open eeprom %s: %w", path, err)
	}
	return e, nil
}

// LoadByte reads one cell.
func (e *EEPROM) LoadByte(addr uint16) (byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if int(addr) >= len(e.cells) {
		return 0, ErrAddress
	}
	return e.cells[addr], nil
}

// StoreByte writes one cell, skipping the write when unchanged.
func (e *EEPROM) StoreByte(addr uint16, value byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if int(addr) >= len(e.cells) {
		return ErrAddress
	}
	if e.cells[addr] == value {
		return nil
	}
	e.cells[addr] = value
	return e.flush()
}

func (e *EEPROM) flush() error {
	if e.path == "" {
		return nil
	}
	if err := os.WriteFile(e.path, e.cells, 0o644); err != nil {
		return fmt.Errorf("write eeprom %s: %w", e.path, err)
	}
	return nil
}
