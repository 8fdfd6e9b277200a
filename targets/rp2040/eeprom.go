//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/at24cx"
)

// eepromWriteCycle is the AT24C32 internal write time.
const eepromWriteCycle = 5 * time.Millisecond

// EEPROMStore implements core.NVStore on an AT24C32 I2C EEPROM.
type EEPROMStore struct {
	dev at24cx.Device
}

// NewEEPROMStore configures the I2C bus at 100kHz and the EEPROM at its
// default address.
func NewEEPROMStore(bus *machine.I2C, sda, scl machine.Pin) (*EEPROMStore, error) {
	err := bus.Configure(machine.I2CConfig{
		Frequency: 100000,
		SDA:       sda,
		SCL:       scl,
	})
	if err != nil {
		return nil, err
	}

	dev := at24cx.New(bus)
	if err := dev.Configure(at24cx.Config{}); err != nil {
		return nil, err
	}
	return &EEPROMStore{dev: dev}, nil
}

// LoadByte reads one byte.
func (s *EEPROMStore) LoadByte(addr uint16) (byte, error) {
	return s.dev.ReadByte(addr)
}

// StoreByte writes one byte and waits out the write cycle, skipping the
// write when the cell already holds value.
func (s *EEPROMStore) StoreByte(addr uint16, value byte) error {
	if cur, err := s.dev.ReadByte(addr); err == nil && cur == value {
		return nil
	}
	if err := s.dev.WriteByte(addr, value); err != nil {
		return err
	}
	time.Sleep(eepromWriteCycle)
	return nil
}
