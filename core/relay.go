package core

import "errors"

// RelayMaskMax is the largest valid relay mask; bit n drives relay n.
const RelayMaskMax = 15

// ErrRelayRange reports a relay mask outside [0, RelayMaskMax].
var ErrRelayRange = errors.New("relay mask out of range")

// RelayBank drives four relays from a register field and persists their mask.
type RelayBank struct {
	store NVStore
	addr  uint16
	field *Field
}

// NewRelayBank creates a bank persisting its mask at addr.
func NewRelayBank(store NVStore, addr uint16, field *Field) *RelayBank {
	return &RelayBank{store: store, addr: addr, field: field}
}

// Restore reads the persisted mask and applies it. Bits above the relay
// field are dropped, so a blank or corrupt cell never reaches other pins.
func (b *RelayBank) Restore() (uint8, error) {
	v, err := b.store.LoadByte(b.addr)
	if err != nil {
		return 0, err
	}
	mask := v & RelayMaskMax
	if err := b.field.Set(mask); err != nil {
		return 0, err
	}
	return mask, nil
}

// Read returns the persisted mask.
func (b *RelayBank) Read() (uint8, error) {
	v, err := b.store.LoadByte(b.addr)
	if err != nil {
		return 0, err
	}
	return v & RelayMaskMax, nil
}

// Write persists mask and applies it to the relay pins. Out-of-range masks
// change nothing.
func (b *RelayBank) Write(mask int) error {
	if mask < 0 || mask > RelayMaskMax {
		return ErrRelayRange
	}
	if err := b.store.StoreByte(b.addr, uint8(mask)); err != nil {
		return err
	}
	return b.field.Set(uint8(mask))
}

// Applied returns the mask currently driven on the pins.
func (b *RelayBank) Applied() uint8 {
	return b.field.Get()
}
