package core

import "errors"

// RegisterWidth is the number of digital output pins mirrored by an OutputRegister.
const RegisterWidth = 16

// SerialReservedMask covers pins 0 and 1, which carry the primary serial link
// and never belong to a field.
const SerialReservedMask uint16 = 0x0003

var (
	ErrFieldOverlap  = errors.New("register field overlaps a claimed or reserved bit")
	ErrFieldRange    = errors.New("register field exceeds register width")
	ErrFieldTooLarge = errors.New("value does not fit register field")
	ErrFieldPreset   = errors.New("initial outputs energize a register field")
)

// MergeBits replaces the bits of current selected by mask with the same bits of
// value. Bits outside mask keep their current state.
func MergeBits(current, mask, value uint16) uint16 {
	return (current &^ mask) | (value & mask)
}

// OutputRegister mirrors the state of the digital output pins as one word and
// hands out non-overlapping bit fields.
type OutputRegister struct {
	bank    PinBank
	value   uint16
	claimed uint16
}

// NewOutputRegister creates a register whose mirror starts at initial.
func NewOutputRegister(bank PinBank, initial uint16) *OutputRegister {
	return &OutputRegister{
		bank:    bank,
		value:   initial,
		claimed: SerialReservedMask,
	}
}

// Value returns the mirrored register word.
func (r *OutputRegister) Value() uint16 {
	return r.value
}

// Claim reserves width bits starting at shift and configures them as outputs.
func (r *OutputRegister) Claim(shift, width uint8) (*Field, error) {
	if width == 0 || int(shift)+int(width) > RegisterWidth {
		return nil, ErrFieldRange
	}
	mask := uint16((1<<width)-1) << shift
	if r.claimed&mask != 0 {
		return nil, ErrFieldOverlap
	}
	if err := r.bank.ConfigureOutputs(mask); err != nil {
		return nil, err
	}
	r.claimed |= mask
	return &Field{reg: r, shift: shift, width: width, mask: mask}, nil
}

// write merges value into the bits selected by mask and pushes the changed
// bits to the bank. The mirror is only updated once the bank accepts them.
func (r *OutputRegister) write(mask, value uint16) error {
	next := MergeBits(r.value, mask, value)
	changed := (next ^ r.value) & mask
	if changed == 0 {
		return nil
	}
	if err := r.bank.WritePins(changed, next); err != nil {
		return err
	}
	r.value = next
	return nil
}

// Field is a contiguous group of bits inside an OutputRegister.
type Field struct {
	reg   *OutputRegister
	shift uint8
	width uint8
	mask  uint16
}

// Mask returns the field's bits in register position.
func (f *Field) Mask() uint16 {
	return f.mask
}

// Shift returns the bit position of the field's least significant bit.
func (f *Field) Shift() uint8 {
	return f.shift
}

// Set writes v into the field.
func (f *Field) Set(v uint8) error {
	if uint16(v)>>f.width != 0 {
		return ErrFieldTooLarge
	}
	return f.reg.write(f.mask, uint16(v)<<f.shift)
}

// Get returns the field's mirrored value.
func (f *Field) Get() uint8 {
	return uint8((f.reg.value & f.mask) >> f.shift)
}
