// Package pio drives the valve coils from an RP2040 PIO state machine.
//
// The coil program pulls one word per pattern and shifts its low four bits
// onto four consecutive pins, so a pattern change lands on all coils in the
// same cycle.
package pio

import "vaporizer/core"

// TxFIFO is the transmit side of a PIO state machine.
type TxFIFO interface {
	IsTxFIFOFull() bool
	TxPut(data uint32)
}

// CoilBank is a core.PinBank that routes the four coil lines to a state
// machine and every other line to a fallback bank.
type CoilBank struct {
	fifo     TxFIFO
	fallback core.PinBank
	shift    uint8
	coils    uint8
}

// NewCoilBank creates a bank whose coils occupy register bits shift..shift+3.
func NewCoilBank(fifo TxFIFO, fallback core.PinBank, shift uint8) *CoilBank {
	return &CoilBank{fifo: fifo, fallback: fallback, shift: shift}
}

func (b *CoilBank) coilMask() uint16 {
	return 0x0F << b.shift
}

// ConfigureOutputs configures the non-coil lines on the fallback bank. The
// coil pins belong to the state machine from the moment it starts.
func (b *CoilBank) ConfigureOutputs(mask uint16) error {
	if rest := mask &^ b.coilMask(); rest != 0 {
		return b.fallback.ConfigureOutputs(rest)
	}
	return nil
}

// WritePins writes the masked bits. Coil bits are pushed as one pattern.
func (b *CoilBank) WritePins(mask, value uint16) error {
	cm := b.coilMask()
	if rest := mask &^ cm; rest != 0 {
		if err := b.fallback.WritePins(rest, value); err != nil {
			return err
		}
	}
	if mask&cm == 0 {
		return nil
	}
	word := core.MergeBits(uint16(b.coils)<<b.shift, mask&cm, value)
	b.coils = uint8(word>>b.shift) & 0x0F
	for b.fifo.IsTxFIFOFull() {
		// Busy wait, the program drains one word per two cycles
	}
	b.fifo.TxPut(uint32(b.coils))
	return nil
}

// Coils returns the last pattern pushed to the state machine.
func (b *CoilBank) Coils() uint8 {
	return b.coils
}
