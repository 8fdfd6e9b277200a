package pio

import (
	"errors"
	"testing"

	"vaporizer/core"
)

type fakeFIFO struct {
	words []uint32
}

func (f *fakeFIFO) IsTxFIFOFull() bool { return false }
func (f *fakeFIFO) TxPut(data uint32)  { f.words = append(f.words, data) }

type fakeBank struct {
	configured uint16
	value      uint16
	writes     []uint16
	fail       bool
}

func (b *fakeBank) ConfigureOutputs(mask uint16) error {
	b.configured |= mask
	return nil
}

func (b *fakeBank) WritePins(mask, value uint16) error {
	if b.fail {
		return errors.New("bank failure")
	}
	b.writes = append(b.writes, mask)
	b.value = core.MergeBits(b.value, mask, value)
	return nil
}

func TestCoilBankRoutesLines(t *testing.T) {
	fifo := &fakeFIFO{}
	fallback := &fakeBank{}
	bank := NewCoilBank(fifo, fallback, 8)

	if err := bank.ConfigureOutputs(0x0F3C); err != nil {
		t.Fatalf("ConfigureOutputs failed: %v", err)
	}
	if fallback.configured != 0x003C {
		t.Errorf("Expected only relay lines configured on fallback, got %04X", fallback.configured)
	}

	bank.WritePins(0x003C, 0x0014)
	if len(fifo.words) != 0 {
		t.Errorf("Relay write reached the state machine")
	}
	if fallback.value != 0x0014 {
		t.Errorf("Fallback value %04X", fallback.value)
	}

	bank.WritePins(0x0F00, 0x0300)
	if len(fallback.writes) != 1 {
		t.Errorf("Coil write reached the fallback bank")
	}
	if len(fifo.words) != 1 || fifo.words[0] != 0x3 {
		t.Errorf("Expected pattern 0011 pushed, got %v", fifo.words)
	}
}

func TestCoilBankPartialCoilMask(t *testing.T) {
	fifo := &fakeFIFO{}
	bank := NewCoilBank(fifo, &fakeBank{}, 8)

	bank.WritePins(0x0F00, 0x0900)
	bank.WritePins(0x0100, 0x0000)
	if bank.Coils() != 0x8 {
		t.Errorf("Expected 1000 after clearing bit 0, got %04b", bank.Coils())
	}
	if fifo.words[1] != 0x8 {
		t.Errorf("Expected full pattern pushed, got %v", fifo.words)
	}
}

func TestCoilBankFallbackError(t *testing.T) {
	fifo := &fakeFIFO{}
	bank := NewCoilBank(fifo, &fakeBank{fail: true}, 8)

	if err := bank.WritePins(0x0F0C, 0x0304); err == nil {
		t.Error("Expected fallback error")
	}
	if len(fifo.words) != 0 {
		t.Errorf("Coils written after a failed relay write")
	}
}

func TestCoilBankDrivesSequencer(t *testing.T) {
	fifo := &fakeFIFO{}
	fallback := &fakeBank{}
	bank := NewCoilBank(fifo, fallback, 8)

	reg := core.NewOutputRegister(bank, core.SerialReservedMask)
	coils, err := reg.Claim(8, 4)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	seq := core.NewSequencer(coils, nopClock{}, 1)
	for i := 0; i < 8; i++ {
		if err := seq.Step(core.Forward); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}
	want := []uint32{0x1, 0x3, 0x2, 0x6, 0x4, 0xC, 0x8, 0x9}
	if len(fifo.words) != len(want) {
		t.Fatalf("Expected %d patterns, got %v", len(want), fifo.words)
	}
	for i, w := range want {
		if fifo.words[i] != w {
			t.Errorf("Step %d: pattern %04b, want %04b", i, fifo.words[i], w)
		}
	}
	if len(fallback.writes) != 0 {
		t.Errorf("Sequencer touched non-coil lines")
	}
}

type nopClock struct{}

func (nopClock) Millis() uint32 { return 0 }
func (nopClock) Sleep(uint32)   {}
