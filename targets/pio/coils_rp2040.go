//go:build rp2040 || rp2350

package pio

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"

	"vaporizer/core"
)

var errStateMachineBusy = errors.New("pio: state machine already claimed")

// buildCoilProgram creates the coil PIO program using AssemblerV0
func buildCoilProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestPins, 4).Encode(), // 1: out pins, 4
		// .wrap
	}
}

const coilPIOOrigin = 0

// NewPIOCoilBank starts the coil program on the given state machine with the
// coils on pins base..base+3. Register bit shift maps to base.
func NewPIOCoilBank(pioNum, smNum uint8, base machine.Pin, fallback core.PinBank, shift uint8) (*CoilBank, error) {
	pioHW := rp2pio.PIO0
	if pioNum == 1 {
		pioHW = rp2pio.PIO1
	}
	sm := pioHW.StateMachine(smNum)

	// Claim the state machine first
	if !sm.TryClaim() {
		return nil, errStateMachineBusy
	}

	program := buildCoilProgram()
	offset, err := pioHW.AddProgram(program, coilPIOOrigin)
	if err != nil {
		return nil, err
	}

	for i := machine.Pin(0); i < 4; i++ {
		(base + i).Configure(machine.PinConfig{Mode: pioHW.PinMode()})
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetOutPins(base, 4)
	// Shift right, no autopull, the program pulls explicitly
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(1, 0)

	// Init before setting pin directions
	sm.Init(offset, cfg)
	sm.SetPindirsConsecutive(base, 4, true)
	sm.SetPinsConsecutive(base, 4, false)
	sm.SetEnabled(true)

	return NewCoilBank(sm, fallback, shift), nil
}
