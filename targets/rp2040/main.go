//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"vaporizer/core"
	"vaporizer/targets/pio"
)

// Board wiring. Register bit n is GPIO n.
const (
	primaryTX = machine.GPIO0 // UART0, register bits 0-1
	primaryRX = machine.GPIO1
	bridgeTX  = machine.GPIO20 // UART1
	bridgeRX  = machine.GPIO21
	eepromSDA = machine.GPIO14 // I2C1
	eepromSCL = machine.GPIO15

	primaryBaud = 9600
	bridgeBaud  = 9600

	// Set false to bit-bang the coils through GPIO instead of PIO0 SM0.
	usePIOCoils = true
)

var (
	// Debug counters
	loopPanics uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitDebug()
	InitClock()

	cfg := core.DefaultConfig()
	hw, err := setupHardware(cfg)
	if err != nil {
		halt("hardware: " + err.Error())
	}

	ctl, err := core.NewController(cfg, hw)
	if err != nil {
		halt("controller: " + err.Error())
	}
	if err := ctl.Start(); err != nil {
		// Keep running with cleared relays rather than stay silent
		core.DebugPrintln("[VAP] start: " + err.Error())
	}

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					loopPanics++
					ctl.Recover()
				}
			}()
			ctl.Poll()
		}()

		// Yield to other goroutines
		time.Sleep(100 * time.Microsecond)
	}
}

// setupHardware configures the peripherals and returns the driver bundle.
func setupHardware(cfg core.Config) (core.Hardware, error) {
	primary, err := NewUARTPort(machine.UART0, primaryBaud, primaryTX, primaryRX, 8, machine.ParityNone)
	if err != nil {
		return core.Hardware{}, err
	}
	bridge, err := NewUARTPort(machine.UART1, bridgeBaud, bridgeTX, bridgeRX, 7, machine.ParityEven)
	if err != nil {
		return core.Hardware{}, err
	}
	store, err := NewEEPROMStore(machine.I2C1, eepromSDA, eepromSCL)
	if err != nil {
		return core.Hardware{}, err
	}

	var outputs core.PinBank = core.NewGPIOBank(NewRPGPIODriver())
	if usePIOCoils {
		coils, err := pio.NewPIOCoilBank(0, 0, machine.Pin(cfg.CoilShift), outputs, cfg.CoilShift)
		if err != nil {
			return core.Hardware{}, err
		}
		outputs = coils
	}

	return core.Hardware{
		Outputs:        outputs,
		ADC:            NewRPAdcDriver(),
		Primary:        primary,
		Bridge:         bridge,
		Store:          store,
		Clock:          HardwareClock{},
		OutputsInitial: core.SerialReservedMask,
	}, nil
}

// halt reports a fatal setup error on the debug channel forever.
func halt(msg string) {
	for {
		core.DebugPrintln("[VAP] halted: " + msg)
		time.Sleep(2 * time.Second)
	}
}
