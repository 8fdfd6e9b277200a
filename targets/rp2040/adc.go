//go:build rp2040 || rp2350

package main

import (
	"device/rp"
	"errors"
	"machine"

	"vaporizer/core"
)

// tempSensorChannel selects the on-die temperature sensor.
const tempSensorChannel core.ADCChannelID = 4

// RpAdcDriver implements core.ADCDriver using TinyGo's machine.ADC. Readings
// are scaled to the 10-bit range the controller works in.
type RpAdcDriver struct {
	// Per-channel TinyGo ADC handles for external channels 0-3.
	channels map[core.ADCChannelID]*machine.ADC
}

// NewRPAdcDriver constructs the driver and powers up the ADC.
func NewRPAdcDriver() *RpAdcDriver {
	machine.InitADC()
	return &RpAdcDriver{
		channels: make(map[core.ADCChannelID]*machine.ADC),
	}
}

// rawInternalTemp returns the 12-bit raw ADC value from the internal temp sensor (0-4095).
func rawInternalTemp() uint16 {
	// Enable temperature sensor
	rp.ADC.CS.SetBits(rp.ADC_CS_TS_EN)

	rp.ADC.CS.ReplaceBits(
		uint32(tempSensorChannel)<<rp.ADC_CS_AINSEL_Pos,
		rp.ADC_CS_AINSEL_Msk,
		0,
	)

	// Start a single conversion and wait for it
	rp.ADC.CS.SetBits(rp.ADC_CS_START_ONCE)
	for !rp.ADC.CS.HasBits(rp.ADC_CS_READY) {
	}

	return uint16(rp.ADC.RESULT.Get())
}

// ConfigureChannel sets up the pin mux for a channel.
func (d *RpAdcDriver) ConfigureChannel(ch core.ADCChannelID) error {
	if ch == tempSensorChannel {
		// Read straight from the peripheral in rawInternalTemp
		return nil
	}
	if _, ok := d.channels[ch]; ok {
		return nil
	}

	var adc machine.ADC
	switch ch {
	case 0:
		adc = machine.ADC{Pin: machine.ADC0}
	case 1:
		adc = machine.ADC{Pin: machine.ADC1}
	case 2:
		adc = machine.ADC{Pin: machine.ADC2}
	case 3:
		adc = machine.ADC{Pin: machine.ADC3}
	default:
		return errors.New("unsupported ADC channel")
	}

	if err := adc.Configure(machine.ADCConfig{}); err != nil {
		return err
	}
	d.channels[ch] = &adc
	return nil
}

// ReadRaw returns a 10-bit reading (0-1023).
func (d *RpAdcDriver) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	if ch == tempSensorChannel {
		return core.ADCValue(rawInternalTemp() >> 2), nil
	}

	adc, ok := d.channels[ch]
	if !ok {
		return 0, errors.New("ADC channel not configured")
	}

	// machine.ADC.Get scales every reading to 16 bits
	return core.ADCValue(adc.Get() >> 6), nil
}
