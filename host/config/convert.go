// host/config/convert.go
package config

import (
	"vaporizer/core"
	"vaporizer/host/serial"
)

// Serial returns the serial settings for p.
func (p PortConfig) Serial() *serial.Config {
	return &serial.Config{
		Device:      p.Device,
		Baud:        p.Baud,
		ReadTimeout: p.ReadTimeoutMs,
		DataBits:    p.DataBits,
		Parity:      p.Parity,
		StopBits:    p.StopBits,
	}
}

// Core returns the firmware configuration with overrides applied on top of
// core.DefaultConfig.
func (f FirmwareConfig) Core() core.Config {
	c := core.DefaultConfig()
	if f.StepDwellMs != 0 {
		c.StepDwellMS = f.StepDwellMs
	}
	if f.DecelBand != 0 {
		c.DecelBand = f.DecelBand
	}
	if f.DecelDelayMs != nil {
		c.DecelDelayMS = *f.DecelDelayMs
	}
	c.InvertDirection = f.InvertDirection
	if f.InputGapMs != 0 {
		c.InputGapMS = f.InputGapMs
	}
	if f.InputWindowMs != 0 {
		c.InputWindowMS = f.InputWindowMs
	}
	if f.MaxCommandLen != 0 {
		c.MaxCommandLen = f.MaxCommandLen
	}
	if f.BridgeSettleMs != 0 {
		c.BridgeSettleMS = f.BridgeSettleMs
	}
	if f.RelayStoreAddr != nil {
		c.RelayStoreAddr = *f.RelayStoreAddr
	}
	return c
}
