package core

import "vaporizer/protocol"

// Config holds the firmware's tunables. Targets start from DefaultConfig and
// override what their board needs.
type Config struct {
	// Analog inputs
	PositionChannel    ADCChannelID
	TemperatureChannel ADCChannelID

	// Output register layout
	RelayShift     uint8
	CoilShift      uint8
	RelayStoreAddr uint16

	// Motion
	StepDwellMS     uint32
	DecelBand       int
	DecelDelayMS    uint32
	InvertDirection bool

	// Operator input
	InputGapMS    uint32
	InputWindowMS uint32
	MaxCommandLen int

	// Controller bridge
	BridgeSettleMS uint32
	BridgeReplyLen int

	// Diagnostics
	EventRingSize int
}

// DefaultConfig returns the stock board layout and timings.
func DefaultConfig() Config {
	return Config{
		PositionChannel:    0,
		TemperatureChannel: 1,
		RelayShift:         2,
		CoilShift:          8,
		RelayStoreAddr:     0x02,
		StepDwellMS:        1,
		DecelBand:          5,
		DecelDelayMS:       10,
		InputGapMS:         10,
		InputWindowMS:      50,
		MaxCommandLen:      32,
		BridgeSettleMS:     100,
		BridgeReplyLen:     protocol.ReplyWidth,
		EventRingSize:      16,
	}
}

// applyDefaults fills zero fields from DefaultConfig. A zero shift is treated
// as unset since bit 0 always belongs to the serial link.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.RelayShift == 0 {
		c.RelayShift = d.RelayShift
	}
	if c.CoilShift == 0 {
		c.CoilShift = d.CoilShift
	}
	if c.StepDwellMS == 0 {
		c.StepDwellMS = d.StepDwellMS
	}
	if c.DecelBand == 0 {
		c.DecelBand = d.DecelBand
	}
	if c.InputGapMS == 0 {
		c.InputGapMS = d.InputGapMS
	}
	if c.InputWindowMS == 0 {
		c.InputWindowMS = d.InputWindowMS
	}
	if c.MaxCommandLen == 0 {
		c.MaxCommandLen = d.MaxCommandLen
	}
	if c.BridgeSettleMS == 0 {
		c.BridgeSettleMS = d.BridgeSettleMS
	}
	if c.BridgeReplyLen == 0 {
		c.BridgeReplyLen = d.BridgeReplyLen
	}
	if c.EventRingSize == 0 {
		c.EventRingSize = d.EventRingSize
	}
}
