package core

// ADCChannelID identifies a logical ADC channel.
type ADCChannelID uint8

// ADCValue is the raw ADC reading as seen by the rest of the firmware.
// Convention here: 10-bit value in [0, ADCMax], whatever the hardware width.
type ADCValue uint16

// ADCMax is the largest reading a driver may return.
const ADCMax = 1023

// ADCDriver is the abstract ADC interface that core code uses.
type ADCDriver interface {
	// ConfigureChannel prepares a channel for analog input.
	// For pin-muxed channels, this should set pin to analog mode.
	ConfigureChannel(ch ADCChannelID) error

	// ReadRaw performs a one-shot sample from the given channel.
	// Drivers with wider converters scale down to 10 bits.
	ReadRaw(ch ADCChannelID) (ADCValue, error)
}
