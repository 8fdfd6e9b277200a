package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	// Returns error if pin is invalid or already in use
	ConfigureOutput(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)
}

// PinBank drives a group of digital outputs addressed as the bits of one
// 16-bit word, bit n being pin n. A bank may apply a write atomically
// (a port register, a PIO state machine) or pin by pin.
type PinBank interface {
	// ConfigureOutputs prepares every pin whose bit is set in mask.
	ConfigureOutputs(mask uint16) error

	// WritePins drives the pins selected by mask to the matching bits of value.
	// Pins outside mask are left untouched.
	WritePins(mask, value uint16) error
}

// GPIOBank adapts a per-pin GPIODriver into a PinBank.
type GPIOBank struct {
	Driver GPIODriver
}

// NewGPIOBank wraps a GPIO driver.
func NewGPIOBank(d GPIODriver) *GPIOBank {
	return &GPIOBank{Driver: d}
}

// ConfigureOutputs configures each selected pin as an output.
func (b *GPIOBank) ConfigureOutputs(mask uint16) error {
	for pin := GPIOPin(0); pin < RegisterWidth; pin++ {
		if mask&(1<<pin) == 0 {
			continue
		}
		if err := b.Driver.ConfigureOutput(pin); err != nil {
			return err
		}
	}
	return nil
}

// WritePins sets the selected pins one at a time, lowest pin first.
func (b *GPIOBank) WritePins(mask, value uint16) error {
	for pin := GPIOPin(0); pin < RegisterWidth; pin++ {
		bit := uint16(1) << pin
		if mask&bit == 0 {
			continue
		}
		if err := b.Driver.SetPin(pin, value&bit != 0); err != nil {
			return err
		}
	}
	return nil
}
