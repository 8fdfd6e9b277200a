package core

import "testing"

// MockGPIODriver is a test implementation of GPIODriver
type MockGPIODriver struct {
	pins       map[GPIOPin]bool
	configured map[GPIOPin]bool
	sets       []GPIOPin
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins:       make(map[GPIOPin]bool),
		configured: make(map[GPIOPin]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	if pin >= 30 {
		return errMock
	}
	m.configured[pin] = true
	m.pins[pin] = false
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	if !m.configured[pin] {
		return errMock
	}
	m.pins[pin] = value
	m.sets = append(m.sets, pin)
	return nil
}

func (m *MockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	return m.pins[pin], nil
}

func TestGPIOBankConfigure(t *testing.T) {
	driver := NewMockGPIODriver()
	bank := NewGPIOBank(driver)

	if err := bank.ConfigureOutputs(0x0F3C); err != nil {
		t.Fatalf("ConfigureOutputs failed: %v", err)
	}
	for _, pin := range []GPIOPin{2, 3, 4, 5, 8, 9, 10, 11} {
		if !driver.configured[pin] {
			t.Errorf("Pin %d not configured", pin)
		}
	}
	if driver.configured[0] || driver.configured[1] || driver.configured[6] {
		t.Errorf("Unselected pins were configured")
	}
}

func TestGPIOBankWritePins(t *testing.T) {
	driver := NewMockGPIODriver()
	bank := NewGPIOBank(driver)
	bank.ConfigureOutputs(0x003C)

	if err := bank.WritePins(0x0014, 0xFFFF); err != nil {
		t.Fatalf("WritePins failed: %v", err)
	}
	if !driver.pins[2] || !driver.pins[4] || driver.pins[3] || driver.pins[5] {
		t.Errorf("Unexpected pin state: %v", driver.pins)
	}
	if len(driver.sets) != 2 {
		t.Errorf("Expected only the two masked pins written, got %v", driver.sets)
	}
}

func TestGPIOBankPropagatesError(t *testing.T) {
	driver := NewMockGPIODriver()
	bank := NewGPIOBank(driver)

	// Pin 2 was never configured
	if err := bank.WritePins(0x0004, 0x0004); err == nil {
		t.Error("Expected driver error")
	}
}

func TestControllerOnGPIOBank(t *testing.T) {
	driver := NewMockGPIODriver()
	adc := NewMockADC()
	primary := &MockSerial{}

	ctl, err := NewController(DefaultConfig(), Hardware{
		Outputs: NewGPIOBank(driver),
		ADC:     adc,
		Primary: primary,
		Store:   NewMockStore(),
		Clock:   &MockClock{},
	})
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	if err := ctl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	primary.Push("S6\r")
	ctl.Poll()
	if !driver.pins[3] || !driver.pins[4] || driver.pins[2] || driver.pins[5] {
		t.Errorf("Relay pins do not show mask 6: %v", driver.pins)
	}

	// Without a bridge port every bridge command times out
	primary.TakeOutput()
	primary.Push("P\r")
	ctl.Poll()
	if got := primary.TakeOutput(); got != "Connection timeout\r\n" {
		t.Errorf("P reply without bridge: %q", got)
	}
}
