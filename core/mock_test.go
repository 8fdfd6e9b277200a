package core

import "errors"

var errMock = errors.New("mock failure")

// MockClock advances only when slept on.
type MockClock struct {
	now   uint32
	slept uint32
}

func (m *MockClock) Millis() uint32 { return m.now }

func (m *MockClock) Sleep(ms uint32) {
	m.now += ms
	m.slept += ms
}

func (m *MockClock) Advance(ms uint32) { m.now += ms }

// MockPinBank records writes and, when coilShift is set, turns coil phase
// changes into valve travel the way the motor would.
type MockPinBank struct {
	value      uint16
	configured uint16
	writes     int
	failWrites bool

	coilShift uint8
	lastPhase Phase
	quarter   int // valve travel in quarter units
}

func NewMockPinBank() *MockPinBank {
	return &MockPinBank{lastPhase: PhaseOff}
}

func (m *MockPinBank) ConfigureOutputs(mask uint16) error {
	m.configured |= mask
	return nil
}

func (m *MockPinBank) WritePins(mask, value uint16) error {
	if m.failWrites {
		return errMock
	}
	m.value = MergeBits(m.value, mask, value)
	m.writes++
	if m.coilShift != 0 {
		m.track(uint8(m.value>>m.coilShift) & 0x0F)
	}
	return nil
}

func (m *MockPinBank) SetPosition(pos int) { m.quarter = pos * 4 }

func (m *MockPinBank) Position() int { return m.quarter / 4 }

// track moves the plant a quarter unit per half-step; walking the table
// backwards opens the valve.
func (m *MockPinBank) track(pattern uint8) {
	phase := PhaseOff
	for i := Phase(0); i < PhaseCount; i++ {
		if Pattern(i) == pattern {
			phase = i
		}
	}
	if phase != PhaseOff && m.lastPhase != PhaseOff {
		switch phase {
		case NextPhase(m.lastPhase, Reverse):
			m.quarter++
		case NextPhase(m.lastPhase, Forward):
			m.quarter--
		}
		if m.quarter < 0 {
			m.quarter = 0
		}
		if m.quarter > ADCMax*4 {
			m.quarter = ADCMax * 4
		}
	}
	m.lastPhase = phase
}

// MockADC serves fixed channel values, or the plant position when bound.
type MockADC struct {
	values     map[ADCChannelID]ADCValue
	plant      *MockPinBank
	plantCh    ADCChannelID
	configured map[ADCChannelID]bool
	fail       bool
}

func NewMockADC() *MockADC {
	return &MockADC{
		values:     make(map[ADCChannelID]ADCValue),
		configured: make(map[ADCChannelID]bool),
	}
}

func (m *MockADC) ConfigureChannel(ch ADCChannelID) error {
	m.configured[ch] = true
	return nil
}

func (m *MockADC) ReadRaw(ch ADCChannelID) (ADCValue, error) {
	if m.fail {
		return 0, errMock
	}
	if m.plant != nil && ch == m.plantCh {
		return ADCValue(m.plant.Position()), nil
	}
	return m.values[ch], nil
}

// MockSerial is a byte pipe: tests push bytes into rx and inspect tx.
type MockSerial struct {
	rx []byte
	tx []byte

	// respond, when set, is called with every write and may queue a reply.
	respond func(m *MockSerial, written []byte)
}

func (m *MockSerial) Available() int { return len(m.rx) }

func (m *MockSerial) ReadByte() (byte, error) {
	if len(m.rx) == 0 {
		return 0, errMock
	}
	b := m.rx[0]
	m.rx = m.rx[1:]
	return b, nil
}

func (m *MockSerial) Write(p []byte) (int, error) {
	m.tx = append(m.tx, p...)
	if m.respond != nil {
		m.respond(m, p)
	}
	return len(p), nil
}

func (m *MockSerial) Push(s string) { m.rx = append(m.rx, s...) }

func (m *MockSerial) TakeOutput() string {
	s := string(m.tx)
	m.tx = nil
	return s
}

// MockStore is a small EEPROM, blank cells read 0xFF.
type MockStore struct {
	cells  [64]byte
	writes int
	fail   bool
}

func NewMockStore() *MockStore {
	s := &MockStore{}
	for i := range s.cells {
		s.cells[i] = 0xFF
	}
	return s
}

func (m *MockStore) LoadByte(addr uint16) (byte, error) {
	if m.fail || int(addr) >= len(m.cells) {
		return 0, errMock
	}
	return m.cells[addr], nil
}

func (m *MockStore) StoreByte(addr uint16, value byte) error {
	if m.fail || int(addr) >= len(m.cells) {
		return errMock
	}
	m.cells[addr] = value
	m.writes++
	return nil
}
