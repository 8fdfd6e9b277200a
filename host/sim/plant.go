package sim

import (
	"sync"

	"vaporizer/core"
)

// Plant simulates the valve mechanism behind the output register: the coil
// lines drive a stepper whose travel moves the position potentiometer, and a
// second analog channel reports a fixed temperature.
//
// Plant implements core.PinBank and core.ADCDriver. Writes are applied as a
// whole word, so the plant never sees an intermediate coil pattern.
type Plant struct {
	mu sync.Mutex

	pins       uint16
	configured uint16

	coilShift    uint8
	stepsPerUnit int
	invert       bool
	lastPhase    core.Phase
	travel       int // half-steps from the closed stop

	positionCh    core.ADCChannelID
	temperatureCh core.ADCChannelID
	temperature   int
	channels      map[core.ADCChannelID]bool
}

// PlantConfig describes the simulated mechanism.
type PlantConfig struct {
	CoilShift     uint8
	StepsPerUnit  int // half-steps per position count
	StartPosition int
	Invert        bool // coils wired so that walking forward opens
	PositionCh    core.ADCChannelID
	TemperatureCh core.ADCChannelID
	Temperature   int
}

// NewPlant creates a plant at the configured start position.
func NewPlant(cfg PlantConfig) *Plant {
	if cfg.StepsPerUnit <= 0 {
		cfg.StepsPerUnit = 1
	}
	return &Plant{
		coilShift:     cfg.CoilShift,
		stepsPerUnit:  cfg.StepsPerUnit,
		invert:        cfg.Invert,
		lastPhase:     core.PhaseOff,
		travel:        cfg.StartPosition * cfg.StepsPerUnit,
		positionCh:    cfg.PositionCh,
		temperatureCh: cfg.TemperatureCh,
		temperature:   cfg.Temperature,
		channels:      make(map[core.ADCChannelID]bool),
	}
}

// ConfigureOutputs records which pins were configured.
func (p *Plant) ConfigureOutputs(mask uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configured |= mask
	return nil
}

// WritePins latches the selected pins and moves the mechanism if the coil
// pattern advanced by one phase.
func (p *Plant) WritePins(mask, value uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pins = core.MergeBits(p.pins, mask, value)
	p.track(uint8(p.pins>>p.coilShift) & 0x0F)
	return nil
}

func (p *Plant) track(pattern uint8) {
	phase := core.PhaseOff
	for i := core.Phase(0); i < core.PhaseCount; i++ {
		if core.Pattern(i) == pattern {
			phase = i
			break
		}
	}
	if phase != core.PhaseOff && p.lastPhase != core.PhaseOff {
		opening := core.NextPhase(p.lastPhase, core.Reverse)
		closing := core.NextPhase(p.lastPhase, core.Forward)
		if p.invert {
			opening, closing = closing, opening
		}
		switch phase {
		case opening:
			p.travel++
		case closing:
			p.travel--
		}
		limit := core.ADCMax * p.stepsPerUnit
		if p.travel < 0 {
			p.travel = 0
		}
		if p.travel > limit {
			p.travel = limit
		}
	}
	p.lastPhase = phase
}

// ConfigureChannel records the channel as configured.
func (p *Plant) ConfigureChannel(ch core.ADCChannelID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels[ch] = true
	return nil
}

// ReadRaw returns the potentiometer reading or the temperature.
func (p *Plant) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch ch {
	case p.positionCh:
		return core.ADCValue(p.travel / p.stepsPerUnit), nil
	case p.temperatureCh:
		return core.ADCValue(p.temperature), nil
	}
	return 0, nil
}

// Position returns the current potentiometer reading.
func (p *Plant) Position() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.travel / p.stepsPerUnit
}

// SetTemperature changes the temperature reading.
func (p *Plant) SetTemperature(v int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.temperature = v
}

// Pins returns the latched output word.
func (p *Plant) Pins() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pins
}

// Coils returns the coil pattern currently energized.
func (p *Plant) Coils() uint8 {
	return uint8(p.Pins()>>p.coilShift) & 0x0F
}

// Relays returns the four relay lines at shift.
func (p *Plant) Relays(shift uint8) uint8 {
	return uint8(p.Pins()>>shift) & 0x0F
}
