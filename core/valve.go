package core

import "errors"

// ErrSetpointRange reports a setpoint outside the open interval (0, ADCMax).
var ErrSetpointRange = errors.New("setpoint out of range")

// MotionState is the position controller's state.
type MotionState uint8

const (
	MotionIdle MotionState = iota
	MotionUp
	MotionDown
	MotionCancelRequested
)

func (s MotionState) String() string {
	switch s {
	case MotionIdle:
		return "Idle"
	case MotionUp:
		return "MovingUp"
	case MotionDown:
		return "MovingDown"
	case MotionCancelRequested:
		return "CancelRequested"
	default:
		return "Unknown"
	}
}

// Moving reports whether a setpoint is being pursued.
func (s MotionState) Moving() bool {
	return s == MotionUp || s == MotionDown
}

// TickResult reports what one Tick did.
type TickResult uint8

const (
	TickIdle    TickResult = iota // nothing to do
	TickMoved                     // one sub-sequence driven
	TickDone                      // setpoint reached, coils released
	TickAborted                   // cancel honoured, coils released
)

// PositionController drives the valve stepper toward a setpoint read back
// from the position potentiometer. Each Tick performs at most one
// sub-sequence of PhaseCount steps so the caller can service input between
// ticks.
type PositionController struct {
	seq     *Sequencer
	adc     ADCDriver
	channel ADCChannelID
	clock   Clock
	events  *EventRing

	decelBand    int
	decelDelayMS uint32
	invert       bool

	state    MotionState
	setpoint int
	current  int
}

// NewPositionController creates an idle controller.
func NewPositionController(seq *Sequencer, adc ADCDriver, cfg *Config, clock Clock, events *EventRing) *PositionController {
	return &PositionController{
		seq:          seq,
		adc:          adc,
		channel:      cfg.PositionChannel,
		clock:        clock,
		events:       events,
		decelBand:    cfg.DecelBand,
		decelDelayMS: cfg.DecelDelayMS,
		invert:       cfg.InvertDirection,
	}
}

// State returns the current motion state.
func (p *PositionController) State() MotionState {
	return p.state
}

// Setpoint returns the last accepted setpoint, or the position captured when
// a setpoint was rejected.
func (p *PositionController) Setpoint() int {
	return p.setpoint
}

// Current returns the last position reading.
func (p *PositionController) Current() int {
	return p.current
}

// ReadPosition samples the position input and caches it.
func (p *PositionController) ReadPosition() (int, error) {
	v, err := p.adc.ReadRaw(p.channel)
	if err != nil {
		p.record(EvtADCError, 0, int32(p.current))
		return p.current, err
	}
	p.current = int(v)
	return p.current, nil
}

// Command sets a new target. A setpoint outside (0, ADCMax) is rejected and the
// setpoint is pinned to the current position so nothing moves. A valid
// setpoint replaces any motion already in progress.
func (p *PositionController) Command(sp int) error {
	cur, err := p.ReadPosition()
	if err != nil {
		return err
	}
	if sp <= 0 || sp >= ADCMax {
		p.setpoint = cur
		p.record(EvtReject, int32(sp), int32(cur))
		return ErrSetpointRange
	}
	p.setpoint = sp
	if sp < cur {
		p.state = MotionDown
	} else {
		// Equal positions finish on the next tick.
		p.state = MotionUp
	}
	p.record(EvtSetpoint, int32(sp), int32(cur))
	return nil
}

// Cancel requests an abort. It returns false when no motion is in progress.
// The abort takes effect at the next Tick.
func (p *PositionController) Cancel() bool {
	if !p.state.Moving() {
		return false
	}
	p.state = MotionCancelRequested
	return true
}

// Tick advances the motion by one sub-sequence.
func (p *PositionController) Tick() (TickResult, error) {
	switch p.state {
	case MotionIdle:
		return TickIdle, nil
	case MotionCancelRequested:
		p.state = MotionIdle
		p.record(EvtAbort, int32(p.setpoint), int32(p.current))
		return TickAborted, p.seq.Off()
	}

	cur, err := p.ReadPosition()
	if err != nil {
		return TickMoved, err
	}
	if p.reached(cur) {
		p.state = MotionIdle
		p.record(EvtComplete, int32(p.setpoint), int32(cur))
		return TickDone, p.seq.Off()
	}

	dir := p.direction()
	decel := p.distance(cur) < p.decelBand
	for i := 0; i < PhaseCount; i++ {
		if err := p.seq.Step(dir); err != nil {
			return TickMoved, err
		}
		if decel && p.decelDelayMS > 0 {
			p.clock.Sleep(p.decelDelayMS)
		}
	}
	kind := EvtSubseq
	if decel {
		kind = EvtDecel
	}
	cur, err = p.ReadPosition()
	p.record(kind, int32(p.setpoint), int32(cur))
	return TickMoved, err
}

func (p *PositionController) reached(cur int) bool {
	if p.state == MotionUp {
		return cur >= p.setpoint
	}
	return cur <= p.setpoint
}

func (p *PositionController) distance(cur int) int {
	d := p.setpoint - cur
	if d < 0 {
		d = -d
	}
	return d
}

// direction maps the motion state to a phase walk. Opening walks the table
// backwards unless the coils are wired the other way round.
func (p *PositionController) direction() Direction {
	dir := Reverse
	if p.state == MotionDown {
		dir = Forward
	}
	if p.invert {
		dir = -dir
	}
	return dir
}

func (p *PositionController) record(kind EventKind, v1, v2 int32) {
	if p.events != nil {
		p.events.Record(kind, p.clock.Millis(), v1, v2)
	}
}
