package core

// Phase is a position in the half-step coil sequence, or PhaseOff.
type Phase int8

// PhaseCount is the number of half-step phases in one electrical cycle.
const PhaseCount = 8

// PhaseOff de-energizes all four coils.
const PhaseOff Phase = -1

// Direction selects which way the sequencer walks the phase table.
type Direction int8

const (
	// Forward walks phases 0, 1, ... 7.
	Forward Direction = 1
	// Reverse walks phases 7, 6, ... 0.
	Reverse Direction = -1
)

// Coil patterns for the half-step sequence, bit 0 being the first coil.
// Consecutive entries differ in exactly one coil.
var halfStepPatterns = [PhaseCount]uint8{
	0b0001,
	0b0011,
	0b0010,
	0b0110,
	0b0100,
	0b1100,
	0b1000,
	0b1001,
}

// Pattern returns the coil bits energized in phase p.
func Pattern(p Phase) uint8 {
	if p < 0 || p >= PhaseCount {
		return 0
	}
	return halfStepPatterns[p]
}

// NextPhase returns the phase that follows p in direction dir.
// Leaving PhaseOff starts at the first phase of the walk.
func NextPhase(p Phase, dir Direction) Phase {
	if p == PhaseOff {
		if dir == Reverse {
			return PhaseCount - 1
		}
		return 0
	}
	return Phase((int(p) + int(dir) + PhaseCount) % PhaseCount)
}

// Sequencer drives a four-coil unipolar stepper through a register field.
type Sequencer struct {
	coils   *Field
	clock   Clock
	dwellMS uint32
	phase   Phase
	steps   uint32
}

// NewSequencer creates a sequencer that holds each phase for dwellMS.
func NewSequencer(coils *Field, clock Clock, dwellMS uint32) *Sequencer {
	return &Sequencer{
		coils:   coils,
		clock:   clock,
		dwellMS: dwellMS,
		phase:   PhaseOff,
	}
}

// Phase returns the phase last driven.
func (s *Sequencer) Phase() Phase {
	return s.phase
}

// StepCount returns the number of phases driven since creation.
func (s *Sequencer) StepCount() uint32 {
	return s.steps
}

// Advance moves the sequencer to the next phase in dir without touching the coils.
func (s *Sequencer) Advance(dir Direction) Phase {
	s.phase = NextPhase(s.phase, dir)
	return s.phase
}

// Drive energizes the coils for phase p and holds it for the dwell time.
func (s *Sequencer) Drive(p Phase) error {
	if err := s.coils.Set(Pattern(p)); err != nil {
		return err
	}
	s.phase = p
	if p == PhaseOff {
		return nil
	}
	s.steps++
	if s.dwellMS > 0 {
		s.clock.Sleep(s.dwellMS)
	}
	return nil
}

// Step advances one phase in dir and drives it. A failed drive leaves the
// sequencer on the phase it held before.
func (s *Sequencer) Step(dir Direction) error {
	prev := s.phase
	if err := s.Drive(s.Advance(dir)); err != nil {
		s.phase = prev
		return err
	}
	return nil
}

// Off de-energizes the coils. The next step restarts from the walk's first phase.
func (s *Sequencer) Off() error {
	return s.Drive(PhaseOff)
}
