package core

import "testing"

func newTestSequencer(t *testing.T) (*Sequencer, *MockPinBank, *MockClock) {
	t.Helper()
	bank := NewMockPinBank()
	clock := &MockClock{}
	reg := NewOutputRegister(bank, 0)
	coils, err := reg.Claim(8, 4)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	return NewSequencer(coils, clock, 1), bank, clock
}

func TestHalfStepPatternsChangeOneCoil(t *testing.T) {
	for p := Phase(0); p < PhaseCount; p++ {
		cur := Pattern(p)
		next := Pattern(NextPhase(p, Forward))
		diff := cur ^ next
		if diff == 0 || diff&(diff-1) != 0 {
			t.Errorf("Phase %d -> %d flips %04b, expected exactly one coil", p, NextPhase(p, Forward), diff)
		}
	}
	if Pattern(PhaseOff) != 0 {
		t.Errorf("Off pattern should be 0, got %04b", Pattern(PhaseOff))
	}
}

func TestAdvanceCyclic(t *testing.T) {
	seq, _, _ := newTestSequencer(t)
	seq.Drive(0)

	for i := 0; i < PhaseCount; i++ {
		seq.Advance(Forward)
	}
	if seq.Phase() != 0 {
		t.Errorf("8 forward advances from 0 should return to 0, got %d", seq.Phase())
	}

	for i := 0; i < PhaseCount; i++ {
		seq.Advance(Reverse)
	}
	if seq.Phase() != 0 {
		t.Errorf("8 reverse advances from 0 should return to 0, got %d", seq.Phase())
	}
}

func TestAdvanceReverseUndoesForward(t *testing.T) {
	for p := Phase(0); p < PhaseCount; p++ {
		if got := NextPhase(NextPhase(p, Forward), Reverse); got != p {
			t.Errorf("Forward then reverse from %d gave %d", p, got)
		}
	}
}

func TestAdvanceFromOff(t *testing.T) {
	if NextPhase(PhaseOff, Forward) != 0 {
		t.Errorf("Forward from Off should start at 0")
	}
	if NextPhase(PhaseOff, Reverse) != PhaseCount-1 {
		t.Errorf("Reverse from Off should start at %d", PhaseCount-1)
	}
}

func TestDriveWritesCoilsAndDwells(t *testing.T) {
	seq, bank, clock := newTestSequencer(t)

	want := []uint8{0b1001, 0b1000, 0b1100, 0b0100, 0b0110, 0b0010, 0b0011, 0b0001}
	for i, pattern := range want {
		if err := seq.Step(Reverse); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
		got := uint8(bank.value>>8) & 0x0F
		if got != pattern {
			t.Errorf("Step %d: expected coils %04b, got %04b", i, pattern, got)
		}
	}
	if clock.slept != uint32(len(want)) {
		t.Errorf("Expected 1 ms dwell per step, slept %d ms", clock.slept)
	}
	if seq.StepCount() != uint32(len(want)) {
		t.Errorf("Expected %d steps counted, got %d", len(want), seq.StepCount())
	}
}

func TestOffReleasesCoils(t *testing.T) {
	seq, bank, clock := newTestSequencer(t)
	seq.Step(Forward)
	seq.Step(Forward)
	before := clock.slept

	if err := seq.Off(); err != nil {
		t.Fatalf("Off failed: %v", err)
	}
	if bank.value&0x0F00 != 0 {
		t.Errorf("Expected all coil lines low, register=%016b", bank.value)
	}
	if seq.Phase() != PhaseOff {
		t.Errorf("Expected Off sentinel, got %d", seq.Phase())
	}
	if clock.slept != before {
		t.Errorf("Off should not dwell")
	}
}

func TestDrivePropagatesBankError(t *testing.T) {
	seq, bank, _ := newTestSequencer(t)
	bank.failWrites = true

	if err := seq.Step(Forward); err == nil {
		t.Error("Expected bank error to propagate")
	}
	if seq.Phase() != PhaseOff {
		t.Errorf("Phase should not change on failed drive, got %d", seq.Phase())
	}
}

func TestStepResumesAfterBankError(t *testing.T) {
	seq, bank, _ := newTestSequencer(t)
	if err := seq.Drive(3); err != nil {
		t.Fatalf("Drive failed: %v", err)
	}

	bank.failWrites = true
	if err := seq.Step(Forward); err == nil {
		t.Fatal("Expected bank error to propagate")
	}
	if seq.Phase() != 3 {
		t.Errorf("Failed step should keep phase 3, got %d", seq.Phase())
	}

	bank.failWrites = false
	if err := seq.Step(Forward); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if seq.Phase() != 4 {
		t.Errorf("Expected phase 4 after recovery, got %d", seq.Phase())
	}
	if seq.StepCount() != 2 {
		t.Errorf("Expected 2 driven phases, got %d", seq.StepCount())
	}
}
