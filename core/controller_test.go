package core

import (
	"strings"
	"testing"

	"vaporizer/protocol"
)

type controllerRig struct {
	ctl     *Controller
	bank    *MockPinBank
	adc     *MockADC
	primary *MockSerial
	bridge  *MockSerial
	store   *MockStore
	clock   *MockClock
}

func newControllerRig(t *testing.T, start int) *controllerRig {
	t.Helper()
	cfg := DefaultConfig()
	bank := NewMockPinBank()
	bank.coilShift = cfg.CoilShift
	bank.SetPosition(start)
	adc := NewMockADC()
	adc.plant = bank
	adc.plantCh = cfg.PositionChannel
	adc.values[cfg.TemperatureChannel] = 333

	r := &controllerRig{
		bank:    bank,
		adc:     adc,
		primary: &MockSerial{},
		bridge:  &MockSerial{},
		store:   NewMockStore(),
		clock:   &MockClock{now: 5000},
	}
	ctl, err := NewController(cfg, Hardware{
		Outputs:        bank,
		ADC:            adc,
		Primary:        r.primary,
		Bridge:         r.bridge,
		Store:          r.store,
		Clock:          r.clock,
		OutputsInitial: SerialReservedMask,
	})
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	r.ctl = ctl
	return r
}

// send delivers a CR-terminated command and runs one cycle.
func (r *controllerRig) send(cmd string) string {
	r.primary.Push(cmd + "\r")
	r.ctl.Poll()
	return r.primary.TakeOutput()
}

// settle runs cycles until the motion ends and returns everything written.
func (r *controllerRig) settle(t *testing.T, budget int) string {
	t.Helper()
	var out strings.Builder
	for i := 0; i < budget; i++ {
		r.ctl.Poll()
		out.WriteString(r.primary.TakeOutput())
		if r.ctl.Valve().State() == MotionIdle {
			return out.String()
		}
	}
	t.Fatalf("Motion did not finish in %d cycles", budget)
	return ""
}

func TestControllerStartRestoresRelays(t *testing.T) {
	r := newControllerRig(t, 200)
	r.store.cells[0x02] = 0x0A

	if err := r.ctl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if r.ctl.Relays().Applied() != 0x0A {
		t.Errorf("Expected relay mask 10 restored, got %d", r.ctl.Relays().Applied())
	}
	if r.ctl.Register().Value()&SerialReservedMask != SerialReservedMask {
		t.Errorf("Serial bits disturbed by restore")
	}
	if !r.adc.configured[0] || !r.adc.configured[1] {
		t.Errorf("Expected both analog channels configured")
	}
}

func TestControllerStartReportsLayout(t *testing.T) {
	var got []string
	SetDebugWriter(func(s string) { got = append(got, s) })
	defer SetDebugWriter(func(string) {})
	defer SetDebugEnabled(false)
	SetDebugEnabled(true)

	r := newControllerRig(t, 200)
	r.store.cells[0x02] = 0x05
	if err := r.ctl.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	want := "[VAP] ready, relays=5 relay pins@2 coil pins@8 commands=" + itoa(len(r.ctl.Commands().Commands()))
	if len(got) == 0 || got[len(got)-1] != want {
		t.Errorf("Expected %q, got %v", want, got)
	}
}

func TestControllerRejectsPresetFields(t *testing.T) {
	cfg := DefaultConfig()
	_, err := NewController(cfg, Hardware{
		Outputs:        NewMockPinBank(),
		ADC:            NewMockADC(),
		Primary:        &MockSerial{},
		Store:          NewMockStore(),
		Clock:          &MockClock{},
		OutputsInitial: SerialReservedMask | 1<<cfg.CoilShift,
	})
	if err != ErrFieldPreset {
		t.Errorf("Expected ErrFieldPreset, got %v", err)
	}
}

func TestControllerReadCommands(t *testing.T) {
	r := newControllerRig(t, 200)
	r.ctl.Start()

	if got := r.send("A"); got != "ADC Value: 200\r\n" {
		t.Errorf("A reply: %q", got)
	}
	if got := r.send("T"); got != "Temperature: 333\r\n" {
		t.Errorf("T reply: %q", got)
	}
	if got := r.send("?"); got != "*\r\n" {
		t.Errorf("? reply: %q", got)
	}
}

func TestControllerADCFailure(t *testing.T) {
	r := newControllerRig(t, 200)
	r.ctl.Start()
	r.adc.fail = true

	if got := r.send("A"); got != "ADC read error\r\n" {
		t.Errorf("A reply: %q", got)
	}
	if got := r.send("T"); got != "ADC read error\r\n" {
		t.Errorf("T reply: %q", got)
	}
}

func TestControllerUnknownCommand(t *testing.T) {
	r := newControllerRig(t, 200)
	r.ctl.Start()
	r.send("S5")
	setpoint := r.ctl.Valve().Setpoint()
	state := r.ctl.Valve().State()
	storeWrites := r.store.writes

	for i := 0; i < 3; i++ {
		if got := r.send("Q9"); got != "Command not recognized\r\n" {
			t.Errorf("Q9 reply: %q", got)
		}
	}
	if r.ctl.Valve().Setpoint() != setpoint || r.ctl.Valve().State() != state {
		t.Errorf("Unknown command changed motion state")
	}
	if r.store.writes != storeWrites || r.ctl.Relays().Applied() != 5 {
		t.Errorf("Unknown command changed relays")
	}
}

func TestControllerSetValve(t *testing.T) {
	r := newControllerRig(t, 100)
	r.ctl.Start()

	if got := r.send("M250"); got != "" {
		t.Errorf("M should not reply before completion, got %q", got)
	}
	out := r.settle(t, 2000)
	if !strings.HasSuffix(out, "*\r\n") {
		t.Errorf("Expected completion marker, got %q", out)
	}
	pos := r.bank.Position()
	if pos < 250 || pos >= 255 {
		t.Errorf("Expected position within band above 250, got %d", pos)
	}
	if r.bank.value&0x0F00 != 0 {
		t.Errorf("Coils should be released")
	}
}

func TestControllerSetValveOutOfRange(t *testing.T) {
	r := newControllerRig(t, 100)
	r.ctl.Start()

	for _, cmd := range []string{"M0", "M1023", "M", "Mabc"} {
		if got := r.send(cmd); got != "Motor SV out of range\r\n" {
			t.Errorf("%s reply: %q", cmd, got)
		}
		if r.ctl.Valve().State() != MotionIdle {
			t.Errorf("%s raised motion", cmd)
		}
		if r.ctl.Valve().Setpoint() != 100 {
			t.Errorf("%s: setpoint should follow position, got %d", cmd, r.ctl.Valve().Setpoint())
		}
	}
}

func TestControllerAbort(t *testing.T) {
	r := newControllerRig(t, 100)
	r.ctl.Start()

	r.send("M900")
	r.ctl.Poll()
	r.primary.TakeOutput()

	got := r.send("X")
	if got != "Motion aborted\r\n" {
		t.Errorf("X reply: %q", got)
	}
	if r.ctl.Valve().State() != MotionIdle {
		t.Errorf("Expected Idle after abort, got %s", r.ctl.Valve().State())
	}
	if r.bank.value&0x0F00 != 0 {
		t.Errorf("Coils should be low after abort, register=%016b", r.bank.value)
	}

	if got := r.send("X"); got != "Idle\r\n" {
		t.Errorf("X when idle: %q", got)
	}
}

func TestControllerRelays(t *testing.T) {
	r := newControllerRig(t, 100)
	r.ctl.Start()

	if got := r.send("S9"); got != "9\r\n" {
		t.Errorf("S9 reply: %q", got)
	}
	if r.store.cells[0x02] != 9 {
		t.Errorf("Mask not persisted")
	}
	if got := r.send("S"); got != "9\r\n" {
		t.Errorf("S reply: %q", got)
	}

	writes := r.store.writes
	for _, cmd := range []string{"S16", "S-1", "Sx"} {
		if got := r.send(cmd); got != "" {
			t.Errorf("%s should be ignored silently, got %q", cmd, got)
		}
	}
	if r.store.writes != writes || r.ctl.Relays().Applied() != 9 {
		t.Errorf("Invalid masks changed relays")
	}
}

func TestControllerOverlongPayloads(t *testing.T) {
	r := newControllerRig(t, 100)
	r.ctl.Start()
	r.send("S9")

	writes := r.store.writes
	for _, cmd := range []string{"S4294967301", "S4294967296", "S99999999999"} {
		if got := r.send(cmd); got != "" {
			t.Errorf("%s should be ignored silently, got %q", cmd, got)
		}
	}
	if r.store.writes != writes || r.ctl.Relays().Applied() != 9 {
		t.Errorf("Overlong masks changed relays: writes=%d applied=%d", r.store.writes, r.ctl.Relays().Applied())
	}

	for _, cmd := range []string{"M4294967300", "M4294967396", "M-4294967000"} {
		if got := r.send(cmd); got != "Motor SV out of range\r\n" {
			t.Errorf("%s reply: %q", cmd, got)
		}
		if r.ctl.Valve().State() != MotionIdle {
			t.Errorf("%s raised motion", cmd)
		}
		if r.ctl.Valve().Setpoint() != 100 {
			t.Errorf("%s: setpoint should follow position, got %d", cmd, r.ctl.Valve().Setpoint())
		}
	}
}

func TestControllerBridgeCommands(t *testing.T) {
	r := newControllerRig(t, 100)
	r.ctl.Start()

	r.bridge.respond = func(m *MockSerial, written []byte) {
		switch string(written) {
		case protocol.FrameReadProcessValue:
			m.Push(":0103020014E6\r\n")
		case protocol.FrameReadSetpoint:
			m.Push(":01030200FA00\r\n")
		case protocol.FrameReadStatus:
			m.Push(":01020101FB\r\n")
		}
	}

	if got := r.send("P"); got != "PV: 20\r\n" {
		t.Errorf("P reply: %q", got)
	}
	if got := r.send("V"); got != "SV: 250\r\n" {
		t.Errorf("V reply: %q", got)
	}
	if got := r.send("R"); got != "Status: ON\r\n" {
		t.Errorf("R reply: %q", got)
	}
	r.bridge.tx = nil
	if got := r.send("F"); got != "*\r\n" {
		t.Errorf("F reply: %q", got)
	}
	if string(r.bridge.tx) != protocol.FrameWriteOff {
		t.Errorf("Expected Off frame, got %q", r.bridge.tx)
	}
}

func TestControllerBridgeTimeout(t *testing.T) {
	r := newControllerRig(t, 100)
	r.ctl.Start()

	for _, cmd := range []string{"P", "V", "R"} {
		if got := r.send(cmd); got != "Connection timeout\r\n" {
			t.Errorf("%s reply: %q", cmd, got)
		}
	}
}

func TestControllerDiagnostics(t *testing.T) {
	r := newControllerRig(t, 100)
	r.ctl.Start()
	r.send("M110")
	r.settle(t, 200)

	out := r.send("D")
	if !strings.HasPrefix(out, "State: Idle") {
		t.Errorf("Expected state header, got %q", out)
	}
	if !strings.Contains(out, "COMPLETE") || !strings.HasSuffix(out, "*\r\n") {
		t.Errorf("Expected event dump ending in *, got %q", out)
	}

	// Each dump starts a fresh window of events
	if r.ctl.Events().Len() != 0 {
		t.Errorf("Dump should clear the ring, %d events left", r.ctl.Events().Len())
	}
	out = r.send("D")
	if strings.Contains(out, "COMPLETE") || strings.Count(out, "\r\n") != 2 {
		t.Errorf("Expected header and * only, got %q", out)
	}
}

func TestControllerIgnoresTornInput(t *testing.T) {
	r := newControllerRig(t, 100)
	r.ctl.Start()

	r.primary.Push("S1")
	r.ctl.Poll()
	// keep the burst alive past the window without a gap
	for i := 0; i < 12; i++ {
		r.clock.Advance(5)
		r.primary.Push("1")
		r.ctl.Poll()
	}
	r.clock.Advance(20)
	r.ctl.Poll()

	if r.store.writes != 0 {
		t.Errorf("Torn burst was dispatched")
	}
}

func TestControllerRecover(t *testing.T) {
	r := newControllerRig(t, 100)
	r.ctl.Start()

	r.send("M900")
	r.ctl.Poll()
	r.primary.TakeOutput()
	r.primary.Push("S1")
	r.ctl.Poll()

	var logged []string
	SetDebugWriter(func(s string) { logged = append(logged, s) })
	defer SetDebugWriter(func(string) {})
	defer SetDebugEnabled(false)
	SetDebugEnabled(true)

	r.ctl.Recover()
	if len(logged) == 0 || logged[0] != "[VAP] recover: dropped 2 input bytes" {
		t.Errorf("Expected dropped input to be logged, got %v", logged)
	}
	if r.bank.value&0x0F00 != 0 {
		t.Errorf("Coils should be released by Recover")
	}
	if r.ctl.Valve().State() != MotionCancelRequested {
		t.Errorf("Expected pending cancel, got %s", r.ctl.Valve().State())
	}

	r.clock.Advance(20)
	r.ctl.Poll()
	if got := r.primary.TakeOutput(); got != "Motion aborted\r\n" {
		t.Errorf("Expected abort report after recover, got %q", got)
	}
	if r.store.writes != 0 {
		t.Errorf("Burst open at recover time was dispatched")
	}
}
