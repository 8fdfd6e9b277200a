package core

import "vaporizer/protocol"

// Hardware bundles the platform drivers a Controller runs on.
type Hardware struct {
	Outputs PinBank
	ADC     ADCDriver
	Primary SerialPort // operator channel
	Bridge  SerialPort // temperature controller link
	Store   NVStore
	Clock   Clock

	// OutputsInitial seeds the register mirror, e.g. idle-high serial pins.
	OutputsInitial uint16
}

// Controller owns all firmware state and runs the cooperative poll cycle:
// accumulate input, dispatch a complete line, then advance motion by one tick.
type Controller struct {
	cfg Config
	hw  Hardware

	register  *OutputRegister
	input     *LineAccumulator
	commands  *CommandRegistry
	sequencer *Sequencer
	valve     *PositionController
	relays    *RelayBank
	bridge    *Bridge
	events    *EventRing
	out       *protocol.ScratchOutput
}

// NewController wires the firmware components onto hw.
func NewController(cfg Config, hw Hardware) (*Controller, error) {
	cfg.applyDefaults()

	c := &Controller{
		cfg:      cfg,
		hw:       hw,
		register: NewOutputRegister(hw.Outputs, hw.OutputsInitial),
		commands: NewCommandRegistry(),
		events:   NewEventRing(cfg.EventRingSize),
		out:      protocol.NewScratchOutput(),
	}

	relayField, err := c.register.Claim(cfg.RelayShift, 4)
	if err != nil {
		return nil, err
	}
	coilField, err := c.register.Claim(cfg.CoilShift, 4)
	if err != nil {
		return nil, err
	}
	if hw.OutputsInitial&(relayField.Mask()|coilField.Mask()) != 0 {
		return nil, ErrFieldPreset
	}

	c.input = NewLineAccumulator(hw.Primary, hw.Clock, cfg.InputGapMS, cfg.InputWindowMS, cfg.MaxCommandLen)
	c.sequencer = NewSequencer(coilField, hw.Clock, cfg.StepDwellMS)
	c.valve = NewPositionController(c.sequencer, hw.ADC, &c.cfg, hw.Clock, c.events)
	c.relays = NewRelayBank(hw.Store, cfg.RelayStoreAddr, relayField)
	if hw.Bridge != nil {
		c.bridge = NewBridge(hw.Bridge, hw.Clock, cfg.BridgeSettleMS, cfg.BridgeReplyLen)
	}

	if err := c.registerCommands(); err != nil {
		return nil, err
	}
	return c, nil
}

// Start prepares the inputs, releases the coils and restores the persisted
// relay mask.
func (c *Controller) Start() error {
	if err := c.hw.ADC.ConfigureChannel(c.cfg.PositionChannel); err != nil {
		return err
	}
	if err := c.hw.ADC.ConfigureChannel(c.cfg.TemperatureChannel); err != nil {
		return err
	}
	if err := c.sequencer.Off(); err != nil {
		return err
	}
	mask, err := c.relays.Restore()
	if err != nil {
		return err
	}
	c.events.Record(EvtRelays, c.hw.Clock.Millis(), int32(mask), 0)
	if _, err := c.valve.ReadPosition(); err != nil {
		DebugPrintln("[VAP] initial position read failed: " + err.Error())
	}
	DebugPrintln("[VAP] ready, relays=" + itoa(int(mask)) +
		" relay pins@" + itoa(int(c.relays.field.Shift())) +
		" coil pins@" + itoa(int(c.sequencer.coils.Shift())) +
		" commands=" + itoa(c.commands.Count()))
	return nil
}

// Poll runs one cycle. Errors from hardware are reported to the operator and
// logged; Poll itself never fails so the main loop keeps running.
func (c *Controller) Poll() {
	line, err := c.input.Poll()
	switch err {
	case nil:
	case ErrInputTimeout, ErrInputOverflow:
		c.events.Record(EvtInputDrop, c.hw.Clock.Millis(), int32(c.cfg.MaxCommandLen), 0)
		DebugPrintln("[VAP] input discarded: " + err.Error())
	default:
		DebugPrintln("[VAP] input error: " + err.Error())
	}
	if line != nil {
		c.Execute(line)
	}

	res, err := c.valve.Tick()
	switch res {
	case TickDone:
		c.reply("*")
	case TickAborted:
		c.reply("Motion aborted")
	}
	if err != nil {
		DebugPrintln("[VAP] motion error: " + err.Error())
	}

	c.flush()
}

// Recover puts the controller back into a safe state after a failed cycle:
// the open input burst and queued replies are dropped, the coils released
// and any motion cancelled. The next Poll reports the abort.
func (c *Controller) Recover() {
	if n := c.input.Pending(); n > 0 {
		DebugPrintln("[VAP] recover: dropped " + itoa(n) + " input bytes")
	}
	c.input.Reset()
	c.out.Reset()
	c.valve.Cancel()
	if err := c.sequencer.Off(); err != nil {
		DebugPrintln("[VAP] recover: " + err.Error())
	}
}

// Execute dispatches one complete command line. Replies are queued and
// written at the end of the cycle.
func (c *Controller) Execute(line []byte) {
	err := c.commands.Dispatch(line)
	switch err {
	case nil:
	case ErrUnknownCommand, ErrEmptyCommand:
		c.reply("Command not recognized")
	default:
		DebugPrintln("[VAP] command " + string(line[:1]) + " failed: " + err.Error())
	}
}

// reply queues one line for the operator, flushing first when the scratch
// buffer cannot hold it.
func (c *Controller) reply(s string) {
	if c.out.Free() < len(s)+len(protocol.LineEnd) {
		c.flush()
	}
	c.out.OutputLine(s)
}

func (c *Controller) flush() {
	data := c.out.Result()
	if len(data) == 0 {
		return
	}
	if _, err := c.hw.Primary.Write(data); err != nil {
		DebugPrintln("[VAP] reply write failed: " + err.Error())
	}
	c.out.Reset()
}

// Config returns the effective configuration.
func (c *Controller) Config() Config { return c.cfg }

// Valve returns the position controller.
func (c *Controller) Valve() *PositionController { return c.valve }

// Relays returns the relay bank.
func (c *Controller) Relays() *RelayBank { return c.relays }

// Register returns the shared output register.
func (c *Controller) Register() *OutputRegister { return c.register }

// Sequencer returns the coil sequencer.
func (c *Controller) Sequencer() *Sequencer { return c.sequencer }

// Commands returns the command registry.
func (c *Controller) Commands() *CommandRegistry { return c.commands }

// Events returns the diagnostic event ring.
func (c *Controller) Events() *EventRing { return c.events }
