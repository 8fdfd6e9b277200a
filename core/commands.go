package core

// registerCommands installs the operator command set. Every handler replies
// in a single line except the diagnostics dump.
func (c *Controller) registerCommands() error {
	handlers := []struct {
		code    byte
		name    string
		handler CommandHandler
	}{
		{'A', "read_position", c.handleReadPosition},
		{'T', "read_temperature", c.handleReadTemperature},
		{'M', "set_valve", c.handleSetValve},
		{'S', "relays", c.handleRelays},
		{'X', "abort", c.handleAbort},
		{'V', "pid_setpoint", c.bridgeRead(QuerySetpoint, "SV: ")},
		{'P', "pid_process_value", c.bridgeRead(QueryProcessValue, "PV: ")},
		{'R', "pid_status", c.handleStatus},
		{'N', "pid_on", c.bridgeWrite(QueryOn)},
		{'F', "pid_off", c.bridgeWrite(QueryOff)},
		{'?', "presence", c.handlePresence},
		{'D', "diagnostics", c.handleDiagnostics},
	}
	for _, h := range handlers {
		if err := c.commands.Register(h.code, h.name, h.handler); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) handleReadPosition(payload []byte) error {
	v, err := c.valve.ReadPosition()
	if err != nil {
		c.reply("ADC read error")
		return err
	}
	c.reply("ADC Value: " + itoa(v))
	return nil
}

func (c *Controller) handleReadTemperature(payload []byte) error {
	v, err := c.hw.ADC.ReadRaw(c.cfg.TemperatureChannel)
	if err != nil {
		c.reply("ADC read error")
		return err
	}
	c.reply("Temperature: " + itoa(int(v)))
	return nil
}

// handleSetValve accepts a setpoint; the completion marker follows when the
// valve arrives.
func (c *Controller) handleSetValve(payload []byte) error {
	sp, _ := parseLeadingInt(payload)
	err := c.valve.Command(sp)
	switch err {
	case nil:
		return nil
	case ErrSetpointRange:
		c.reply("Motor SV out of range")
		return nil
	default:
		c.reply("ADC read error")
		return err
	}
}

// handleRelays reports the persisted mask when no payload is given and
// otherwise writes it back. Invalid masks are ignored without a reply.
func (c *Controller) handleRelays(payload []byte) error {
	if len(payload) == 0 {
		mask, err := c.relays.Read()
		if err != nil {
			return err
		}
		c.reply(itoa(int(mask)))
		return nil
	}
	mask, ok := parseLeadingInt(payload)
	if !ok || mask < 0 || mask > RelayMaskMax {
		return nil
	}
	if err := c.relays.Write(mask); err != nil {
		return err
	}
	c.events.Record(EvtRelays, c.hw.Clock.Millis(), int32(mask), 0)
	c.reply(itoa(mask))
	return nil
}

func (c *Controller) handleAbort(payload []byte) error {
	if !c.valve.Cancel() {
		c.reply("Idle")
	}
	return nil
}

func (c *Controller) bridgeRead(q BridgeQuery, prefix string) CommandHandler {
	return func(payload []byte) error {
		res, err := c.exchange(q)
		if err != nil {
			return err
		}
		c.reply(prefix + itoa(res.Value))
		return nil
	}
}

func (c *Controller) handleStatus(payload []byte) error {
	res, err := c.exchange(QueryStatus)
	if err != nil {
		return err
	}
	if res.Running {
		c.reply("Status: ON")
	} else {
		c.reply("Status: OFF")
	}
	return nil
}

func (c *Controller) bridgeWrite(q BridgeQuery) CommandHandler {
	return func(payload []byte) error {
		if _, err := c.exchange(q); err != nil {
			return err
		}
		c.reply("*")
		return nil
	}
}

// exchange runs a bridge query and turns failures into operator replies.
func (c *Controller) exchange(q BridgeQuery) (BridgeResult, error) {
	if c.bridge == nil {
		c.reply("Connection timeout")
		return BridgeResult{Query: q}, ErrConnectionTimeout
	}
	res, err := c.bridge.Exchange(q)
	switch err {
	case nil:
	case ErrConnectionTimeout:
		c.reply("Connection timeout")
	case ErrBadReply:
		c.reply("Bad reply")
	default:
		c.reply("Connection timeout")
	}
	return res, err
}

func (c *Controller) handlePresence(payload []byte) error {
	c.reply("*")
	return nil
}

func (c *Controller) handleDiagnostics(payload []byte) error {
	c.reply("State: " + c.valve.State().String() +
		" SV=" + itoa(c.valve.Setpoint()) +
		" CV=" + itoa(c.valve.Current()) +
		" steps=" + utoa(c.sequencer.StepCount()))
	c.events.Dump(c.reply)
	c.events.Clear()
	c.reply("*")
	return nil
}
