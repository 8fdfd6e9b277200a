package main

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/golang/glog"

	"vaporizer/core"
	"vaporizer/host/config"
	"vaporizer/host/serial"
	"vaporizer/host/sim"
	"vaporizer/host/telemetry"
)

// eepromSize matches a 24C08 part.
const eepromSize = 1024

// bench is the firmware wired onto simulated and host hardware.
type bench struct {
	ctl     *core.Controller
	cfg     core.Config
	plant   *sim.Plant
	pid     *sim.PID
	primary *serial.Channel
	bridge  *serial.Channel

	dropped int
}

func newBench(cfg *config.Config) (*bench, error) {
	primary, err := openPort(cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("primary: %w", err)
	}
	return newBenchOn(cfg, primary)
}

// newBenchOn wires the bench with primary as the operator channel.
func newBenchOn(cfg *config.Config, primary serial.Port) (*bench, error) {
	fw := cfg.Firmware.Core()
	b := &bench{cfg: fw, primary: serial.NewChannel(primary, 256)}

	b.plant = sim.NewPlant(sim.PlantConfig{
		CoilShift:     fw.CoilShift,
		StepsPerUnit:  cfg.Sim.StepsPerUnit,
		StartPosition: cfg.Sim.StartPosition,
		PositionCh:    fw.PositionChannel,
		TemperatureCh: fw.TemperatureChannel,
		Temperature:   cfg.Sim.Temperature,
	})

	var store core.NVStore
	if cfg.Sim.EEPROMFile != "" {
		e, err := sim.OpenEEPROM(cfg.Sim.EEPROMFile, eepromSize)
		if err != nil {
			b.Close()
			return nil, err
		}
		store = e
	} else {
		store = sim.NewEEPROM(eepromSize)
	}

	var bridge core.SerialPort
	if cfg.Bridge.Device == "sim" {
		b.pid = sim.NewPID(sim.PIDConfig{
			Station:      cfg.Bridge.Station,
			ProcessValue: cfg.Sim.PID.ProcessValue,
			Setpoint:     cfg.Sim.PID.Setpoint,
			Running:      cfg.Sim.PID.Running,
			Silent:       cfg.Sim.PID.Silent,
		})
		bridge = b.pid
	} else {
		port, err := openPort(cfg.Bridge.PortConfig)
		if err != nil {
			b.primary.Close()
			return nil, fmt.Errorf("bridge: %w", err)
		}
		b.bridge = serial.NewChannel(port, 256)
		bridge = b.bridge
	}

	var err error
	b.ctl, err = core.NewController(fw, core.Hardware{
		Outputs:        b.plant,
		ADC:            b.plant,
		Primary:        b.primary,
		Bridge:         bridge,
		Store:          store,
		Clock:          sim.NewWallClock(),
		OutputsInitial: core.SerialReservedMask,
	})
	if err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// openPort opens a normalized device, "-" meaning the process's standard
// streams.
func openPort(p config.PortConfig) (serial.Port, error) {
	if p.Device == "-" {
		return serial.OpenStdio(), nil
	}
	return serial.Open(p.Serial())
}

func (b *bench) primaryDone() <-chan struct{} {
	return b.primary.Done()
}

func (b *bench) snapshot() telemetry.Snapshot {
	v := b.ctl.Valve()
	s := telemetry.Snapshot{
		Time:     time.Now(),
		State:    v.State().String(),
		Setpoint: v.Setpoint(),
		Position: b.plant.Position(),
		Relays:   b.ctl.Relays().Applied(),
		Coils:    b.plant.Coils(),
	}
	if t, err := b.plant.ReadRaw(b.cfg.TemperatureChannel); err == nil {
		s.Temperature = int(t)
	}
	if b.pid != nil {
		running, pv, reqs := b.pid.Running(), b.pid.ProcessValue(), b.pid.Requests()
		s.PIDRunning = &running
		s.PIDValue = &pv
		s.PIDRequests = &reqs
	}
	s.Dropped = b.primary.Dropped()
	return s
}

// checkDropped warns when the operator channel lost bytes since the last call.
func (b *bench) checkDropped() {
	n := b.primary.Dropped()
	if n > b.dropped {
		glog.Warningf("operator channel overflow: %d bytes dropped", n-b.dropped)
	}
	b.dropped = n
}

// control applies a bench control line ("!pv 250", "!silent on") to the
// simulated controller. It reports false when line is not a bench control.
func (b *bench) control(line []byte) (bool, error) {
	if len(line) == 0 || line[0] != '!' {
		return false, nil
	}
	if b.pid == nil {
		return true, fmt.Errorf("bench control %q: no simulated controller", line)
	}
	fields := bytes.Fields(line[1:])
	if len(fields) != 2 {
		return true, fmt.Errorf("bench control %q: want name and value", line)
	}
	switch string(fields[0]) {
	case "pv":
		v, err := strconv.Atoi(string(fields[1]))
		if err != nil {
			return true, fmt.Errorf("bench control %q: %w", line, err)
		}
		b.pid.SetProcessValue(v)
	case "silent":
		v := string(fields[1])
		switch v {
		case "on":
			v = "true"
		case "off":
			v = "false"
		}
		on, err := strconv.ParseBool(v)
		if err != nil {
			return true, fmt.Errorf("bench control %q: %w", line, err)
		}
		b.pid.SetSilent(on)
	default:
		return true, fmt.Errorf("bench control %q: unknown name", line)
	}
	return true, nil
}

// Close releases the serial ports.
func (b *bench) Close() {
	if b.primary != nil {
		b.primary.Close()
	}
	if b.bridge != nil {
		b.bridge.Close()
	}
}
