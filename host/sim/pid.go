package sim

import (
	"bytes"
	"errors"
	"sync"

	"github.com/goburrow/modbus"

	"vaporizer/protocol"
)

var errEmpty = errors.New("sim: no reply buffered")

// PID simulates a Delta style temperature controller on a Modbus ASCII link.
// It is the far end of the firmware's bridge port: frames written to it are
// decoded with the Modbus ASCII packager and answered into a receive FIFO.
type PID struct {
	mu       sync.Mutex
	packager *modbus.ASCIIClientHandler
	station  byte
	request  []byte
	rx       *protocol.FifoBuffer

	processValue int
	setpoint     int
	running      bool
	silent       bool
	requests     int
}

// PIDConfig seeds the controller state.
type PIDConfig struct {
	Station      byte
	ProcessValue int
	Setpoint     int
	Running      bool
	Silent       bool // never answer, to exercise timeouts
}

// NewPID creates a simulated controller.
func NewPID(cfg PIDConfig) *PID {
	if cfg.Station == 0 {
		cfg.Station = protocol.StationAddress
	}
	packager := modbus.NewASCIIClientHandler("")
	packager.SlaveId = cfg.Station
	return &PID{
		packager:     packager,
		station:      cfg.Station,
		rx:           protocol.NewFifoBuffer(256),
		processValue: cfg.ProcessValue,
		setpoint:     cfg.Setpoint,
		running:      cfg.Running,
		silent:       cfg.Silent,
	}
}

// Available returns the number of reply bytes waiting.
func (p *PID) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rx.Available()
}

// ReadByte pops one reply byte.
func (p *PID) ReadByte() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.rx.ReadByte()
	if !ok {
		return 0, errEmpty
	}
	return b, nil
}

// Write accepts request bytes. Each CR LF terminated frame is handled as it
// completes.
func (p *PID) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.request = append(p.request, b...)
	for {
		end := bytes.Index(p.request, []byte(protocol.LineEnd))
		if end < 0 {
			break
		}
		frame := p.request[:end+len(protocol.LineEnd)]
		p.handle(frame)
		p.request = p.request[end+len(protocol.LineEnd):]
	}
	return len(b), nil
}

func (p *PID) handle(frame []byte) {
	p.requests++
	if p.silent {
		return
	}
	if start := bytes.IndexByte(frame, ':'); start > 0 {
		frame = frame[start:]
	}
	// Smallest frame: colon, address, function, LRC, CR LF.
	if len(frame) < 9 || frame[0] != ':' || !protocol.VerifyFrame(frame) {
		return
	}
	hi, _ := protocol.HexNibble(frame[1])
	lo, _ := protocol.HexNibble(frame[2])
	if hi<<4|lo != p.station {
		return
	}
	req, err := p.packager.Decode(frame)
	if err != nil {
		return
	}
	resp := p.respond(req)
	adu, err := p.packager.Encode(resp)
	if err != nil {
		return
	}
	p.rx.Write(adu)
}

func (p *PID) respond(req *modbus.ProtocolDataUnit) *modbus.ProtocolDataUnit {
	if len(req.Data) < 4 {
		return exception(req.FunctionCode, 0x03)
	}
	addr := uint16(req.Data[0])<<8 | uint16(req.Data[1])
	qty := uint16(req.Data[2])<<8 | uint16(req.Data[3])

	switch req.FunctionCode {
	case modbus.FuncCodeReadHoldingRegisters:
		if qty == 0 || qty > 8 {
			return exception(req.FunctionCode, 0x03)
		}
		data := []byte{byte(qty * 2)}
		for i := uint16(0); i < qty; i++ {
			v, ok := p.register(addr + i)
			if !ok {
				return exception(req.FunctionCode, 0x02)
			}
			data = append(data, byte(v>>8), byte(v))
		}
		return &modbus.ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: data}

	case modbus.FuncCodeReadDiscreteInputs, modbus.FuncCodeReadCoils:
		if addr != protocol.BitRunStatus || qty != 1 {
			return exception(req.FunctionCode, 0x02)
		}
		var bits byte
		if p.running {
			bits = 1
		}
		return &modbus.ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: []byte{1, bits}}

	case modbus.FuncCodeWriteSingleCoil:
		if addr != protocol.BitRunStatus {
			return exception(req.FunctionCode, 0x02)
		}
		switch qty {
		case 0xFF00:
			p.running = true
		case 0x0000:
			p.running = false
		default:
			return exception(req.FunctionCode, 0x03)
		}
		return &modbus.ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: req.Data[:4]}

	case modbus.FuncCodeWriteSingleRegister:
		if addr != protocol.RegSetpoint {
			return exception(req.FunctionCode, 0x02)
		}
		p.setpoint = int(qty)
		return &modbus.ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: req.Data[:4]}
	}
	return exception(req.FunctionCode, 0x01)
}

// register reads a holding register. A running controller moves its process
// value one count toward the setpoint on every read.
func (p *PID) register(addr uint16) (int, bool) {
	switch addr {
	case protocol.RegProcessValue:
		if p.running {
			switch {
			case p.processValue < p.setpoint:
				p.processValue++
			case p.processValue > p.setpoint:
				p.processValue--
			}
		}
		return p.processValue, true
	case protocol.RegSetpoint:
		return p.setpoint, true
	}
	return 0, false
}

func exception(fc byte, code byte) *modbus.ProtocolDataUnit {
	return &modbus.ProtocolDataUnit{FunctionCode: fc | 0x80, Data: []byte{code}}
}

// Running reports the run/stop state.
func (p *PID) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// ProcessValue returns the measured temperature.
func (p *PID) ProcessValue() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processValue
}

// SetProcessValue overrides the measured temperature.
func (p *PID) SetProcessValue(v int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processValue = v
}

// SetSilent makes the controller stop (or resume) answering.
func (p *PID) SetSilent(silent bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.silent = silent
}

// Requests returns the number of frames received.
func (p *PID) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}
