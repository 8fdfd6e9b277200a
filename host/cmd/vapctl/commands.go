package main

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/goburrow/modbus"

	"vaporizer/host/telemetry"
	"vaporizer/protocol"
)

var commands = []*ishell.Cmd{
	&ConnectCmd,
	&DisconnectCmd,
	&PingCmd,
	&PositionCmd,
	&TemperatureCmd,
	&ValveCmd,
	&RelaysCmd,
	&AbortCmd,
	&ProcessValueCmd,
	&SetpointCmd,
	&StatusCmd,
	&OnCmd,
	&OffCmd,
	&DiagCmd,
	&RawCmd,
	&WatchCmd,
	&PIDCmd,
}

// queryCmd builds a command that sends code and prints the reply line.
func queryCmd(name, code, help string, aliases ...string) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: aliases,
		Help:    help,
		Func: MustBeConnected(func(c *ishell.Context) {
			line, err := ShellFrom(c).Client().Query(code)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(line)
		}),
	}
}

// ackCmd builds a command whose only valid reply is the "*" token.
func ackCmd(name, code, help string) ishell.Cmd {
	return ishell.Cmd{
		Name: name,
		Help: help,
		Func: MustBeConnected(func(c *ishell.Context) {
			line, err := ShellFrom(c).Client().Query(code)
			if err != nil {
				c.Err(err)
				return
			}
			if line != "*" {
				c.Err(fmt.Errorf("%s: %s", name, line))
				return
			}
			c.Println("OK")
		}),
	}
}

var (
	// ConnectCmd opens the operator channel.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "DEVICE",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			dev := s.Config.Console.Device
			if len(c.Args) > 0 {
				dev = c.Args[0]
			}
			if dev == "" {
				c.Err(fmt.Errorf("DEVICE required"))
				return
			}
			if err := s.Connect(dev); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd closes the operator channel.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// PingCmd checks the firmware answers.
	PingCmd = ackCmd("ping", "?", "")

	PositionCmd    = queryCmd("pos", "A", "", "a")
	TemperatureCmd = queryCmd("temp", "T", "", "t")
	AbortCmd       = queryCmd("abort", "X", "", "x")

	ProcessValueCmd = queryCmd("pv", "P", "read PID process value")
	SetpointCmd     = queryCmd("sv", "V", "read PID setpoint")
	StatusCmd       = queryCmd("status", "R", "read PID run status")
	OnCmd           = ackCmd("on", "N", "start the PID controller")
	OffCmd          = ackCmd("off", "F", "stop the PID controller")

	// ValveCmd moves the valve and waits for completion.
	ValveCmd = ishell.Cmd{
		Name:    "valve",
		Aliases: []string{"m"},
		Help:    "SETPOINT(1..1022)",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("SETPOINT required"))
				return
			}
			sp, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("Invalid SETPOINT: %v", err))
				return
			}
			start := time.Now()
			if err := ShellFrom(c).Client().MoveValve(sp); err != nil {
				c.Err(err)
				return
			}
			c.Printf("OK %v\n", time.Since(start).Round(time.Millisecond))
		}),
	}

	// RelaysCmd reads or writes the relay mask.
	RelaysCmd = ishell.Cmd{
		Name:    "relays",
		Aliases: []string{"s"},
		Help:    "[MASK(0..15)]",
		Func: MustBeConnected(func(c *ishell.Context) {
			cmd := "S"
			if len(c.Args) > 0 {
				mask, err := strconv.Atoi(c.Args[0])
				if err != nil || mask < 0 || mask > 15 {
					c.Err(fmt.Errorf("Invalid MASK %q", c.Args[0]))
					return
				}
				cmd += strconv.Itoa(mask)
			}
			line, err := ShellFrom(c).Client().Query(cmd)
			if err != nil {
				c.Err(err)
				return
			}
			mask, err := strconv.Atoi(line)
			if err != nil {
				c.Err(fmt.Errorf("relays: %s", line))
				return
			}
			c.Printf("%d %04b\n", mask, mask)
		}),
	}

	// DiagCmd dumps the firmware state and recent motion events.
	DiagCmd = ishell.Cmd{
		Name: "diag",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			lines, err := s.Client().Collect("D", "*", s.Client().ReplyTimeout)
			if err != nil {
				c.Err(err)
				return
			}
			for _, l := range lines {
				c.Println(l)
			}
		}),
	}

	// RawCmd sends an arbitrary command line.
	RawCmd = ishell.Cmd{
		Name: "raw",
		Help: "LINE",
		Func: MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("LINE required"))
				return
			}
			line, err := ShellFrom(c).Client().Query(strings.Join(c.Args, ""))
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(line)
		}),
	}

	// WatchCmd polls position and temperature, publishing each reading when
	// a broker is configured.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[COUNT] [INTERVAL(ms)]",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			count, interval := 10, time.Duration(s.Config.Telemetry.IntervalMs)*time.Millisecond
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n <= 0 {
					c.Err(fmt.Errorf("Invalid COUNT %q", c.Args[0]))
					return
				}
				count = n
			}
			if len(c.Args) > 1 {
				ms, err := strconv.Atoi(c.Args[1])
				if err != nil || ms <= 0 {
					c.Err(fmt.Errorf("Invalid INTERVAL %q", c.Args[1]))
					return
				}
				interval = time.Duration(ms) * time.Millisecond
			}
			pub, err := s.Publisher()
			if err != nil {
				c.Err(err)
				return
			}
			for i := 0; i < count; i++ {
				if i > 0 {
					time.Sleep(interval)
				}
				snap, err := readSnapshot(s)
				if err != nil {
					c.Err(err)
					return
				}
				if pub != nil {
					if err := pub.Publish(s.Config.Telemetry.Topic, snap); err != nil {
						c.Err(err)
						return
					}
				}
				if s.OutputJSON {
					out, err := snap.Encode()
					if err != nil {
						c.Err(err)
						return
					}
					c.Println(string(out))
					continue
				}
				c.Printf("%s pos=%d temp=%d relays=%04b\n",
					snap.Time.Format("15:04:05.000"), snap.Position, snap.Temperature, snap.Relays)
			}
		}),
	}

	// PIDCmd reads the PID controller directly over Modbus ASCII, bypassing
	// the firmware. Used when commissioning the controller link.
	PIDCmd = ishell.Cmd{
		Name: "pid",
		Help: "[DEVICE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			dev := s.Config.Bridge.Device
			if len(c.Args) > 0 {
				dev = c.Args[0]
			}
			if dev == "" || dev == "sim" {
				c.Err(fmt.Errorf("pid: serial DEVICE required"))
				return
			}
			r, err := readPID(s, dev)
			if err != nil {
				c.Err(err)
				return
			}
			state := "OFF"
			if r.running {
				state = "ON"
			}
			c.Printf("PV: %d\nSV: %d\nStatus: %s\n", r.pv, r.sv, state)
		},
	}
)

// readSnapshot polls the firmware for one telemetry reading.
func readSnapshot(s *Shell) (telemetry.Snapshot, error) {
	snap := telemetry.Snapshot{Time: time.Now(), State: "remote"}
	cl := s.Client()
	var err error
	if snap.Position, err = cl.Value("A", "ADC Value: "); err != nil {
		return snap, err
	}
	if snap.Temperature, err = cl.Value("T", "Temperature: "); err != nil {
		return snap, err
	}
	line, err := cl.Query("S")
	if err != nil {
		return snap, err
	}
	mask, err := strconv.Atoi(line)
	if err != nil {
		return snap, fmt.Errorf("relays: %s", line)
	}
	snap.Relays = uint8(mask)
	return snap, nil
}

type pidReading struct {
	pv, sv  int
	running bool
}

// readPID opens dev as a Modbus ASCII master with the bridge framing.
func readPID(s *Shell, dev string) (*pidReading, error) {
	b := s.Config.Bridge
	h := modbus.NewASCIIClientHandler(dev)
	h.BaudRate = b.Baud
	h.DataBits = b.DataBits
	h.Parity = b.Parity
	h.StopBits = b.StopBits
	h.SlaveId = b.Station
	h.Timeout = time.Second
	if err := h.Connect(); err != nil {
		return nil, err
	}
	defer h.Close()

	client := modbus.NewClient(h)
	regs, err := client.ReadHoldingRegisters(protocol.RegProcessValue, 2)
	if err != nil {
		return nil, fmt.Errorf("read registers: %w", err)
	}
	if len(regs) < 4 {
		return nil, fmt.Errorf("read registers: short reply % X", regs)
	}
	bits, err := client.ReadDiscreteInputs(protocol.BitRunStatus, 1)
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	if len(bits) < 1 {
		return nil, fmt.Errorf("read status: empty reply")
	}
	return &pidReading{
		pv:      int(binary.BigEndian.Uint16(regs[0:2])),
		sv:      int(binary.BigEndian.Uint16(regs[2:4])),
		running: bits[0]&1 != 0,
	}, nil
}
