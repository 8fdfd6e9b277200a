package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"vaporizer/host/config"
	"vaporizer/host/console"
	"vaporizer/host/serial"
	"vaporizer/host/telemetry"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *config.Config
	Conn   *Conn
	Pub    *telemetry.Publisher
}

// Conn is an open operator channel.
type Conn struct {
	Device  string
	Channel *serial.Channel
	Client  *console.Client
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	configPath string
	device     string
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&configPath, "config", configPath, "YAML configuration file.")
	flag.StringVar(&device, "port", device, "Operator channel device (overrides config).")
}

// New creates a new shell.
func New(conf *config.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Client returns the console client of the current connection.
func (s *Shell) Client() *console.Client {
	return s.Conn.Client
}

// Connect opens the operator channel on dev.
func (s *Shell) Connect(dev string) error {
	p := s.Config.Console.PortConfig
	p.Device = dev
	port, err := serial.Open(p.Serial())
	if err != nil {
		return err
	}
	ch := serial.NewChannel(port, 512)
	conn := &Conn{
		Device:  dev,
		Channel: ch,
		Client: console.NewClient(ch,
			time.Duration(s.Config.Console.ReplyTimeoutMs)*time.Millisecond,
			time.Duration(s.Config.Console.MotionTimeoutMs)*time.Millisecond),
	}
	s.Disconnect()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", dev))
	glog.V(1).Infof("connected %s", dev)
	return nil
}

// Disconnect closes the current channel.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Channel.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Publisher connects the telemetry publisher on first use. It returns nil
// when no broker is configured.
func (s *Shell) Publisher() (*telemetry.Publisher, error) {
	if s.Pub != nil || s.Config.Telemetry.Broker == "" {
		return s.Pub, nil
	}
	pub, err := telemetry.NewPublisher(s.Config.Telemetry.Broker)
	if err != nil {
		return nil, err
	}
	if err := pub.Connect(5 * time.Second); err != nil {
		return nil, err
	}
	s.Pub = pub
	return pub, nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Disconnect()
	if dev := s.Config.Console.Device; dev != "" {
		if err := s.Connect(dev); err != nil {
			glog.Exitf("connect %q failed: %v", dev, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exit(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Exit("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := loadConfig()
	if err != nil {
		glog.Exitf("config: %v", err)
	}
	s := New(conf)
	s.Run(flag.Args()...)
	if s.Pub != nil {
		s.Pub.Close()
	}
}

func loadConfig() (*config.Config, error) {
	var conf *config.Config
	var err error
	if configPath != "" {
		conf, err = config.Load(configPath)
	} else {
		conf, err = config.Parse(nil)
	}
	if err != nil {
		return nil, err
	}
	if device != "" {
		conf.Console.Device = device
	}
	if err := config.Validate(conf); err != nil {
		return nil, err
	}
	config.Normalize(conf)
	return conf, nil
}
