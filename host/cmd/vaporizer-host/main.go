// Command vaporizer-host runs the vaporizer firmware on a workstation against
// a simulated valve, for bench testing operator tools and the controller link.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/golang/glog"

	"vaporizer/core"
	"vaporizer/host/config"
	"vaporizer/host/telemetry"
	"vaporizer/protocol"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	primaryDev = flag.String("primary", "", "Operator channel device, - for stdin/stdout (overrides config)")
	bridgeDev  = flag.String("bridge", "", "Controller link device, sim for the simulator (overrides config)")
	debug      = flag.Bool("debug", false, "Log firmware debug messages")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("config: %v", err)
	}

	core.SetDebugWriter(func(s string) { glog.Info(s) })
	core.SetDebugEnabled(*debug || cfg.Firmware.Debug)

	b, err := newBench(cfg)
	if err != nil {
		glog.Exitf("bench: %v", err)
	}
	defer b.Close()

	if err := b.ctl.Start(); err != nil {
		glog.Exitf("start: %v", err)
	}
	glog.Infof("vaporizer %s ready: primary=%s bridge=%s position=%d",
		protocol.Version, cfg.Primary.Device, cfg.Bridge.Device, b.plant.Position())
	for _, c := range b.ctl.Commands().Commands() {
		glog.V(1).Infof("command %c: %s", c.Code, c.Name)
	}

	var pub *telemetry.Publisher
	remote := make(chan []byte, 8)
	if cfg.Telemetry.Broker != "" {
		pub, err = telemetry.NewPublisher(cfg.Telemetry.Broker)
		if err != nil {
			glog.Exitf("telemetry: %v", err)
		}
		if err := pub.Connect(5 * time.Second); err != nil {
			glog.Warningf("telemetry disabled: %v", err)
			pub = nil
		} else {
			defer pub.Close()
			topic := commandTopic(cfg.Telemetry.Topic)
			token := pub.Sub(topic, func(topic string, payload []byte) {
				select {
				case remote <- append([]byte(nil), payload...):
				default:
					glog.Warningf("remote command dropped: %q", payload)
				}
			})
			if !token.WaitTimeout(5 * time.Second) {
				glog.Warningf("subscribe %s: timed out, remote commands disabled", topic)
			} else if err := token.Error(); err != nil {
				glog.Warningf("subscribe %s: %v", topic, err)
			}
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	run(ctx, b, cfg, pub, remote)
	glog.Info("shutting down")
}

// commandTopic is the sibling "cmd" topic of the status topic.
func commandTopic(status string) string {
	return path.Join(path.Dir(status), "cmd")
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return nil, err
	}
	if *primaryDev != "" {
		cfg.Primary.Device = *primaryDev
	}
	if *bridgeDev != "" {
		cfg.Bridge.Device = *bridgeDev
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

// run is the cooperative main loop: one controller poll per interval, with
// remote commands and telemetry slotted in between polls.
func run(ctx context.Context, b *bench, cfg *config.Config, pub *telemetry.Publisher, remote <-chan []byte) {
	interval := time.Duration(cfg.Firmware.PollIntervalMs) * time.Millisecond
	publishEvery := time.Duration(cfg.Telemetry.IntervalMs) * time.Millisecond
	lastPublish := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.primaryDone():
			glog.Info("operator channel closed")
			return
		case line := <-remote:
			glog.V(1).Infof("remote command %q", line)
			if ok, err := b.control(line); err != nil {
				glog.Warning(err)
			} else if !ok {
				b.ctl.Execute(line)
			}
		default:
		}

		b.ctl.Poll()
		b.checkDropped()

		if pub != nil && time.Since(lastPublish) >= publishEvery {
			lastPublish = time.Now()
			if err := pub.Publish(cfg.Telemetry.Topic, b.snapshot()); err != nil {
				glog.Warningf("publish: %v", err)
			}
		}
		time.Sleep(interval)
	}
}
