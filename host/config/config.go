// host/config/config.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the bench host configuration.
type Config struct {
	Primary   PortConfig      `yaml:"primary"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Firmware  FirmwareConfig  `yaml:"firmware"`
	Sim       SimConfig       `yaml:"sim"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Console   ConsoleConfig   `yaml:"console"`
}

// ---- SERIAL ----

// PortConfig names a serial device. Device "-" means standard input and
// output; "sim" selects the built-in simulator where one exists.
type PortConfig struct {
	Device        string `yaml:"device"`
	Baud          int    `yaml:"baud"`
	DataBits      int    `yaml:"data_bits"`
	Parity        string `yaml:"parity"`
	StopBits      int    `yaml:"stop_bits"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

// ---- CONTROLLER BRIDGE ----

type BridgeConfig struct {
	PortConfig `yaml:",inline"`
	Station    uint8 `yaml:"station"`
}

// ---- FIRMWARE ----

// FirmwareConfig overrides core timings. Zero values keep the defaults.
type FirmwareConfig struct {
	StepDwellMs     uint32  `yaml:"step_dwell_ms"`
	DecelBand       int     `yaml:"decel_band"`
	DecelDelayMs    *uint32 `yaml:"decel_delay_ms"`
	InvertDirection bool    `yaml:"invert_direction"`
	InputGapMs      uint32  `yaml:"input_gap_ms"`
	InputWindowMs   uint32  `yaml:"input_window_ms"`
	MaxCommandLen   int     `yaml:"max_command_len"`
	BridgeSettleMs  uint32  `yaml:"bridge_settle_ms"`
	RelayStoreAddr  *uint16 `yaml:"relay_store_addr"`
	PollIntervalMs  int     `yaml:"poll_interval_ms"`
	Debug           bool    `yaml:"debug"`
}

// ---- SIMULATOR ----

type SimConfig struct {
	StartPosition int    `yaml:"start_position"`
	StepsPerUnit  int    `yaml:"steps_per_unit"`
	Temperature   int    `yaml:"temperature"`
	EEPROMFile    string `yaml:"eeprom_file"`
	PID           PIDSim `yaml:"pid"`
}

// PIDSim seeds the simulated temperature controller.
type PIDSim struct {
	ProcessValue int  `yaml:"process_value"`
	Setpoint     int  `yaml:"setpoint"`
	Running      bool `yaml:"running"`
	Silent       bool `yaml:"silent"`
}

// ---- TELEMETRY ----

type TelemetryConfig struct {
	Broker     string `yaml:"broker"`
	Topic      string `yaml:"topic"`
	IntervalMs int    `yaml:"interval_ms"`
}

// ---- CONSOLE ----

type ConsoleConfig struct {
	PortConfig      `yaml:",inline"`
	ReplyTimeoutMs  int `yaml:"reply_timeout_ms"`
	MotionTimeoutMs int `yaml:"motion_timeout_ms"`
}

// Load reads and decodes a YAML file. It does not validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
