// host/config/validate.go
package config

import (
	"fmt"
	"net/url"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// SERIAL PORTS
	// ------------------------------------------------------------

	if cfg.Primary.Device == "sim" {
		return fmt.Errorf("primary: device %q is only valid for the bridge", "sim")
	}
	if err := validatePort("primary", cfg.Primary); err != nil {
		return err
	}
	if cfg.Bridge.Device == "-" {
		return fmt.Errorf("bridge: standard streams are reserved for the primary channel")
	}
	if err := validatePort("bridge", cfg.Bridge.PortConfig); err != nil {
		return err
	}
	if cfg.Bridge.Device != "" && cfg.Bridge.Device == cfg.Primary.Device && cfg.Primary.Device != "-" {
		return fmt.Errorf("bridge and primary share device %s", cfg.Primary.Device)
	}
	if cfg.Bridge.Station > 247 {
		return fmt.Errorf("bridge: station %d outside 1..247", cfg.Bridge.Station)
	}
	if err := validatePort("console", cfg.Console.PortConfig); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// FIRMWARE
	// ------------------------------------------------------------

	fw := cfg.Firmware
	if fw.DecelBand < 0 {
		return fmt.Errorf("firmware: decel_band must not be negative")
	}
	if fw.MaxCommandLen < 0 || fw.MaxCommandLen > 255 {
		return fmt.Errorf("firmware: max_command_len %d outside 0..255", fw.MaxCommandLen)
	}
	if fw.InputGapMs != 0 && fw.InputWindowMs != 0 && fw.InputWindowMs <= fw.InputGapMs {
		return fmt.Errorf("firmware: input_window_ms (%d) must exceed input_gap_ms (%d)",
			fw.InputWindowMs, fw.InputGapMs)
	}
	if fw.RelayStoreAddr != nil && *fw.RelayStoreAddr > 0x7FFF {
		return fmt.Errorf("firmware: relay_store_addr 0x%X out of range", *fw.RelayStoreAddr)
	}
	if fw.PollIntervalMs < 0 {
		return fmt.Errorf("firmware: poll_interval_ms must not be negative")
	}

	// ------------------------------------------------------------
	// SIMULATOR
	// ------------------------------------------------------------

	if cfg.Sim.StartPosition < 0 || cfg.Sim.StartPosition > 1023 {
		return fmt.Errorf("sim: start_position %d outside 0..1023", cfg.Sim.StartPosition)
	}
	if cfg.Sim.StepsPerUnit < 0 {
		return fmt.Errorf("sim: steps_per_unit must not be negative")
	}
	if cfg.Sim.Temperature < 0 || cfg.Sim.Temperature > 1023 {
		return fmt.Errorf("sim: temperature %d outside 0..1023", cfg.Sim.Temperature)
	}
	for name, v := range map[string]int{
		"process_value": cfg.Sim.PID.ProcessValue,
		"setpoint":      cfg.Sim.PID.Setpoint,
	} {
		if v < 0 || v > 0xFFF {
			return fmt.Errorf("sim.pid: %s %d outside 0..4095", name, v)
		}
	}

	// ------------------------------------------------------------
	// TELEMETRY (OPT-IN)
	// ------------------------------------------------------------

	if cfg.Telemetry.Broker != "" {
		u, err := url.Parse(cfg.Telemetry.Broker)
		if err != nil {
			return fmt.Errorf("telemetry: broker: %w", err)
		}
		switch u.Scheme {
		case "tcp", "mqtt", "ssl", "tls", "ws", "wss":
		default:
			return fmt.Errorf("telemetry: unsupported broker scheme %q", u.Scheme)
		}
	}
	if cfg.Telemetry.IntervalMs < 0 {
		return fmt.Errorf("telemetry: interval_ms must not be negative")
	}

	return nil
}

func validatePort(name string, p PortConfig) error {
	if p.Baud < 0 {
		return fmt.Errorf("%s: baud must not be negative", name)
	}
	if p.DataBits != 0 && (p.DataBits < 5 || p.DataBits > 8) {
		return fmt.Errorf("%s: data_bits %d outside 5..8", name, p.DataBits)
	}
	switch p.Parity {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("%s: parity %q must be N, E or O", name, p.Parity)
	}
	if p.StopBits != 0 && p.StopBits != 1 && p.StopBits != 2 {
		return fmt.Errorf("%s: stop_bits %d must be 1 or 2", name, p.StopBits)
	}
	if p.ReadTimeoutMs < 0 {
		return fmt.Errorf("%s: read_timeout_ms must not be negative", name)
	}
	return nil
}
