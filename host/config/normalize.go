// host/config/normalize.go
package config

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	normalizePort(&cfg.Primary, 8, "N")
	if cfg.Primary.Device == "" {
		cfg.Primary.Device = "-"
	}

	// A Delta style controller defaults to Modbus ASCII 7E1.
	normalizePort(&cfg.Bridge.PortConfig, 7, "E")
	if cfg.Bridge.Device == "" {
		cfg.Bridge.Device = "sim"
	}
	if cfg.Bridge.Station == 0 {
		cfg.Bridge.Station = 1
	}

	normalizePort(&cfg.Console.PortConfig, 8, "N")
	if cfg.Console.ReplyTimeoutMs == 0 {
		cfg.Console.ReplyTimeoutMs = 500
	}
	if cfg.Console.MotionTimeoutMs == 0 {
		cfg.Console.MotionTimeoutMs = 60000
	}

	if cfg.Firmware.PollIntervalMs == 0 {
		cfg.Firmware.PollIntervalMs = 1
	}

	if cfg.Sim.StartPosition == 0 {
		cfg.Sim.StartPosition = 512
	}
	if cfg.Sim.StepsPerUnit == 0 {
		cfg.Sim.StepsPerUnit = 4
	}

	if cfg.Telemetry.Topic == "" {
		cfg.Telemetry.Topic = "vaporizer/status"
	}
	if cfg.Telemetry.IntervalMs == 0 {
		cfg.Telemetry.IntervalMs = 1000
	}
}

func normalizePort(p *PortConfig, dataBits int, parity string) {
	if p.Baud == 0 {
		p.Baud = 9600
	}
	if p.DataBits == 0 {
		p.DataBits = dataBits
	}
	if p.Parity == "" {
		p.Parity = parity
	}
	if p.StopBits == 0 {
		p.StopBits = 1
	}
	if p.ReadTimeoutMs == 0 {
		p.ReadTimeoutMs = 100
	}
}
