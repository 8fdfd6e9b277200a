//go:build rp2040 || rp2350

package main

import (
	"machine"

	"vaporizer/core"
)

// InitDebug routes firmware debug output to USB CDC, keeping both UARTs for
// the operator and the controller link.
func InitDebug() {
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
}
