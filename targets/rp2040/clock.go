//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"
)

// RP2040/RP2350 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // Raw timer high word
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

	bootUptime uint64
)

// InitClock latches the timer so Millis counts from boot of the firmware.
func InitClock() {
	bootUptime = GetHardwareUptime()
}

// GetHardwareUptime reads the full 64-bit 1MHz timer
func GetHardwareUptime() uint64 {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// HardwareClock implements core.Clock on the microsecond timer.
type HardwareClock struct{}

// Millis returns milliseconds since InitClock, wrapping at 32 bits.
func (HardwareClock) Millis() uint32 {
	return uint32((GetHardwareUptime() - bootUptime) / 1000)
}

// Sleep blocks for ms milliseconds.
func (HardwareClock) Sleep(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
