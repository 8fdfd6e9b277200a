package sim

import (
	"sync"
	"time"
)

// WallClock is a core.Clock on the host's monotonic clock.
type WallClock struct {
	start time.Time
}

// NewWallClock starts counting from now.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// Millis returns milliseconds since creation, wrapping at 2^32.
func (c *WallClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

// Sleep blocks for ms milliseconds.
func (c *WallClock) Sleep(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// VirtualClock advances only when slept on or advanced explicitly, so long
// motions run instantly in tests.
type VirtualClock struct {
	mu  sync.Mutex
	now uint32
}

// Millis returns the virtual time.
func (c *VirtualClock) Millis() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances virtual time by ms.
func (c *VirtualClock) Sleep(ms uint32) {
	c.Advance(ms)
}

// Advance moves virtual time forward.
func (c *VirtualClock) Advance(ms uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += ms
}
