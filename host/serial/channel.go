package serial

import (
	"errors"
	"io"
	"sync"

	"vaporizer/protocol"
)

// ErrEmpty is returned by ReadByte when nothing is buffered.
var ErrEmpty = errors.New("serial: no data buffered")

// Channel turns a blocking reader into the non-blocking byte stream the
// firmware core polls. A background goroutine copies received bytes into a
// FIFO; bytes that do not fit are dropped, as a UART would.
type Channel struct {
	rw io.ReadWriter

	mu      sync.Mutex
	fifo    *protocol.FifoBuffer
	dropped int
	err     error
	done    chan struct{}
}

// NewChannel starts reading rw into a FIFO of the given capacity.
func NewChannel(rw io.ReadWriter, capacity int) *Channel {
	c := &Channel{
		rw:   rw,
		fifo: protocol.NewFifoBuffer(capacity),
		done: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Channel) readLoop() {
	defer close(c.done)
	buf := make([]byte, 64)
	for {
		n, err := c.rw.Read(buf)
		if c.closing() {
			return
		}
		if n > 0 {
			c.mu.Lock()
			written := c.fifo.Write(buf[:n])
			c.dropped += n - written
			c.mu.Unlock()
		}
		if err == nil {
			continue
		}
		// A read timeout on a native port surfaces as a zero-byte EOF.
		if err == io.EOF && n == 0 {
			if _, ok := c.rw.(*NativePort); ok {
				continue
			}
		}
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		return
	}
}

func (c *Channel) closing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err != nil
}

// Available returns the number of buffered bytes.
func (c *Channel) Available() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fifo.Available()
}

// ReadByte pops the oldest buffered byte.
func (c *Channel) ReadByte() (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.fifo.ReadByte()
	if !ok {
		return 0, ErrEmpty
	}
	return b, nil
}

// Write sends p on the underlying port.
func (c *Channel) Write(p []byte) (int, error) {
	return c.rw.Write(p)
}

// Discard drops everything buffered so far.
func (c *Channel) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fifo.Reset()
}

// Dropped returns the number of bytes lost to a full FIFO.
func (c *Channel) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Err returns the error that stopped the reader, if any.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Done is closed when the reader stops.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// interruptible is implemented by ports that can say whether closing them
// unblocks a pending Read.
type interruptible interface {
	Interruptible() bool
}

// Close marks the channel closed and closes the underlying port. It waits for
// the reader to stop only when closing the port interrupts it; otherwise the
// reader is abandoned and exits on its next read.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.err == nil {
		c.err = io.ErrClosedPipe
	}
	c.mu.Unlock()

	closer, ok := c.rw.(io.Closer)
	if !ok {
		return nil
	}
	err := closer.Close()
	if p, ok := c.rw.(interruptible); ok && !p.Interruptible() {
		return err
	}
	<-c.done
	return err
}
