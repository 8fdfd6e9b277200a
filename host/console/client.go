// Package console talks to the vaporizer firmware over its operator channel.
package console

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrTimeout is returned when no complete reply line arrives in time.
var ErrTimeout = errors.New("console: reply timeout")

// Stream is the operator channel as seen from the host.
type Stream interface {
	Available() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
	Discard()
}

// Client sends single-letter commands and collects reply lines.
type Client struct {
	stream        Stream
	ReplyTimeout  time.Duration
	MotionTimeout time.Duration
	PollInterval  time.Duration

	partial []byte
}

// NewClient creates a client with the given timeouts.
func NewClient(stream Stream, replyTimeout, motionTimeout time.Duration) *Client {
	return &Client{
		stream:        stream,
		ReplyTimeout:  replyTimeout,
		MotionTimeout: motionTimeout,
		PollInterval:  2 * time.Millisecond,
	}
}

// Send writes one command line. Pending input is discarded first so the next
// reply belongs to this command.
func (c *Client) Send(cmd string) error {
	c.stream.Discard()
	c.partial = c.partial[:0]
	if _, err := c.stream.Write([]byte(cmd + "\r")); err != nil {
		return fmt.Errorf("send %q: %w", cmd, err)
	}
	return nil
}

// ReadLine returns the next CR LF terminated line without its terminator.
func (c *Client) ReadLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		for c.stream.Available() > 0 {
			b, err := c.stream.ReadByte()
			if err != nil {
				break
			}
			if b == '\n' {
				line := strings.TrimRight(string(c.partial), "\r")
				c.partial = c.partial[:0]
				return line, nil
			}
			c.partial = append(c.partial, b)
		}
		if time.Now().After(deadline) {
			return "", ErrTimeout
		}
		time.Sleep(c.PollInterval)
	}
}

// Query sends cmd and returns its single reply line.
func (c *Client) Query(cmd string) (string, error) {
	if err := c.Send(cmd); err != nil {
		return "", err
	}
	return c.ReadLine(c.ReplyTimeout)
}

// Collect sends cmd and gathers lines until one equals end.
func (c *Client) Collect(cmd, end string, timeout time.Duration) ([]string, error) {
	if err := c.Send(cmd); err != nil {
		return nil, err
	}
	var lines []string
	deadline := time.Now().Add(timeout)
	for {
		line, err := c.ReadLine(time.Until(deadline))
		if err != nil {
			return lines, err
		}
		if line == end {
			return lines, nil
		}
		lines = append(lines, line)
	}
}

// Value sends cmd and parses a reply of the form "<prefix><n>".
func (c *Client) Value(cmd, prefix string) (int, error) {
	line, err := c.Query(cmd)
	if err != nil {
		return 0, err
	}
	if !strings.HasPrefix(line, prefix) {
		return 0, &ReplyError{Command: cmd, Reply: line}
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimPrefix(line, prefix), "%d", &n); err != nil {
		return 0, &ReplyError{Command: cmd, Reply: line}
	}
	return n, nil
}

// MoveValve commands a setpoint and waits for the completion marker.
func (c *Client) MoveValve(setpoint int) error {
	if err := c.Send(fmt.Sprintf("M%d", setpoint)); err != nil {
		return err
	}
	line, err := c.ReadLine(c.MotionTimeout)
	if err != nil {
		return err
	}
	if line != "*" {
		return &ReplyError{Command: "M", Reply: line}
	}
	return nil
}

// ReplyError carries a reply the client did not expect, such as
// "Connection timeout" or "Motor SV out of range".
type ReplyError struct {
	Command string
	Reply   string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("command %s: %s", e.Command, e.Reply)
}
