package serial

import (
	"io"
	"os"
)

// StdioPort presents standard input and output as a Port so a bench session
// can be driven from a terminal or a pipe.
type StdioPort struct {
	in  io.Reader
	out io.Writer

	// detached ports never close their input, so a pending Read is not
	// interrupted by Close.
	detached bool
}

// OpenStdio returns a Port on the process's standard streams.
func OpenStdio() *StdioPort {
	return &StdioPort{in: os.Stdin, out: os.Stdout, detached: true}
}

// NewStreamPort returns a Port reading from in and writing to out.
func NewStreamPort(in io.Reader, out io.Writer) *StdioPort {
	return &StdioPort{in: in, out: out}
}

func (p *StdioPort) Read(b []byte) (int, error) { return p.in.Read(b) }

func (p *StdioPort) Write(b []byte) (int, error) { return p.out.Write(b) }

// Close closes the input side when it supports closing. Standard input is
// left open.
func (p *StdioPort) Close() error {
	if c, ok := p.in.(io.Closer); ok && !p.detached {
		return c.Close()
	}
	return nil
}

// Interruptible reports whether Close unblocks a pending Read.
func (p *StdioPort) Interruptible() bool {
	_, ok := p.in.(io.Closer)
	return ok && !p.detached
}

// Flush is a no-op; streams have no driver buffer to discard.
func (p *StdioPort) Flush() error { return nil }
