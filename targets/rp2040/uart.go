//go:build rp2040 || rp2350

package main

import "machine"

// UARTPort adapts a machine.UART to core.SerialPort.
type UARTPort struct {
	uart *machine.UART
}

// NewUARTPort configures uart with the given framing, one stop bit.
func NewUARTPort(uart *machine.UART, baud uint32, tx, rx machine.Pin, dataBits uint8, parity machine.UARTParity) (*UARTPort, error) {
	err := uart.Configure(machine.UARTConfig{
		BaudRate: baud,
		TX:       tx,
		RX:       rx,
	})
	if err != nil {
		return nil, err
	}
	if err := uart.SetFormat(dataBits, 1, parity); err != nil {
		return nil, err
	}
	return &UARTPort{uart: uart}, nil
}

// Available returns the number of received bytes waiting.
func (p *UARTPort) Available() int {
	return p.uart.Buffered()
}

// ReadByte returns the next received byte.
func (p *UARTPort) ReadByte() (byte, error) {
	return p.uart.ReadByte()
}

// Write transmits b, blocking until queued.
func (p *UARTPort) Write(b []byte) (int, error) {
	return p.uart.Write(b)
}
