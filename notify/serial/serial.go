// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package serial provides a gpioguard Notifier that reports events on a
// serial console.
package serial

import (
	"fmt"
	"io"
	"time"

	tarm "github.com/tarm/serial"
	"github.com/warthog618/gpioguard"
)

// DefaultBaud is the console baud rate used if none is specified.
const DefaultBaud = 115200

// Console writes events, one per line, to a serial port.
type Console struct {
	port io.WriteCloser
	n    *gpioguard.WriterNotifier
}

// Open opens the serial device as a Console.
//
// A baud of zero selects DefaultBaud.
func Open(device string, baud int) (*Console, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	cfg := &tarm.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	}
	p, err := tarm.OpenPort(cfg)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}
	return NewConsole(p), nil
}

// NewConsole creates a Console on an already open port.
func NewConsole(port io.WriteCloser) *Console {
	return &Console{port: port, n: gpioguard.NewWriterNotifier(port)}
}

// Banner writes a line of text, such as a start-up message, to the console.
func (c *Console) Banner(msg string) error {
	_, err := fmt.Fprintf(c.port, "%s\r\n", msg)
	return err
}

// Notify writes the event to the console.
func (c *Console) Notify(evt gpioguard.Event) {
	c.n.Notify(evt)
}

// Close closes the serial port.
func (c *Console) Close() error {
	return c.port.Close()
}
