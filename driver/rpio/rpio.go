// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package rpio provides a gpioguard Driver for the Raspberry Pi using direct
// register access via go-rpio.
//
// Pins are BCM GPIO numbers.
package rpio

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
	"github.com/warthog618/gpioguard"
)

// MaxPin is the highest BCM GPIO number accessible through the driver.
const MaxPin = 53

// Driver accesses GPIO through the memory mapped BCM283x registers.
type Driver struct {
	// mutex covers the attributes below it.
	mu sync.Mutex

	// configured pins
	pins map[int]gpioguard.Mode

	closed bool
}

// New maps the GPIO registers.
//
// Only one Driver should be open at a time as the mapping is process wide.
func New() (*Driver, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpiomem: %w", err)
	}
	return &Driver{pins: make(map[int]gpioguard.Mode)}, nil
}

// Configure sets the pin mode.
func (d *Driver) Configure(pin int, mode gpioguard.Mode) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpioguard.ErrClosed
	}
	p := rpio.Pin(pin)
	switch mode {
	case gpioguard.ModeOutput:
		p.Output()
		p.Low()
	case gpioguard.ModeInputPullUp:
		p.Input()
		p.PullUp()
	default:
		p.Input()
	}
	d.pins[pin] = mode
	return nil
}

// Write sets the level of an output pin.
func (d *Driver) Write(pin int, level gpioguard.Level) error {
	if err := d.check(pin); err != nil {
		return err
	}
	rpio.Pin(pin).Write(rpio.State(level))
	return nil
}

// Read returns the level of the pin.
func (d *Driver) Read(pin int) (gpioguard.Level, error) {
	if err := d.check(pin); err != nil {
		return gpioguard.Low, err
	}
	if rpio.Pin(pin).Read() == rpio.High {
		return gpioguard.High, nil
	}
	return gpioguard.Low, nil
}

// Close returns configured pins to floating inputs and unmaps the registers.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpioguard.ErrClosed
	}
	d.closed = true
	for pin := range d.pins {
		p := rpio.Pin(pin)
		p.Input()
		p.PullOff()
	}
	d.pins = nil
	return rpio.Close()
}

func (d *Driver) check(pin int) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpioguard.ErrClosed
	}
	if _, ok := d.pins[pin]; !ok {
		return ErrNotConfigured{pin}
	}
	return nil
}

func checkPin(pin int) error {
	if pin < 0 || pin > MaxPin {
		return fmt.Errorf("%w %d", gpioguard.ErrInvalidPin, pin)
	}
	return nil
}

// ErrNotConfigured indicates the pin has not been configured.
type ErrNotConfigured struct {
	Pin int
}

func (e ErrNotConfigured) Error() string {
	return fmt.Sprintf("pin %d not configured", e.Pin)
}
