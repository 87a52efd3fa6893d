// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package periph provides a gpioguard Driver using the periph.io host
// drivers.
//
// Pins are mapped to periph.io pin names with a format, "GPIO%d" by default,
// so the same configuration works on any board periph.io supports.
package periph

import (
	"fmt"
	"sync"

	"github.com/warthog618/gpioguard"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Driver accesses pins through the periph.io GPIO registry.
type Driver struct {
	format string
	lookup func(name string) gpio.PinIO

	// mutex covers pins.
	mu   sync.Mutex
	pins map[int]gpio.PinIO
}

// New initialises the periph.io host drivers.
//
// The format maps pin numbers to registry names, and defaults to "GPIO%d" if
// empty.
func New(format string) (*Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	return newDriver(format, gpioreg.ByName), nil
}

func newDriver(format string, lookup func(string) gpio.PinIO) *Driver {
	if len(format) == 0 {
		format = "GPIO%d"
	}
	return &Driver{
		format: format,
		lookup: lookup,
		pins:   make(map[int]gpio.PinIO),
	}
}

// Configure sets the pin mode.
func (d *Driver) Configure(pin int, mode gpioguard.Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pins[pin]
	if !ok {
		name := fmt.Sprintf(d.format, pin)
		p = d.lookup(name)
		if p == nil {
			return ErrNotFound{name}
		}
	}
	var err error
	switch mode {
	case gpioguard.ModeOutput:
		err = p.Out(gpio.Low)
	case gpioguard.ModeInputPullUp:
		err = p.In(gpio.PullUp, gpio.NoEdge)
	default:
		err = p.In(gpio.PullNoChange, gpio.NoEdge)
	}
	if err != nil {
		return fmt.Errorf("configure %s: %w", p.Name(), err)
	}
	d.pins[pin] = p
	return nil
}

// Write sets the level of an output pin.
func (d *Driver) Write(pin int, level gpioguard.Level) error {
	p, err := d.pin(pin)
	if err != nil {
		return err
	}
	return p.Out(gpio.Level(level == gpioguard.High))
}

// Read returns the level of the pin.
func (d *Driver) Read(pin int) (gpioguard.Level, error) {
	p, err := d.pin(pin)
	if err != nil {
		return gpioguard.Low, err
	}
	if p.Read() == gpio.High {
		return gpioguard.High, nil
	}
	return gpioguard.Low, nil
}

// Close returns configured pins to floating inputs.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.pins {
		p.In(gpio.Float, gpio.NoEdge)
	}
	d.pins = make(map[int]gpio.PinIO)
	return nil
}

func (d *Driver) pin(pin int) (gpio.PinIO, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pins[pin]
	if !ok {
		return nil, fmt.Errorf("pin %d not configured", pin)
	}
	return p, nil
}

// ErrNotFound indicates the pin name is not known to the periph.io registry.
type ErrNotFound struct {
	Name string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("pin %s not found", e.Name)
}
