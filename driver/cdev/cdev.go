// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// Package cdev provides a gpioguard Driver for the Linux GPIO character
// device, using gpiod.
//
// Pins are line offsets on a single chip. Lines are requested when first
// configured and reverted to inputs when the driver is closed.
package cdev

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/gpioguard"
	"github.com/warthog618/gpiod"
	"golang.org/x/sys/unix"
)

// Driver controls the lines of one GPIO chip.
type Driver struct {
	c *gpiod.Chip

	// mutex covers the attributes below it.
	mu sync.RWMutex

	// requested lines, keyed by offset.
	lines map[int]*gpiod.Line

	closed bool
}

// Option defines the interface required to provide a Driver option.
type Option interface {
	applyOption(*options)
}

type options struct {
	consumer string
}

// ConsumerOption defines the consumer label applied to requested lines.
type ConsumerOption string

// WithConsumer provides the consumer label for the requested lines.
func WithConsumer(consumer string) ConsumerOption {
	return ConsumerOption(consumer)
}

func (o ConsumerOption) applyOption(opts *options) {
	opts.consumer = string(o)
}

// New opens the named chip, e.g. "gpiochip0" or "/dev/gpiochip0".
func New(chip string, opts ...Option) (*Driver, error) {
	o := options{consumer: "gpioguard"}
	for _, opt := range opts {
		opt.applyOption(&o)
	}
	c, err := gpiod.NewChip(chip, gpiod.WithConsumer(o.consumer))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", chip, err)
	}
	return &Driver{c: c, lines: make(map[int]*gpiod.Line)}, nil
}

// Name returns the system name of the chip.
func (d *Driver) Name() string {
	return d.c.Name
}

// Configure requests the line, or reconfigures it if already requested.
func (d *Driver) Configure(pin int, mode gpioguard.Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpioguard.ErrClosed
	}
	if l, ok := d.lines[pin]; ok {
		return classify(pin, l.Reconfigure(configOptions(mode)...))
	}
	l, err := d.c.RequestLine(pin, reqOptions(mode)...)
	if err != nil {
		return classify(pin, err)
	}
	d.lines[pin] = l
	return nil
}

// Write sets the value of an output line.
func (d *Driver) Write(pin int, level gpioguard.Level) error {
	l, err := d.line(pin)
	if err != nil {
		return err
	}
	return l.SetValue(int(level))
}

// Read returns the value of the line.
func (d *Driver) Read(pin int) (gpioguard.Level, error) {
	l, err := d.line(pin)
	if err != nil {
		return gpioguard.Low, err
	}
	v, err := l.Value()
	if err != nil {
		return gpioguard.Low, err
	}
	if v == 0 {
		return gpioguard.Low, nil
	}
	return gpioguard.High, nil
}

// Close reverts all requested lines to inputs and releases them and the chip.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpioguard.ErrClosed
	}
	d.closed = true
	for _, l := range d.lines {
		l.Reconfigure(gpiod.AsInput)
		l.Close()
	}
	d.lines = nil
	return d.c.Close()
}

func (d *Driver) line(pin int) (*gpiod.Line, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, gpioguard.ErrClosed
	}
	l, ok := d.lines[pin]
	if !ok {
		return nil, ErrNotRequested{pin}
	}
	return l, nil
}

func reqOptions(mode gpioguard.Mode) []gpiod.LineReqOption {
	switch mode {
	case gpioguard.ModeOutput:
		return []gpiod.LineReqOption{gpiod.AsOutput(0)}
	case gpioguard.ModeInputPullUp:
		return []gpiod.LineReqOption{gpiod.AsInput, gpiod.WithPullUp}
	}
	return []gpiod.LineReqOption{gpiod.AsInput}
}

func configOptions(mode gpioguard.Mode) []gpiod.LineConfigOption {
	switch mode {
	case gpioguard.ModeOutput:
		return []gpiod.LineConfigOption{gpiod.AsOutput(0)}
	case gpioguard.ModeInputPullUp:
		return []gpiod.LineConfigOption{gpiod.AsInput, gpiod.WithPullUp}
	}
	return []gpiod.LineConfigOption{gpiod.AsInput}
}

// classify converts kernel errors for a line into more meaningful errors.
func classify(pin int, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EBUSY):
		return ErrBusy{pin}
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return fmt.Errorf("line %d: %w", pin, gpiod.ErrPermissionDenied)
	}
	return fmt.Errorf("line %d: %w", pin, err)
}

// ErrBusy indicates the line is already requested by another consumer.
type ErrBusy struct {
	Pin int
}

func (e ErrBusy) Error() string {
	return fmt.Sprintf("line %d is busy", e.Pin)
}

// ErrNotRequested indicates the line has not been configured.
type ErrNotRequested struct {
	Pin int
}

func (e ErrNotRequested) Error() string {
	return fmt.Sprintf("line %d not requested", e.Pin)
}
