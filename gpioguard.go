// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package gpioguard coordinates a set of periodic GPIO actuator tasks, one of
// which is gated by a lock that an input monitor holds while its input is
// asserted.
//
// The building blocks are:
// - Lock, a binary lock with blocking and bounded acquisition, returning
//   single-use Tokens
// - Scheduler, which runs fixed actions at fixed periods
// - Actuator and Input, scoped ownership of output and input pins
// - Toggler, a periodic actuator task, optionally guarded by a Lock
// - Monitor, which samples an Input and holds a Lock while it is pressed
// - System, which builds all of the above from a validated Config
//
// Pin access is delegated to a Driver. Drivers for the Linux GPIO character
// device, go-rpio, periph.io and an in-memory mockup are provided in
// sub-packages.
//
// Example of use:
//
//  d, err := cdev.New("gpiochip0")
//  if err != nil {
//  	panic(err)
//  }
//  defer d.Close()
//  s, err := gpioguard.New(gpioguard.DefaultConfig(), d,
//  	gpioguard.WithNotifier(gpioguard.NewWriterNotifier(os.Stdout)))
//  if err != nil {
//  	panic(err)
//  }
//  ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//  defer cancel()
//  s.Run(ctx)
//
package gpioguard

import (
	"errors"
	"fmt"
)

// Level is the physical level of a pin.
type Level int

const (
	// Low is the low, or zero, level.
	Low Level = iota

	// High is the high, or one, level.
	High
)

func (l Level) String() string {
	if l == Low {
		return "low"
	}
	return "high"
}

// Mode is the configuration applied to a pin by a Driver.
type Mode int

const (
	// ModeInput configures the pin as an input with bias left as is.
	ModeInput Mode = iota

	// ModeInputPullUp configures the pin as an input with pull-up enabled.
	ModeInputPullUp

	// ModeOutput configures the pin as an output.
	ModeOutput
)

func (m Mode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeInputPullUp:
		return "input-pull-up"
	case ModeOutput:
		return "output"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Driver provides pin-level access to a GPIO controller.
//
// Drivers must be safe for concurrent calls on distinct pins.
// Drivers holding OS resources also implement io.Closer.
type Driver interface {
	// Configure sets the mode of the pin.
	Configure(pin int, mode Mode) error

	// Write sets the level of an output pin.
	Write(pin int, level Level) error

	// Read returns the level of a pin.
	Read(pin int) (Level, error)
}

var (
	// ErrClosed indicates the handle or system has already been closed.
	ErrClosed = errors.New("already closed")

	// ErrDuplicatePin indicates a pin is assigned to more than one task.
	ErrDuplicatePin = errors.New("duplicate pin assignment")

	// ErrInvalidPin indicates a pin is negative.
	ErrInvalidPin = errors.New("invalid pin")

	// ErrInvalidPeriod indicates a task period is not positive.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrInvalidTimeout indicates a lock acquisition timeout is not positive,
	// or is not shorter than the period of the task using it.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidName indicates a task name is empty or reused.
	ErrInvalidName = errors.New("invalid name")

	// ErrRunning indicates the system has already been run.
	ErrRunning = errors.New("already run")
)

// ErrPinClaimed indicates a pin is already owned by another handle.
type ErrPinClaimed struct {
	Pin   int
	Owner string
}

func (e ErrPinClaimed) Error() string {
	return fmt.Sprintf("pin %d already claimed by %s", e.Pin, e.Owner)
}
