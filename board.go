// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package gpioguard

import (
	"fmt"
	"sort"
	"sync"
)

// Board hands out exclusive handles to the pins of a Driver.
//
// A pin can be held by at most one handle at a time.
type Board struct {
	d Driver

	// mutex covers claims.
	mu sync.Mutex

	// owner names, keyed by pin.
	claims map[int]string
}

// NewBoard creates a Board for the pins controlled by d.
func NewBoard(d Driver) *Board {
	return &Board{d: d, claims: make(map[int]string)}
}

// Output claims the pin for owner and configures it as an output driven to
// its inactive level.
func (b *Board) Output(owner string, pin int) (*Actuator, error) {
	if err := b.claim(owner, pin); err != nil {
		return nil, err
	}
	if err := b.d.Configure(pin, ModeOutput); err != nil {
		b.unclaim(pin)
		return nil, fmt.Errorf("configure pin %d as output: %w", pin, err)
	}
	a := Actuator{b: b, name: owner, pin: pin}
	if err := b.d.Write(pin, Low); err != nil {
		b.unclaim(pin)
		return nil, fmt.Errorf("deactivate pin %d: %w", pin, err)
	}
	return &a, nil
}

// Input claims the pin for owner and configures it as an input with pull-up.
//
// If activeHigh is false the input is considered pressed when the pin is low.
func (b *Board) Input(owner string, pin int, activeHigh bool) (*Input, error) {
	if err := b.claim(owner, pin); err != nil {
		return nil, err
	}
	if err := b.d.Configure(pin, ModeInputPullUp); err != nil {
		b.unclaim(pin)
		return nil, fmt.Errorf("configure pin %d as input: %w", pin, err)
	}
	active := Low
	if activeHigh {
		active = High
	}
	return &Input{b: b, name: owner, pin: pin, active: active}, nil
}

// Claim identifies the owner of a pin.
type Claim struct {
	Pin   int
	Owner string
}

// Claims returns the claimed pins and their owners, ordered by pin.
func (b *Board) Claims() []Claim {
	b.mu.Lock()
	defer b.mu.Unlock()
	cc := make([]Claim, 0, len(b.claims))
	for pin, owner := range b.claims {
		cc = append(cc, Claim{Pin: pin, Owner: owner})
	}
	sort.Slice(cc, func(i, j int) bool {
		return cc[i].Pin < cc[j].Pin
	})
	return cc
}

func (b *Board) claim(owner string, pin int) error {
	if pin < 0 {
		return fmt.Errorf("%s: %w %d", owner, ErrInvalidPin, pin)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if o, ok := b.claims[pin]; ok {
		return ErrPinClaimed{Pin: pin, Owner: o}
	}
	b.claims[pin] = owner
	return nil
}

func (b *Board) unclaim(pin int) {
	b.mu.Lock()
	delete(b.claims, pin)
	b.mu.Unlock()
}

// Actuator is the exclusive owner of an output pin.
//
// The pin is inactive (low) when the Actuator is created and is driven
// inactive again when it is closed. An Actuator is intended to be used by a
// single task.
type Actuator struct {
	b      *Board
	name   string
	pin    int
	active bool
	closed bool
}

// Name returns the name of the owner of the pin.
func (a *Actuator) Name() string {
	return a.name
}

// Pin returns the pin driven by the actuator.
func (a *Actuator) Pin() int {
	return a.pin
}

// Active returns true if the actuator is currently driven active.
func (a *Actuator) Active() bool {
	return a.active
}

// Set drives the actuator active or inactive.
func (a *Actuator) Set(active bool) error {
	if a.closed {
		return ErrClosed
	}
	level := Low
	if active {
		level = High
	}
	if err := a.b.d.Write(a.pin, level); err != nil {
		return err
	}
	a.active = active
	return nil
}

// Toggle inverts the state of the actuator.
func (a *Actuator) Toggle() error {
	return a.Set(!a.active)
}

// Close drives the pin inactive and releases it.
//
// The pin is released even if it cannot be driven inactive.
func (a *Actuator) Close() error {
	if a.closed {
		return ErrClosed
	}
	a.closed = true
	err := a.b.d.Write(a.pin, Low)
	a.active = false
	a.b.unclaim(a.pin)
	return err
}

// Input is the exclusive, read-only owner of an input pin.
type Input struct {
	b      *Board
	name   string
	pin    int
	active Level
	closed bool
}

// Name returns the name of the owner of the pin.
func (i *Input) Name() string {
	return i.name
}

// Pin returns the pin read by the input.
func (i *Input) Pin() int {
	return i.pin
}

// Pressed samples the pin and returns true if it is at its active level.
func (i *Input) Pressed() (bool, error) {
	if i.closed {
		return false, ErrClosed
	}
	l, err := i.b.d.Read(i.pin)
	if err != nil {
		return false, err
	}
	return l == i.active, nil
}

// Close releases the pin.
func (i *Input) Close() error {
	if i.closed {
		return ErrClosed
	}
	i.closed = true
	i.b.unclaim(i.pin)
	return nil
}
