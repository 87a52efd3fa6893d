// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package gpioguard

import (
	"log"
	"sync/atomic"
	"time"
)

// Toggler is a periodic task that inverts an Actuator on each tick.
//
// A guarded Toggler only toggles when it acquires its Lock within its
// timeout, and skips the tick otherwise.
type Toggler struct {
	act     *Actuator
	guard   *Lock
	timeout time.Duration
	log     *log.Logger
	tlog    *log.Logger

	toggles atomic.Uint64
	skips   atomic.Uint64
	errors  atomic.Uint64
}

// TogglerStats contains the counters for a Toggler.
type TogglerStats struct {
	// The number of successful toggles.
	Toggles uint64

	// The number of ticks skipped as the guard lock was not acquired.
	Skips uint64

	// The number of toggles that failed to write the pin.
	Errors uint64
}

// TogglerOption defines the interface required to provide a Toggler option.
type TogglerOption interface {
	applyTogglerOption(*Toggler)
}

// NewToggler creates a Toggler for the actuator.
func NewToggler(act *Actuator, options ...TogglerOption) *Toggler {
	t := Toggler{act: act, log: discardLogger, tlog: discardLogger}
	for _, option := range options {
		option.applyTogglerOption(&t)
	}
	return &t
}

// Name returns the name of the actuator toggled.
func (t *Toggler) Name() string {
	return t.act.Name()
}

// Guarded returns true if the toggler is gated by a lock.
func (t *Toggler) Guarded() bool {
	return t.guard != nil
}

// Stats returns the counters for the toggler.
func (t *Toggler) Stats() TogglerStats {
	return TogglerStats{
		Toggles: t.toggles.Load(),
		Skips:   t.skips.Load(),
		Errors:  t.errors.Load(),
	}
}

// Tick performs one iteration of the task.
func (t *Toggler) Tick() {
	if t.guard == nil {
		t.toggle()
		return
	}
	tok, ok := t.guard.TryAcquire(t.act.Name(), t.timeout)
	if !ok {
		t.skips.Add(1)
		t.tlog.Printf("%s: locked, skipping toggle", t.act.Name())
		return
	}
	defer tok.Release()
	t.toggle()
}

func (t *Toggler) toggle() {
	if err := t.act.Toggle(); err != nil {
		t.errors.Add(1)
		t.log.Printf("%s: toggle pin %d: %s", t.act.Name(), t.act.Pin(), err)
		return
	}
	t.toggles.Add(1)
	t.tlog.Printf("%s: toggled, active %t", t.act.Name(), t.act.Active())
}
