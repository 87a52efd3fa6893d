// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package gpioguard

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"
)

// MonitorState is the state of a Monitor.
type MonitorState int32

const (
	// Idle indicates the monitor does not hold the lock.
	Idle MonitorState = iota

	// Locked indicates the monitor holds the lock.
	Locked
)

func (s MonitorState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Locked:
		return "locked"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Monitor is a periodic task that holds a Lock while its Input is pressed.
//
// The input is sampled once per tick, with no further filtering, so presses
// shorter than the tick period may be missed.
type Monitor struct {
	in       *Input
	lock     *Lock
	target   string
	notifier Notifier
	log      *log.Logger

	// only accessed from the monitor task, and Close.
	tok *Token

	state atomic.Int32
}

// MonitorOption defines the interface required to provide a Monitor option.
type MonitorOption interface {
	applyMonitorOption(*Monitor)
}

// NewMonitor creates an Idle Monitor of the input that takes the lock while
// the input is pressed.
func NewMonitor(in *Input, lock *Lock, options ...MonitorOption) *Monitor {
	m := Monitor{
		in:       in,
		lock:     lock,
		notifier: NotifierFunc(func(Event) {}),
		log:      discardLogger,
	}
	for _, option := range options {
		option.applyMonitorOption(&m)
	}
	return &m
}

// Name returns the name of the monitored input.
func (m *Monitor) Name() string {
	return m.in.Name()
}

// State returns the current state of the monitor.
func (m *Monitor) State() MonitorState {
	return MonitorState(m.state.Load())
}

// Tick samples the input and performs any resulting transition.
//
// Taking the lock blocks until the current holder releases it.
func (m *Monitor) Tick() {
	pressed, err := m.in.Pressed()
	if err != nil {
		m.log.Printf("%s: read pin %d: %s", m.in.Name(), m.in.Pin(), err)
		return
	}
	switch {
	case pressed && m.tok == nil:
		m.tok = m.lock.Acquire(m.in.Name())
		m.state.Store(int32(Locked))
		m.emit(Paused, time.Now())
	case !pressed && m.tok != nil:
		at := time.Now()
		m.state.Store(int32(Idle))
		m.tok.Release()
		m.tok = nil
		m.emit(Resumed, at)
	}
}

// Close releases the lock if held.
//
// Close must not be called concurrently with Tick.
func (m *Monitor) Close() {
	if m.tok != nil {
		m.state.Store(int32(Idle))
		m.tok.Release()
		m.tok = nil
	}
}

func (m *Monitor) emit(kind EventKind, at time.Time) {
	m.notifier.Notify(Event{
		Kind:   kind,
		Source: m.in.Name(),
		Target: m.target,
		Time:   at,
	})
}
