// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

// Package mockup provides an in-memory GPIO Driver.
//
// This is intended for testing of gpioguard and its users, and for dry runs
// of the gpioguard tool without hardware. Every level written to an output is
// recorded with a timestamp so tests can check when actuators changed, and
// inputs can be driven externally with SetValue.
package mockup

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/gpioguard"
)

// Mockup represents a mocked GPIO chip with a fixed number of lines.
type Mockup struct {
	// mutex covers the attributes below it.
	mu    sync.Mutex
	lines []line
}

type line struct {
	mode       gpioguard.Mode
	configured bool

	// level currently driven by the chip, for outputs.
	level gpioguard.Level

	// level applied externally, for inputs.
	pull gpioguard.Level

	// set if the external level has been set by SetValue.
	driven bool

	history []Change

	// returned by all operations on the line, if set.
	err error
}

// Change is a level written to an output line.
type Change struct {
	Level gpioguard.Level
	Time  time.Time
}

// New creates a Mockup with the given number of lines.
func New(lines int) *Mockup {
	return &Mockup{lines: make([]line, lines)}
}

// Lines returns the number of lines on the mockup.
func (m *Mockup) Lines() int {
	return len(m.lines)
}

// Configure sets the mode of the line.
func (m *Mockup) Configure(offset int, mode gpioguard.Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.line(offset)
	if err != nil {
		return err
	}
	l.mode = mode
	l.configured = true
	return nil
}

// Write sets the level of an output line.
func (m *Mockup) Write(offset int, level gpioguard.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.line(offset)
	if err != nil {
		return err
	}
	if !l.configured || l.mode != gpioguard.ModeOutput {
		return ErrNotOutput
	}
	l.level = level
	l.history = append(l.history, Change{Level: level, Time: time.Now()})
	return nil
}

// Read returns the level of the line.
//
// For outputs this is the driven level. For inputs this is the level set by
// SetValue, else high if pulled up, else low.
func (m *Mockup) Read(offset int) (gpioguard.Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.line(offset)
	if err != nil {
		return gpioguard.Low, err
	}
	if !l.configured {
		return gpioguard.Low, ErrNotConfigured
	}
	switch {
	case l.mode == gpioguard.ModeOutput:
		return l.level, nil
	case l.driven:
		return l.pull, nil
	case l.mode == gpioguard.ModeInputPullUp:
		return gpioguard.High, nil
	}
	return gpioguard.Low, nil
}

// SetValue drives the line externally, as a button or other input would.
func (m *Mockup) SetValue(offset int, level gpioguard.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.line(offset)
	if err != nil {
		return err
	}
	l.pull = level
	l.driven = true
	return nil
}

// Release stops driving the line externally, leaving it to its bias.
func (m *Mockup) Release(offset int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.line(offset)
	if err != nil {
		return err
	}
	l.driven = false
	return nil
}

// Value returns the level currently driven on an output line.
func (m *Mockup) Value(offset int) (gpioguard.Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.line(offset)
	if err != nil {
		return gpioguard.Low, err
	}
	return l.level, nil
}

// Mode returns the mode of the line and whether it has been configured.
func (m *Mockup) Mode(offset int) (gpioguard.Mode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset < 0 || offset >= len(m.lines) {
		return gpioguard.ModeInput, false
	}
	l := &m.lines[offset]
	return l.mode, l.configured
}

// History returns the levels written to the line, oldest first.
func (m *Mockup) History(offset int) []Change {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset < 0 || offset >= len(m.lines) {
		return nil
	}
	return append([]Change(nil), m.lines[offset].history...)
}

// Changes returns the number of writes to the line that changed its level
// within the period [from, to].
func (m *Mockup) Changes(offset int, from, to time.Time) int {
	hh := m.History(offset)
	n := 0
	prev := gpioguard.Low
	for _, h := range hh {
		if h.Level != prev && !h.Time.Before(from) && !h.Time.After(to) {
			n++
		}
		prev = h.Level
	}
	return n
}

// InjectError causes all subsequent operations on the line to fail with err.
//
// A nil err clears any injected error.
func (m *Mockup) InjectError(offset int, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if offset < 0 || offset >= len(m.lines) {
		return ErrorIndexRange{offset, len(m.lines)}
	}
	m.lines[offset].err = err
	return nil
}

func (m *Mockup) line(offset int) (*line, error) {
	if offset < 0 || offset >= len(m.lines) {
		return nil, ErrorIndexRange{offset, len(m.lines)}
	}
	l := &m.lines[offset]
	if l.err != nil {
		return nil, l.err
	}
	return l, nil
}

var (
	// ErrNotOutput indicates a write to a line that is not an output.
	ErrNotOutput = errors.New("line is not an output")

	// ErrNotConfigured indicates a read from a line that has not been
	// configured.
	ErrNotConfigured = errors.New("line is not configured")
)

// ErrorIndexRange indicates the requested line is beyond the limit of the
// chip.
type ErrorIndexRange struct {
	Req   int
	Limit int
}

func (e ErrorIndexRange) Error() string {
	return fmt.Sprintf("index out of range - got %d, limit is %d.", e.Req, e.Limit)
}
