// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package gpioguard

import (
	"io"
	"log"
	"time"
)

var discardLogger = log.New(io.Discard, "", 0)

// LoggerOption provides the logger for diagnostics.
type LoggerOption struct {
	l *log.Logger
}

// WithLogger provides the logger used to report diagnostics.
//
// By default diagnostics are discarded.
func WithLogger(l *log.Logger) LoggerOption {
	if l == nil {
		l = discardLogger
	}
	return LoggerOption{l}
}

func (o LoggerOption) applySchedulerOption(s *Scheduler) {
	s.log = o.l
}

func (o LoggerOption) applyTogglerOption(t *Toggler) {
	t.log = o.l
}

func (o LoggerOption) applyMonitorOption(m *Monitor) {
	m.log = o.l
}

func (o LoggerOption) applySystemOption(s *System) {
	s.log = o.l
}

// TickLoggerOption provides the logger for per-tick diagnostics.
type TickLoggerOption struct {
	l *log.Logger
}

// WithTickLogger provides the logger used to report what happens on each
// tick, such as toggles and skipped toggles.
//
// These are frequent, so by default they are discarded. Errors are always
// reported to the logger provided by WithLogger.
func WithTickLogger(l *log.Logger) TickLoggerOption {
	if l == nil {
		l = discardLogger
	}
	return TickLoggerOption{l}
}

func (o TickLoggerOption) applyTogglerOption(t *Toggler) {
	t.tlog = o.l
}

func (o TickLoggerOption) applySystemOption(s *System) {
	s.tlog = o.l
}

// NotifierOption provides the sink for pause and resume events.
type NotifierOption struct {
	n Notifier
}

// WithNotifier provides the sink for pause and resume events.
//
// By default events are discarded.
func WithNotifier(n Notifier) NotifierOption {
	if n == nil {
		n = NotifierFunc(func(Event) {})
	}
	return NotifierOption{n}
}

func (o NotifierOption) applyMonitorOption(m *Monitor) {
	m.notifier = o.n
}

func (o NotifierOption) applySystemOption(s *System) {
	s.notifier = o.n
}

// TargetOption names the task that a Monitor pauses.
type TargetOption string

// WithTarget names the task paused by the monitor, for use in events.
func WithTarget(name string) TargetOption {
	return TargetOption(name)
}

func (o TargetOption) applyMonitorOption(m *Monitor) {
	m.target = string(o)
}

// GuardOption gates a Toggler with a Lock.
type GuardOption struct {
	l       *Lock
	timeout time.Duration
}

// WithGuard makes the toggler acquire the lock, waiting at most timeout,
// before each toggle. If the lock is not acquired the toggle is skipped.
func WithGuard(l *Lock, timeout time.Duration) GuardOption {
	return GuardOption{l, timeout}
}

func (o GuardOption) applyTogglerOption(t *Toggler) {
	t.guard = o.l
	t.timeout = o.timeout
}

// QueueDepthOption sets the number of events buffered by the System before
// events are dropped.
type QueueDepthOption int

// WithQueueDepth sets the number of events buffered between the monitor and
// the notifier.
func WithQueueDepth(n int) QueueDepthOption {
	return QueueDepthOption(n)
}

func (o QueueDepthOption) applySystemOption(s *System) {
	s.queueDepth = int(o)
}
