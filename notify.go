// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package gpioguard

import (
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// EventKind identifies the transition reported by an Event.
type EventKind int

const (
	// Paused indicates the monitor has taken the lock, pausing the guarded
	// task.
	Paused EventKind = iota + 1

	// Resumed indicates the monitor has released the lock, resuming the
	// guarded task.
	Resumed
)

func (k EventKind) String() string {
	switch k {
	case Paused:
		return "paused"
	case Resumed:
		return "resumed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is a transition of a Monitor.
type Event struct {
	// The transition.
	Kind EventKind

	// The name of the monitor.
	Source string

	// The name of the task that is paused or resumed.
	Target string

	// The time of the transition.
	//
	// For Paused this is after the lock is taken, for Resumed this is before
	// it is released.
	Time time.Time
}

func (e Event) String() string {
	action := "pressed"
	if e.Kind == Resumed {
		action = "released"
	}
	return fmt.Sprintf("%s %s - %s %s", e.Source, action, e.Target, e.Kind)
}

// Notifier receives Monitor events.
//
// Notify must not block for long as it is called from the monitor task.
// Delivery is best effort.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(Event)

// Notify calls f(evt).
func (f NotifierFunc) Notify(evt Event) {
	f(evt)
}

// LogNotifier writes events to a logger.
type LogNotifier struct {
	l *log.Logger
}

// NewLogNotifier creates a Notifier that prints events to l.
func NewLogNotifier(l *log.Logger) *LogNotifier {
	return &LogNotifier{l}
}

// Notify prints the event.
func (n *LogNotifier) Notify(evt Event) {
	n.l.Print(evt)
}

// WriterNotifier writes events as lines to a writer, such as a serial console.
//
// Write errors are ignored.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a Notifier that writes events to w, one per line.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Notify writes the event.
func (n *WriterNotifier) Notify(evt Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s\r\n", evt)
}

// MultiNotifier forwards events to each of its notifiers in turn.
type MultiNotifier []Notifier

// Notify forwards the event.
func (m MultiNotifier) Notify(evt Event) {
	for _, n := range m {
		n.Notify(evt)
	}
}

// AsyncNotifier decouples a Notifier from the caller via a bounded queue.
//
// Events that arrive while the queue is full are dropped.
type AsyncNotifier struct {
	n       Notifier
	queue   chan Event
	done    chan struct{}
	dropped atomic.Uint64
	once    sync.Once
}

// NewAsyncNotifier creates an AsyncNotifier that forwards events to n from its
// own goroutine. The queue holds up to depth events.
func NewAsyncNotifier(n Notifier, depth int) *AsyncNotifier {
	if depth < 1 {
		depth = 1
	}
	if n == nil {
		n = NotifierFunc(func(Event) {})
	}
	a := AsyncNotifier{
		n:     n,
		queue: make(chan Event, depth),
		done:  make(chan struct{}),
	}
	go a.forward()
	return &a
}

// Notify queues the event, dropping it if the queue is full.
func (a *AsyncNotifier) Notify(evt Event) {
	select {
	case a.queue <- evt:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns the number of events dropped due to a full queue.
func (a *AsyncNotifier) Dropped() uint64 {
	return a.dropped.Load()
}

// Close forwards any queued events and stops the forwarding goroutine.
//
// Notify must not be called after Close.
func (a *AsyncNotifier) Close() {
	a.once.Do(func() {
		close(a.queue)
	})
	<-a.done
}

func (a *AsyncNotifier) forward() {
	defer close(a.done)
	for evt := range a.queue {
		a.n.Notify(evt)
	}
}
