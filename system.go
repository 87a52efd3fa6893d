// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package gpioguard

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// System is the complete set of tasks described by a Config.
type System struct {
	cfg        Config
	board      *Board
	lock       *Lock
	log        *log.Logger
	tlog       *log.Logger
	notifier   Notifier
	queueDepth int

	blinkers []*Toggler
	guarded  *Toggler
	monitor  *Monitor
	acts     []*Actuator
	in       *Input

	// mutex covers sched and ran.
	mu    sync.Mutex
	sched *Scheduler
	ran   bool
}

// SystemOption defines the interface required to provide a System option.
type SystemOption interface {
	applySystemOption(*System)
}

// New validates the config, claims all the pins from the driver and creates
// the tasks.
//
// No task is started until Run is called. If an error is returned then any
// pins already claimed have been reset and released.
func New(cfg Config, d Driver, options ...SystemOption) (s *System, err error) {
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	s = &System{
		cfg:        cfg,
		board:      NewBoard(d),
		lock:       NewLock(),
		log:        discardLogger,
		tlog:       discardLogger,
		notifier:   NotifierFunc(func(Event) {}),
		queueDepth: 16,
	}
	for _, option := range options {
		option.applySystemOption(s)
	}
	defer func() {
		if err != nil {
			s.closeHandles()
			s = nil
		}
	}()
	for _, bc := range cfg.Blinkers {
		var a *Actuator
		a, err = s.board.Output(bc.Name, bc.Pin)
		if err != nil {
			return
		}
		s.acts = append(s.acts, a)
		s.blinkers = append(s.blinkers, NewToggler(a, WithLogger(s.log), WithTickLogger(s.tlog)))
	}
	gc := cfg.Guarded
	a, err := s.board.Output(gc.Name, gc.Pin)
	if err != nil {
		return
	}
	s.acts = append(s.acts, a)
	s.guarded = NewToggler(a,
		WithGuard(s.lock, gc.Timeout),
		WithLogger(s.log),
		WithTickLogger(s.tlog))
	bc := cfg.Button
	s.in, err = s.board.Input(bc.Name, bc.Pin, bc.ActiveHigh)
	if err != nil {
		return
	}
	// events are routed through an AsyncNotifier once running.
	s.monitor = NewMonitor(s.in, s.lock,
		WithTarget(gc.Name),
		WithLogger(s.log))
	return s, nil
}

// Lock returns the lock shared by the guarded task and the monitor.
func (s *System) Lock() *Lock {
	return s.lock
}

// Board returns the board holding the system pins.
func (s *System) Board() *Board {
	return s.board
}

// Blinkers returns the free running tasks.
func (s *System) Blinkers() []*Toggler {
	return s.blinkers
}

// Guarded returns the lock guarded task.
func (s *System) Guarded() *Toggler {
	return s.guarded
}

// Monitor returns the lock owner monitor task.
func (s *System) Monitor() *Monitor {
	return s.monitor
}

// Tasks returns the configuration of every task in the system, in start
// order.
func (s *System) Tasks() []TaskConfig {
	cfg := s.cfg
	tt := make([]TaskConfig, 0, len(cfg.Blinkers)+2)
	for _, b := range cfg.Blinkers {
		tt = append(tt, cfg.taskConfig(b.Name, b.Period))
	}
	tt = append(tt, cfg.taskConfig(cfg.Guarded.Name, cfg.Guarded.Period))
	tt = append(tt, cfg.taskConfig(cfg.Button.Name, cfg.Button.Poll))
	return tt
}

// Run starts all the tasks and blocks until ctx is done.
//
// Once the tasks have returned, the lock is released if held, and all the
// actuators are driven inactive and all pins released.
// A System can only be run once.
func (s *System) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return ErrRunning
	}
	s.ran = true
	an := NewAsyncNotifier(s.notifier, s.queueDepth)
	s.monitor.notifier = an
	sched := NewScheduler(ctx, WithLogger(s.log))
	s.sched = sched
	s.mu.Unlock()

	tt := s.Tasks()
	s.log.Printf("starting %d tasks", len(tt))
	for i, b := range s.blinkers {
		sched.Spawn(tt[i], b.Tick)
	}
	n := len(s.blinkers)
	sched.Spawn(tt[n], s.guarded.Tick)
	sched.Spawn(tt[n+1], s.monitor.Tick)
	sched.Wait()

	s.monitor.Close()
	an.Close()
	if d := an.Dropped(); d != 0 {
		s.log.Printf("dropped %d events", d)
	}
	return s.closeHandles()
}

// Scheduler returns the scheduler running the tasks, or nil if the system has
// not been run.
func (s *System) Scheduler() *Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched
}

func (s *System) closeHandles() error {
	var first error
	for _, a := range s.acts {
		if err := a.Close(); err != nil && first == nil {
			first = fmt.Errorf("reset %s: %w", a.Name(), err)
		}
	}
	if s.in != nil {
		s.in.Close()
	}
	return first
}
