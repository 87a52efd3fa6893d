// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package gpioguard

import (
	"context"
	"log"
	"runtime"
	"sync"
	"time"
)

// TaskConfig contains the parameters of a periodic task.
type TaskConfig struct {
	// A human readable name for the task.
	Name string

	// The delay between the end of one run of the action and the start of the
	// next.
	Period time.Duration

	// The stack budget for the task, in bytes.
	//
	// Recorded for reporting only as goroutine stacks grow on demand.
	StackSize int

	// The task priority.
	//
	// All tasks are scheduled with equal priority, so this is recorded for
	// reporting only.
	Priority int

	// The CPU the task is pinned to, or -1 for no affinity.
	Core int
}

// Scheduler runs periodic tasks until its context is done.
//
// There is no way to stop an individual task.
type Scheduler struct {
	ctx context.Context
	log *log.Logger
	wg  sync.WaitGroup

	// mutex covers tasks.
	mu    sync.Mutex
	tasks []TaskConfig
}

// SchedulerOption defines the interface required to provide a Scheduler
// option.
type SchedulerOption interface {
	applySchedulerOption(*Scheduler)
}

// NewScheduler creates a Scheduler whose tasks run until ctx is done.
func NewScheduler(ctx context.Context, options ...SchedulerOption) *Scheduler {
	s := Scheduler{ctx: ctx, log: discardLogger}
	for _, option := range options {
		option.applySchedulerOption(&s)
	}
	return &s
}

// Spawn starts a task that repeatedly runs action and then waits for the
// period.
//
// Spawn does not block. If the scheduler context is already done the task is
// not started.
func (s *Scheduler) Spawn(cfg TaskConfig, action func()) {
	if s.ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, cfg)
	s.mu.Unlock()
	s.wg.Add(1)
	go s.run(cfg, action)
}

// Tasks returns the configuration of the spawned tasks, in spawn order.
func (s *Scheduler) Tasks() []TaskConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TaskConfig(nil), s.tasks...)
}

// Wait blocks until all spawned tasks have returned, which happens once the
// scheduler context is done.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(cfg TaskConfig, action func()) {
	defer s.wg.Done()
	if cfg.Core >= 0 {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := setAffinity(cfg.Core); err != nil {
			s.log.Printf("%s: can't pin to core %d: %s", cfg.Name, cfg.Core, err)
		}
	}
	for {
		s.tick(cfg.Name, action)
		select {
		case <-time.After(cfg.Period):
		case <-s.ctx.Done():
			return
		}
	}
}

// tick runs the action, containing any panic to this task.
func (s *Scheduler) tick(name string, action func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Printf("%s: recovered from panic: %v", name, r)
		}
	}()
	action()
}
