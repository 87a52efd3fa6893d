// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package gpioguard

import (
	"fmt"
	"time"
)

// ActuatorConfig contains the configuration of a periodic actuator task.
type ActuatorConfig struct {
	// The task name.
	Name string

	// The output pin.
	Pin int

	// The toggle period.
	Period time.Duration
}

// GuardedConfig contains the configuration of the lock guarded actuator task.
type GuardedConfig struct {
	ActuatorConfig

	// The longest the task waits for the lock before skipping a toggle.
	Timeout time.Duration
}

// InputConfig contains the configuration of the lock owner monitor task.
type InputConfig struct {
	// The task name.
	Name string

	// The input pin.
	Pin int

	// The sampling period.
	Poll time.Duration

	// The input is pressed when high, rather than low.
	ActiveHigh bool
}

// TaskDefaults contains the scheduling parameters applied to all tasks.
type TaskDefaults struct {
	// The stack budget, in bytes.
	StackSize int

	// The task priority.
	Priority int

	// The CPU the tasks are pinned to, or -1 for no affinity.
	Core int
}

// Config is the complete configuration of a System.
type Config struct {
	// The free running actuator tasks.
	Blinkers []ActuatorConfig

	// The actuator task paused while the button is pressed.
	Guarded GuardedConfig

	// The monitor that pauses the guarded task.
	Button InputConfig

	// Scheduling parameters for all tasks.
	Task TaskDefaults
}

// DefaultConfig returns the default configuration, which uses Raspberry Pi
// BCM GPIO numbering.
func DefaultConfig() Config {
	return Config{
		Blinkers: []ActuatorConfig{
			{Name: "led1", Pin: 2, Period: 500 * time.Millisecond},
			{Name: "led2", Pin: 3, Period: time.Second},
		},
		Guarded: GuardedConfig{
			ActuatorConfig: ActuatorConfig{Name: "led3", Pin: 4, Period: 200 * time.Millisecond},
			Timeout:        10 * time.Millisecond,
		},
		Button: InputConfig{Name: "button", Pin: 5, Poll: 50 * time.Millisecond},
		Task:   TaskDefaults{StackSize: 2048, Priority: 1, Core: 0},
	}
}

// Validate checks the configuration is complete and consistent.
//
// Each pin and task name may only be used once.
func (c Config) Validate() error {
	pins := make(map[int]string)
	names := make(map[string]bool)
	check := func(name string, pin int, period time.Duration) error {
		if len(name) == 0 || names[name] {
			return fmt.Errorf("%w '%s'", ErrInvalidName, name)
		}
		names[name] = true
		if pin < 0 {
			return fmt.Errorf("%s: %w %d", name, ErrInvalidPin, pin)
		}
		if owner, ok := pins[pin]; ok {
			return fmt.Errorf("%s: %w %d, already used by %s", name, ErrDuplicatePin, pin, owner)
		}
		pins[pin] = name
		if period <= 0 {
			return fmt.Errorf("%s: %w %s", name, ErrInvalidPeriod, period)
		}
		return nil
	}
	for _, b := range c.Blinkers {
		if err := check(b.Name, b.Pin, b.Period); err != nil {
			return err
		}
	}
	g := c.Guarded
	if err := check(g.Name, g.Pin, g.Period); err != nil {
		return err
	}
	if g.Timeout <= 0 || g.Timeout >= g.Period {
		return fmt.Errorf("%s: %w %s", g.Name, ErrInvalidTimeout, g.Timeout)
	}
	return check(c.Button.Name, c.Button.Pin, c.Button.Poll)
}

// taskConfig returns the TaskConfig for a task with the given name and period.
func (c Config) taskConfig(name string, period time.Duration) TaskConfig {
	return TaskConfig{
		Name:      name,
		Period:    period,
		StackSize: c.Task.StackSize,
		Priority:  c.Task.Priority,
		Core:      c.Task.Core,
	}
}
