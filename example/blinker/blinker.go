// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warthog618/gpioguard"
	"github.com/warthog618/gpioguard/driver/cdev"
	"github.com/warthog618/gpiod/device/rpi"
)

// This example drives GPIO 4, which is pin J8-7 on a Raspberry Pi.
// The pin is toggled high and low at 1Hz with a 50% duty cycle by a single
// periodic task.
// Do not run this on a device which has this pin externally driven.
func main() {
	d, err := cdev.New("gpiochip0", cdev.WithConsumer("blinker"))
	if err != nil {
		panic(err)
	}
	defer d.Close()

	b := gpioguard.NewBoard(d)
	a, err := b.Output("blinker", rpi.GPIO4)
	if err != nil {
		panic(err)
	}
	// reverts the pin to low and releases it on exit.
	defer a.Close()

	logger := log.New(os.Stdout, "", log.Lmicroseconds)
	tog := gpioguard.NewToggler(a, gpioguard.WithLogger(logger))

	// capture exit signals to ensure the pin is reset on exit.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := gpioguard.NewScheduler(ctx, gpioguard.WithLogger(logger))
	s.Spawn(gpioguard.TaskConfig{Name: "blinker", Period: time.Second, Core: -1},
		func() {
			tog.Tick()
			fmt.Printf("Set %s\n", map[bool]string{false: "inactive", true: "active"}[a.Active()])
		})
	s.Wait()
}
