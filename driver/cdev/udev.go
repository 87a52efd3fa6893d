// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package cdev

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pilebones/go-udev/netlink"
)

// WaitForChip blocks until the named chip device exists, or ctx is done.
//
// This covers chips that appear after boot, such as USB GPIO expanders, by
// watching udev for the chip being added.
func WaitForChip(ctx context.Context, chip string) error {
	devpath := chipPath(chip)
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return fmt.Errorf("unable to connect to Netlink Kobject UEvent socket: %w", err)
	}
	defer conn.Close()
	action := "add"
	matcher := &netlink.RuleDefinition{Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "gpio",
		}}
	queue := make(chan netlink.UEvent, 8)
	errs := make(chan error, 1)
	quit := conn.Monitor(queue, errs, matcher)
	defer close(quit)

	// the chip may have been added before the monitor started
	if exists(devpath) {
		return nil
	}
	for {
		select {
		case evt := <-queue:
			if isChipAdd(evt.Env, devpath) {
				return nil
			}
		case err := <-errs:
			return fmt.Errorf("udev monitor: %w", err)
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", chip, ctx.Err())
		}
	}
}

// isChipAdd returns true if the udev event environment describes the addition
// of the device at devpath.
func isChipAdd(env map[string]string, devpath string) bool {
	if env["SUBSYSTEM"] != "gpio" {
		return false
	}
	return chipPath(env["DEVNAME"]) == devpath
}

func chipPath(name string) string {
	if strings.HasPrefix(name, "/dev/") {
		return name
	}
	return "/dev/" + name
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
