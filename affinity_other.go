// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

//go:build !linux
// +build !linux

package gpioguard

import "errors"

func setAffinity(cpu int) error {
	return errors.New("core affinity not supported")
}
