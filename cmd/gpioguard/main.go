// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// A utility to run a set of periodic GPIO tasks, one of which is paused
// while a button is held.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gpioguard",
	Short: "gpioguard runs periodic GPIO tasks guarded by a button",
	Long: "gpioguard blinks a set of GPIO outputs, pausing one of them while a " +
		"button holds the shared lock.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	SilenceErrors: true,
}

func main() {
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "gpioguard %s: %s\n", cmd.Name(), err)
}
