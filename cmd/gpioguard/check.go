// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warthog618/gpioguard"
)

func init() {
	addConfigFlags(checkCmd.Flags())
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check [flags]",
	Short: "Check the configuration",
	Long: `Resolve and validate the configuration from flags, environment and
config file, and display the resulting tasks.`,
	Args:                  cobra.NoArgs,
	RunE:                  check,
	DisableFlagsInUseLine: true,
}

func check(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	sc, err := systemConfig(cfg)
	if err != nil {
		return err
	}
	st := settings{cfg: cfg}
	fmt.Printf("driver: %s\n", st.String("driver"))
	printTasks(os.Stdout, sc)
	return nil
}

func printTasks(w io.Writer, c gpioguard.Config) {
	fmt.Fprintf(w, "%-8s %-8s %4s %8s %8s\n", "task", "role", "pin", "period", "timeout")
	for _, b := range c.Blinkers {
		fmt.Fprintf(w, "%-8s %-8s %4d %8s %8s\n", b.Name, "blink", b.Pin, b.Period, "-")
	}
	g := c.Guarded
	fmt.Fprintf(w, "%-8s %-8s %4d %8s %8s\n", g.Name, "guarded", g.Pin, g.Period, g.Timeout)
	active := "low"
	if c.Button.ActiveHigh {
		active = "high"
	}
	fmt.Fprintf(w, "%-8s %-8s %4d %8s %8s\n", c.Button.Name, "monitor", c.Button.Pin, c.Button.Poll, "active "+active)
	fmt.Fprintf(w, "stack %d, priority %d, core %d\n", c.Task.StackSize, c.Task.Priority, c.Task.Core)
}
