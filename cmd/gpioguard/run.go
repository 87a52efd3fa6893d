// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/warthog618/config"
	"github.com/warthog618/gpioguard"
	"github.com/warthog618/gpioguard/driver/cdev"
	"github.com/warthog618/gpioguard/driver/periph"
	"github.com/warthog618/gpioguard/driver/rpio"
	"github.com/warthog618/gpioguard/mockup"
	"github.com/warthog618/gpioguard/notify/serial"
)

func init() {
	addConfigFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [flags]",
	Short: "Run the tasks",
	Long: `Run the blinkers, the guarded output and the button monitor until
interrupted. On exit all outputs are driven low and released.`,
	Args:                  cobra.NoArgs,
	RunE:                  run,
	DisableFlagsInUseLine: true,
}

// driver is a gpioguard.Driver that holds resources until closed.
type driver interface {
	gpioguard.Driver
	Close() error
}

// simDriver runs the tasks against an in-memory GPIO chip.
type simDriver struct {
	*mockup.Mockup
}

func (simDriver) Close() error {
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	sc, err := systemConfig(cfg)
	if err != nil {
		return err
	}
	st := settings{cfg: cfg}
	dev := st.String("serial")
	baud := st.Int("baud")
	verbose := st.Bool("verbose")
	if st.err != nil {
		return st.err
	}
	logger := log.New(os.Stderr, "gpioguard: ", log.LstdFlags|log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := openDriver(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	nn := gpioguard.MultiNotifier{gpioguard.NewLogNotifier(logger)}
	if len(dev) > 0 {
		con, err := serial.Open(dev, baud)
		if err != nil {
			return err
		}
		defer con.Close()
		con.Banner(banner(sc))
		nn = append(nn, con)
	}
	s, err := gpioguard.New(sc, d, systemOptions(logger, nn, verbose)...)
	if err != nil {
		return err
	}
	logger.Print(banner(sc))
	err = s.Run(ctx)
	stats := s.Lock().Stats()
	gs := s.Guarded().Stats()
	logger.Printf("stopped: %d toggles, %d skipped, %d lock acquisitions",
		gs.Toggles, gs.Skips, stats.Acquisitions)
	return err
}

// systemOptions always reports errors to the logger, and only reports per-tick
// activity if verbose.
func systemOptions(logger *log.Logger, n gpioguard.Notifier, verbose bool) []gpioguard.SystemOption {
	opts := []gpioguard.SystemOption{
		gpioguard.WithNotifier(n),
		gpioguard.WithLogger(logger),
	}
	if verbose {
		opts = append(opts, gpioguard.WithTickLogger(logger))
	}
	return opts
}

// openDriver opens the GPIO driver selected by the config.
func openDriver(ctx context.Context, cfg *config.Config) (driver, error) {
	st := settings{cfg: cfg}
	name := strings.ToLower(st.String("driver"))
	chip := st.String("chip")
	consumer := st.String("consumer")
	wait := st.Duration("wait")
	if st.err != nil {
		return nil, st.err
	}
	switch name {
	case "cdev":
		if wait > 0 {
			wctx, cancel := context.WithTimeout(ctx, wait)
			err := cdev.WaitForChip(wctx, chip)
			cancel()
			if err != nil {
				return nil, fmt.Errorf("wait for %s: %w", chip, err)
			}
		}
		return cdev.New(chip, cdev.WithConsumer(consumer))
	case "rpio":
		return rpio.New()
	case "periph":
		return periph.New("")
	case "sim":
		return simDriver{mockup.New(rpio.MaxPin + 1)}, nil
	default:
		return nil, fmt.Errorf("unknown driver '%s'", name)
	}
}

func banner(c gpioguard.Config) string {
	names := []string(nil)
	for _, b := range c.Blinkers {
		names = append(names, b.Name)
	}
	return fmt.Sprintf("starting %d tasks: blinkers %s, %s guarded by %s",
		len(c.Blinkers)+2, strings.Join(names, " "), c.Guarded.Name, c.Button.Name)
}
