// SPDX-FileCopyrightText: 2024 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/gpioguard"
	"github.com/warthog618/gpiod/device/rpi"
)

const defaultConfigFile = "gpioguard.json"

var defaultConfig = map[string]interface{}{
	"driver":   "cdev",
	"chip":     "gpiochip0",
	"consumer": "gpioguard",
	"wait":     "0s",
	"blink":    "led1=GPIO2@500ms,led2=GPIO3@1s",
	"guarded":  "led3=GPIO4@200ms",
	"timeout":  "10ms",
	"button":   "GPIO5",
	"poll":     "50ms",
	"active":   "low",
	"stack":    "2048",
	"priority": "1",
	"core":     "0",
	"serial":   "",
	"baud":     "115200",
	"verbose":  "false",
}

// addConfigFlags adds a flag for each configuration key.
//
// Flags only override the configuration when set.
func addConfigFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", defaultConfigFile, "the configuration file")
	fs.StringP("driver", "d", "cdev", "the GPIO driver (cdev, rpio, periph or sim)")
	fs.String("chip", "gpiochip0", "the GPIO chip (cdev)")
	fs.String("consumer", "gpioguard", "the consumer label for requested lines (cdev)")
	fs.Duration("wait", 0, "how long to wait for the chip to appear (cdev)")
	fs.String("blink", "led1=GPIO2@500ms,led2=GPIO3@1s", "the free running outputs as [name=]pin@period,...")
	fs.String("guarded", "led3=GPIO4@200ms", "the guarded output as [name=]pin@period")
	fs.Duration("timeout", 10*time.Millisecond, "how long the guarded task waits for the lock")
	fs.StringP("button", "b", "GPIO5", "the button input as [name=]pin")
	fs.Duration("poll", 50*time.Millisecond, "the button sampling period")
	fs.String("active", "low", "the active level of the button (low or high)")
	fs.Int("stack", 2048, "the task stack budget")
	fs.Int("priority", 1, "the task priority")
	fs.Int("core", 0, "the CPU to pin tasks to, or -1 for any")
	fs.StringP("serial", "s", "", "the serial console device")
	fs.Int("baud", 115200, "the serial console baud rate")
	fs.BoolP("verbose", "v", false, "log per-tick diagnostics")
}

// flagGetter returns the flags that were set as a config getter.
func flagGetter(fs *pflag.FlagSet) *dict.Getter {
	m := map[string]interface{}{}
	fs.Visit(func(f *pflag.Flag) {
		key := f.Name
		if key == "config" {
			key = "config.file"
		}
		m[key] = f.Value.String()
	})
	return dict.New(dict.WithMap(m))
}

// loadConfig layers the flags over the environment over the config file over
// the defaults.
//
// The default config file is optional, but a config file named by flag or
// environment must exist.
func loadConfig(fs *pflag.FlagSet) (cfg *config.Config, err error) {
	def := dict.New(dict.WithMap(defaultConfig))
	cfg = config.New(
		flagGetter(fs),
		env.New(env.WithEnvPrefix("GPIOGUARD_")),
		config.WithDefault(def))
	fname := defaultConfigFile
	explicit := false
	if v, err := cfg.Get("config.file"); err == nil {
		fname = v.String()
		explicit = true
	}
	if _, err := os.Stat(fname); err != nil {
		if explicit {
			return nil, fmt.Errorf("config file: %w", err)
		}
		return cfg, nil
	}
	defer func() {
		if r := recover(); r != nil {
			cfg = nil
			err = fmt.Errorf("config file %s: %v", fname, r)
		}
	}()
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", defaultConfigFile, json.NewDecoder()))
	return cfg, nil
}

// settings reads typed values from the resolved config.
//
// The first error is retained and all later reads return zero values.
type settings struct {
	cfg *config.Config
	err error
}

func (s *settings) String(key string) string {
	if s.err != nil {
		return ""
	}
	v, err := s.cfg.Get(key)
	if err != nil {
		s.err = fmt.Errorf("%s: %w", key, err)
		return ""
	}
	return v.String()
}

func (s *settings) Duration(key string) time.Duration {
	str := s.String(key)
	if s.err != nil {
		return 0
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		s.err = fmt.Errorf("%s: can't parse duration '%s'", key, str)
	}
	return d
}

// Int accepts integral floats as the json decoder returns all numbers as
// float64.
func (s *settings) Int(key string) int {
	str := s.String(key)
	if s.err != nil {
		return 0
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil || f != math.Trunc(f) {
		s.err = fmt.Errorf("%s: can't parse integer '%s'", key, str)
		return 0
	}
	return int(f)
}

func (s *settings) Bool(key string) bool {
	str := s.String(key)
	if s.err != nil {
		return false
	}
	b, err := strconv.ParseBool(str)
	if err != nil {
		s.err = fmt.Errorf("%s: can't parse bool '%s'", key, str)
	}
	return b
}

// systemConfig builds the system configuration from the resolved config.
func systemConfig(cfg *config.Config) (c gpioguard.Config, err error) {
	s := settings{cfg: cfg}
	blink := s.String("blink")
	guarded := s.String("guarded")
	button := s.String("button")
	activeLevel := s.String("active")
	timeout := s.Duration("timeout")
	poll := s.Duration("poll")
	c.Task = gpioguard.TaskDefaults{
		StackSize: s.Int("stack"),
		Priority:  s.Int("priority"),
		Core:      s.Int("core"),
	}
	if s.err != nil {
		return c, s.err
	}
	c.Blinkers, err = parseOutputs(blink, "led")
	if err != nil {
		return c, fmt.Errorf("blink: %w", err)
	}
	gg, err := parseOutputs(guarded, "led")
	if err != nil {
		return c, fmt.Errorf("guarded: %w", err)
	}
	if len(gg) != 1 {
		return c, fmt.Errorf("guarded: need exactly one output, got %d", len(gg))
	}
	g := gg[0]
	if !strings.Contains(guarded, "=") {
		g.Name = fmt.Sprintf("led%d", len(c.Blinkers)+1)
	}
	c.Guarded = gpioguard.GuardedConfig{
		ActuatorConfig: g,
		Timeout:        timeout,
	}
	name, pin, err := parseInput(button)
	if err != nil {
		return c, fmt.Errorf("button: %w", err)
	}
	active, err := parseActive(activeLevel)
	if err != nil {
		return c, err
	}
	c.Button = gpioguard.InputConfig{
		Name:       name,
		Pin:        pin,
		Poll:       poll,
		ActiveHigh: active,
	}
	return c, c.Validate()
}

// parseOutputs parses a list of [name=]pin@period.
//
// Unnamed outputs are named prefix1, prefix2 and so on by position.
func parseOutputs(s, prefix string) ([]gpioguard.ActuatorConfig, error) {
	aa := []gpioguard.ActuatorConfig(nil)
	if len(strings.TrimSpace(s)) == 0 {
		return aa, nil
	}
	for i, field := range strings.Split(s, ",") {
		name, rest := splitName(strings.TrimSpace(field))
		if len(name) == 0 {
			name = fmt.Sprintf("%s%d", prefix, i+1)
		}
		ps := strings.SplitN(rest, "@", 2)
		if len(ps) != 2 {
			return nil, fmt.Errorf("can't parse output '%s'", field)
		}
		pin, err := parsePin(ps[0])
		if err != nil {
			return nil, err
		}
		period, err := time.ParseDuration(ps[1])
		if err != nil {
			return nil, fmt.Errorf("can't parse period '%s'", ps[1])
		}
		aa = append(aa, gpioguard.ActuatorConfig{Name: name, Pin: pin, Period: period})
	}
	return aa, nil
}

// parseInput parses [name=]pin, with the name defaulting to button.
func parseInput(s string) (string, int, error) {
	name, rest := splitName(strings.TrimSpace(s))
	if len(name) == 0 {
		name = "button"
	}
	pin, err := parsePin(rest)
	return name, pin, err
}

func splitName(s string) (string, string) {
	if idx := strings.Index(s, "="); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return "", s
}

// parsePin accepts a line offset or a Raspberry Pi pin name.
func parsePin(s string) (int, error) {
	if o, err := strconv.ParseUint(s, 10, 64); err == nil {
		return int(o), nil
	}
	pin, err := rpi.Pin(s)
	if err != nil {
		return 0, fmt.Errorf("can't parse pin '%s'", s)
	}
	return pin, nil
}

func parseActive(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "low":
		return false, nil
	case "high":
		return true, nil
	}
	return false, fmt.Errorf("can't parse active level '%s'", s)
}
