// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package periph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/gpioguard"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func newTestDriver(format string) (*Driver, map[string]*gpiotest.Pin) {
	pins := map[string]*gpiotest.Pin{
		"GPIO4": {N: "GPIO4", Num: 4},
		"GPIO5": {N: "GPIO5", Num: 5},
		"P1_7":  {N: "P1_7", Num: 7},
	}
	lookup := func(name string) gpio.PinIO {
		if p, ok := pins[name]; ok {
			return p
		}
		return nil
	}
	return newDriver(format, lookup), pins
}

func TestConfigure(t *testing.T) {
	d, pins := newTestDriver("")
	assert.Equal(t, "GPIO%d", d.format)

	err := d.Configure(3, gpioguard.ModeOutput)
	assert.Equal(t, ErrNotFound{"GPIO3"}, err)

	err = d.Configure(4, gpioguard.ModeOutput)
	require.Nil(t, err)
	assert.Equal(t, gpio.Low, pins["GPIO4"].L)

	err = d.Configure(5, gpioguard.ModeInputPullUp)
	require.Nil(t, err)
	assert.Equal(t, gpio.PullUp, pins["GPIO5"].P)
}

func TestFormat(t *testing.T) {
	d, _ := newTestDriver("P1_%d")
	err := d.Configure(7, gpioguard.ModeInput)
	assert.Nil(t, err)
	err = d.Configure(4, gpioguard.ModeInput)
	assert.Equal(t, ErrNotFound{"P1_4"}, err)
}

func TestWriteRead(t *testing.T) {
	d, pins := newTestDriver("")

	err := d.Write(4, gpioguard.High)
	assert.NotNil(t, err)
	_, err = d.Read(4)
	assert.NotNil(t, err)

	err = d.Configure(4, gpioguard.ModeOutput)
	require.Nil(t, err)
	err = d.Write(4, gpioguard.High)
	assert.Nil(t, err)
	assert.Equal(t, gpio.High, pins["GPIO4"].L)
	l, err := d.Read(4)
	assert.Nil(t, err)
	assert.Equal(t, gpioguard.High, l)

	err = d.Write(4, gpioguard.Low)
	assert.Nil(t, err)
	l, err = d.Read(4)
	assert.Nil(t, err)
	assert.Equal(t, gpioguard.Low, l)

	err = d.Close()
	assert.Nil(t, err)
	assert.Equal(t, gpio.Float, pins["GPIO4"].P)
	err = d.Write(4, gpioguard.High)
	assert.NotNil(t, err)
}
