// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package serial_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warthog618/gpioguard"
	"github.com/warthog618/gpioguard/notify/serial"
)

type port struct {
	bytes.Buffer
	closed bool
}

func (p *port) Close() error {
	p.closed = true
	return nil
}

func TestConsole(t *testing.T) {
	p := &port{}
	c := serial.NewConsole(p)

	err := c.Banner("gpioguard starting")
	assert.Nil(t, err)
	c.Notify(gpioguard.Event{
		Kind:   gpioguard.Paused,
		Source: "button",
		Target: "led3",
		Time:   time.Now(),
	})
	c.Notify(gpioguard.Event{
		Kind:   gpioguard.Resumed,
		Source: "button",
		Target: "led3",
		Time:   time.Now(),
	})
	assert.Equal(t,
		"gpioguard starting\r\n"+
			"button pressed - led3 paused\r\n"+
			"button released - led3 resumed\r\n",
		p.String())

	err = c.Close()
	assert.Nil(t, err)
	assert.True(t, p.closed)
}

func TestOpenMissing(t *testing.T) {
	c, err := serial.Open("/dev/nonexistent-tty", 0)
	assert.NotNil(t, err)
	assert.Nil(t, c)
}
