// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package mockup_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/gpioguard"
	"github.com/warthog618/gpioguard/mockup"
)

func TestNew(t *testing.T) {
	m := mockup.New(6)
	require.NotNil(t, m)
	assert.Equal(t, 6, m.Lines())
	_, ok := m.Mode(3)
	assert.False(t, ok)
}

func TestOffsetRange(t *testing.T) {
	patterns := []struct {
		name   string
		offset int
		err    error
	}{
		{"negative", -2, mockup.ErrorIndexRange{-2, 3}},
		{"oorange", 4, mockup.ErrorIndexRange{4, 3}},
		{"limit", 3, mockup.ErrorIndexRange{3, 3}},
	}
	m := mockup.New(3)
	for _, p := range patterns {
		tf := func(t *testing.T) {
			err := m.Configure(p.offset, gpioguard.ModeOutput)
			assert.Equal(t, p.err, err)
			err = m.Write(p.offset, gpioguard.High)
			assert.Equal(t, p.err, err)
			v, err := m.Read(p.offset)
			assert.Equal(t, p.err, err)
			assert.Equal(t, gpioguard.Low, v)
			err = m.SetValue(p.offset, gpioguard.High)
			assert.Equal(t, p.err, err)
			assert.Nil(t, m.History(p.offset))
		}
		t.Run(p.name, tf)
	}
}

func TestWrite(t *testing.T) {
	m := mockup.New(3)

	// unconfigured
	err := m.Write(1, gpioguard.High)
	assert.Equal(t, mockup.ErrNotOutput, err)

	// input
	err = m.Configure(1, gpioguard.ModeInput)
	require.Nil(t, err)
	err = m.Write(1, gpioguard.High)
	assert.Equal(t, mockup.ErrNotOutput, err)

	// output
	err = m.Configure(1, gpioguard.ModeOutput)
	require.Nil(t, err)
	mode, ok := m.Mode(1)
	assert.True(t, ok)
	assert.Equal(t, gpioguard.ModeOutput, mode)
	start := time.Now()
	for _, l := range []gpioguard.Level{gpioguard.High, gpioguard.Low, gpioguard.Low, gpioguard.High} {
		err = m.Write(1, l)
		assert.Nil(t, err)
		v, err := m.Read(1)
		assert.Nil(t, err)
		assert.Equal(t, l, v)
		v, err = m.Value(1)
		assert.Nil(t, err)
		assert.Equal(t, l, v)
	}
	hh := m.History(1)
	require.Len(t, hh, 4)
	assert.Equal(t, gpioguard.High, hh[3].Level)
	assert.False(t, hh[0].Time.Before(start))
	// repeated low is not a change
	assert.Equal(t, 3, m.Changes(1, start, time.Now()))
	assert.Equal(t, 0, m.Changes(1, time.Now().Add(time.Second), time.Now().Add(2*time.Second)))
}

func TestRead(t *testing.T) {
	m := mockup.New(3)

	_, err := m.Read(0)
	assert.Equal(t, mockup.ErrNotConfigured, err)

	err = m.Configure(0, gpioguard.ModeInput)
	require.Nil(t, err)
	v, err := m.Read(0)
	assert.Nil(t, err)
	assert.Equal(t, gpioguard.Low, v)

	err = m.Configure(0, gpioguard.ModeInputPullUp)
	require.Nil(t, err)
	v, err = m.Read(0)
	assert.Nil(t, err)
	assert.Equal(t, gpioguard.High, v)

	err = m.SetValue(0, gpioguard.Low)
	require.Nil(t, err)
	v, err = m.Read(0)
	assert.Nil(t, err)
	assert.Equal(t, gpioguard.Low, v)

	err = m.Release(0)
	require.Nil(t, err)
	v, err = m.Read(0)
	assert.Nil(t, err)
	assert.Equal(t, gpioguard.High, v)
}

func TestInjectError(t *testing.T) {
	m := mockup.New(2)
	ierr := errors.New("injected")

	err := m.InjectError(0, ierr)
	require.Nil(t, err)
	err = m.Configure(0, gpioguard.ModeOutput)
	assert.Equal(t, ierr, err)
	_, err = m.Read(0)
	assert.Equal(t, ierr, err)

	// other lines unaffected
	err = m.Configure(1, gpioguard.ModeOutput)
	assert.Nil(t, err)

	err = m.InjectError(0, nil)
	require.Nil(t, err)
	err = m.Configure(0, gpioguard.ModeOutput)
	assert.Nil(t, err)

	err = m.InjectError(2, ierr)
	assert.Equal(t, mockup.ErrorIndexRange{2, 2}, err)
}
