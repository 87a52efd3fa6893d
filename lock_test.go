// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package gpioguard_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/gpioguard"
)

func TestLockAcquire(t *testing.T) {
	l := gpioguard.NewLock()
	owner, held := l.Owner()
	assert.False(t, held)
	assert.Equal(t, "", owner)

	tok := l.Acquire("alpha")
	require.NotNil(t, tok)
	assert.Equal(t, "alpha", tok.Owner())
	owner, held = l.Owner()
	assert.True(t, held)
	assert.Equal(t, "alpha", owner)

	tok.Release()
	owner, held = l.Owner()
	assert.False(t, held)
	assert.Equal(t, "", owner)

	// reacquire
	tok = l.Acquire("beta")
	owner, _ = l.Owner()
	assert.Equal(t, "beta", owner)
	tok.Release()
	assert.Equal(t, uint64(2), l.Stats().Acquisitions)
}

func TestLockTryAcquire(t *testing.T) {
	l := gpioguard.NewLock()

	// free
	tok, ok := l.TryAcquire("alpha", 10*time.Millisecond)
	require.True(t, ok)
	require.NotNil(t, tok)

	// held
	start := time.Now()
	tok2, ok := l.TryAcquire("beta", 10*time.Millisecond)
	assert.False(t, ok)
	assert.Nil(t, tok2)
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(10*time.Millisecond))
	owner, held := l.Owner()
	assert.True(t, held)
	assert.Equal(t, "alpha", owner)

	// non-blocking
	tok2, ok = l.TryAcquire("beta", 0)
	assert.False(t, ok)
	assert.Nil(t, tok2)
	assert.Equal(t, uint64(2), l.Stats().Timeouts)

	// released while waiting
	go func() {
		time.Sleep(5 * time.Millisecond)
		tok.Release()
	}()
	tok2, ok = l.TryAcquire("beta", time.Second)
	require.True(t, ok)
	owner, _ = l.Owner()
	assert.Equal(t, "beta", owner)
	tok2.Release()

	tok, ok = l.TryAcquire("gamma", 0)
	require.True(t, ok)
	tok.Release()
	assert.Equal(t, gpioguard.LockStats{Acquisitions: 3, Timeouts: 2}, l.Stats())
}

func TestLockAcquireBlocks(t *testing.T) {
	l := gpioguard.NewLock()
	tok := l.Acquire("alpha")
	acquired := make(chan *gpioguard.Token)
	go func() {
		acquired <- l.Acquire("beta")
	}()
	select {
	case <-acquired:
		t.Fatal("acquired held lock")
	case <-time.After(20 * time.Millisecond):
	}
	tok.Release()
	select {
	case tok = <-acquired:
		assert.Equal(t, "beta", tok.Owner())
		tok.Release()
	case <-time.After(time.Second):
		t.Fatal("failed to acquire released lock")
	}
}

func TestTokenDoubleRelease(t *testing.T) {
	l := gpioguard.NewLock()
	tok := l.Acquire("alpha")
	tok.Release()
	assert.Panics(t, tok.Release)

	// a stale token can't release a lock held by another
	tok2 := l.Acquire("beta")
	assert.Panics(t, tok.Release)
	owner, held := l.Owner()
	assert.True(t, held)
	assert.Equal(t, "beta", owner)
	tok2.Release()
}

func TestLockMutualExclusion(t *testing.T) {
	l := gpioguard.NewLock()
	var inside int32
	var violations int32
	var wg sync.WaitGroup
	critical := func() {
		if atomic.AddInt32(&inside, 1) != 1 {
			atomic.AddInt32(&violations, 1)
		}
		time.Sleep(10 * time.Microsecond)
		atomic.AddInt32(&inside, -1)
	}
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				tok := l.Acquire("blocking")
				critical()
				tok.Release()
			}
		}()
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				if tok, ok := l.TryAcquire("bounded", time.Millisecond); ok {
					critical()
					tok.Release()
				}
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, violations)
	_, held := l.Owner()
	assert.False(t, held)
}

func TestLockOwnerTracksHolder(t *testing.T) {
	l := gpioguard.NewLock()
	var wg sync.WaitGroup
	var mismatches int32
	done := make(chan struct{})
	for _, name := range []string{"alpha", "beta", "gamma"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for n := 0; n < 200; n++ {
				tok := l.Acquire(name)
				if owner, held := l.Owner(); !held || owner != name {
					atomic.AddInt32(&mismatches, 1)
				}
				tok.Release()
			}
		}(name)
	}
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			if owner, held := l.Owner(); held {
				if owner == "" {
					atomic.AddInt32(&mismatches, 1)
				}
			}
		}
	}()
	wg.Wait()
	close(done)
	assert.Zero(t, atomic.LoadInt32(&mismatches))

	// free once released, so an immediate attempt succeeds
	for n := 0; n < 100; n++ {
		tok := l.Acquire("alpha")
		tok.Release()
		_, held := l.Owner()
		require.False(t, held)
		tok, ok := l.TryAcquire("beta", 0)
		require.True(t, ok)
		tok.Release()
	}
	assert.Zero(t, l.Stats().Timeouts)
}
