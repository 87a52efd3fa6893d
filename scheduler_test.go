// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package gpioguard_test

import (
	"bytes"
	"context"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/gpioguard"
)

// syncBuffer is a bytes.Buffer safe for use as a log output from tasks.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSchedulerSpawn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := gpioguard.NewScheduler(ctx)
	var fast, slow int32
	s.Spawn(gpioguard.TaskConfig{Name: "fast", Period: 5 * time.Millisecond, Core: -1},
		func() { atomic.AddInt32(&fast, 1) })
	s.Spawn(gpioguard.TaskConfig{Name: "slow", Period: 50 * time.Millisecond, Core: -1},
		func() { atomic.AddInt32(&slow, 1) })
	time.Sleep(120 * time.Millisecond)
	cancel()
	s.Wait()
	f := atomic.LoadInt32(&fast)
	sl := atomic.LoadInt32(&slow)
	assert.GreaterOrEqual(t, f, int32(5))
	assert.LessOrEqual(t, f, int32(30))
	assert.GreaterOrEqual(t, sl, int32(2))
	assert.LessOrEqual(t, sl, int32(4))

	// stopped
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, f, atomic.LoadInt32(&fast))

	tt := s.Tasks()
	require.Len(t, tt, 2)
	assert.Equal(t, "fast", tt[0].Name)
	assert.Equal(t, "slow", tt[1].Name)
}

func TestSchedulerRunsActionFirst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := gpioguard.NewScheduler(ctx)
	ran := make(chan struct{}, 1)
	s.Spawn(gpioguard.TaskConfig{Name: "once", Period: time.Hour, Core: -1},
		func() {
			select {
			case ran <- struct{}{}:
			default:
			}
		})
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("action not run on spawn")
	}
	cancel()
	s.Wait()
}

func TestSchedulerSpawnAfterDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := gpioguard.NewScheduler(ctx)
	var n int32
	s.Spawn(gpioguard.TaskConfig{Name: "late", Period: time.Millisecond, Core: -1},
		func() { atomic.AddInt32(&n, 1) })
	s.Wait()
	assert.Zero(t, atomic.LoadInt32(&n))
	assert.Empty(t, s.Tasks())
}

func TestSchedulerPanicIsolation(t *testing.T) {
	var buf syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	s := gpioguard.NewScheduler(ctx,
		gpioguard.WithLogger(log.New(&buf, "", 0)))
	var panics, healthy int32
	s.Spawn(gpioguard.TaskConfig{Name: "faulty", Period: 5 * time.Millisecond, Core: -1},
		func() {
			atomic.AddInt32(&panics, 1)
			panic("boom")
		})
	s.Spawn(gpioguard.TaskConfig{Name: "healthy", Period: 5 * time.Millisecond, Core: -1},
		func() { atomic.AddInt32(&healthy, 1) })
	time.Sleep(50 * time.Millisecond)
	cancel()
	s.Wait()
	// the faulty task keeps ticking, and the healthy task is unaffected.
	assert.Greater(t, atomic.LoadInt32(&panics), int32(1))
	assert.Greater(t, atomic.LoadInt32(&healthy), int32(1))
	assert.Contains(t, buf.String(), "faulty: recovered from panic: boom")
}

