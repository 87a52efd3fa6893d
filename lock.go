// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package gpioguard

import (
	"sync"
	"sync/atomic"
	"time"
)

// Lock is a binary lock shared between tasks.
//
// A Lock is released through the Token returned by a successful acquisition,
// so only the holder can release it. Waiters are not served in any particular
// order.
type Lock struct {
	// holds a value while the lock is held.
	sem chan struct{}

	// mutex covers owner and held, and the drain of sem on release.
	mu    sync.Mutex
	owner string
	held  bool

	acquisitions atomic.Uint64
	timeouts     atomic.Uint64
}

// LockStats contains counters for a Lock.
type LockStats struct {
	// The number of successful acquisitions.
	Acquisitions uint64

	// The number of TryAcquire calls that timed out.
	Timeouts uint64
}

// NewLock creates a free Lock.
func NewLock() *Lock {
	return &Lock{sem: make(chan struct{}, 1)}
}

// Acquire blocks until the lock is free and then takes ownership of it on
// behalf of owner.
func (l *Lock) Acquire(owner string) *Token {
	l.sem <- struct{}{}
	return l.grant(owner)
}

// TryAcquire attempts to take ownership of the lock within d.
//
// A d of zero or less makes a single attempt without blocking.
// On failure the lock is unchanged and the returned Token is nil.
func (l *Lock) TryAcquire(owner string, d time.Duration) (*Token, bool) {
	if d <= 0 {
		select {
		case l.sem <- struct{}{}:
			return l.grant(owner), true
		default:
			l.timeouts.Add(1)
			return nil, false
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case l.sem <- struct{}{}:
		return l.grant(owner), true
	case <-t.C:
		l.timeouts.Add(1)
		return nil, false
	}
}

// Owner returns the name of the current holder, and false if the lock is
// free.
//
// The lock is held from the return of an acquisition until the return of the
// release. A lock reported free may be part way through being granted to a
// waiter, so a subsequent TryAcquire can still fail.
func (l *Lock) Owner() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner, l.held
}

// Stats returns the acquisition counters for the lock.
func (l *Lock) Stats() LockStats {
	return LockStats{
		Acquisitions: l.acquisitions.Load(),
		Timeouts:     l.timeouts.Load(),
	}
}

func (l *Lock) grant(owner string) *Token {
	l.mu.Lock()
	l.owner = owner
	l.held = true
	l.mu.Unlock()
	l.acquisitions.Add(1)
	return &Token{l: l, owner: owner}
}

// Token is proof of ownership of a Lock.
//
// A Token must be released exactly once.
type Token struct {
	l        *Lock
	owner    string
	released atomic.Bool
}

// Owner returns the owner name the token was granted to.
func (t *Token) Owner() string {
	return t.owner
}

// Release frees the lock.
//
// Releasing a token more than once panics.
func (t *Token) Release() {
	if !t.released.CompareAndSwap(false, true) {
		panic("gpioguard: release of released token held by " + t.owner)
	}
	l := t.l
	l.mu.Lock()
	l.owner = ""
	l.held = false
	<-l.sem
	l.mu.Unlock()
}
