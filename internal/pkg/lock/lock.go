// Package lock provides per-user locking for balance read-modify-write sequences.
package lock

import (
	"context"
	"sync"
	"time"
)

// userSlot is a one-slot semaphore shared by everyone holding or waiting for
// one user's lock. refs counts them; the slot is dropped when it reaches zero.
type userSlot struct {
	ch   chan struct{}
	refs int
}

// UserLock serializes operations per user ID. Each user gets a one-slot
// semaphore so acquisition can be abandoned on context cancellation.
type UserLock struct {
	mu    sync.Mutex
	slots map[int64]*userSlot
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{slots: make(map[int64]*userSlot)}
}

// ref returns the user's slot, counting the caller as a holder or waiter.
func (ul *UserLock) ref(userID int64) *userSlot {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	s, ok := ul.slots[userID]
	if !ok {
		s = &userSlot{ch: make(chan struct{}, 1)}
		ul.slots[userID] = s
	}
	s.refs++
	return s
}

func (ul *UserLock) unrefLocked(userID int64, s *userSlot) {
	s.refs--
	if s.refs == 0 {
		delete(ul.slots, userID)
	}
}

func (ul *UserLock) unref(userID int64, s *userSlot) {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	ul.unrefLocked(userID, s)
}

// Lock blocks until the user's lock is held.
func (ul *UserLock) Lock(userID int64) {
	ul.ref(userID).ch <- struct{}{}
}

// Unlock releases the user's lock. Unlocking a lock that is not held is a no-op.
func (ul *UserLock) Unlock(userID int64) {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	s, ok := ul.slots[userID]
	if !ok {
		return
	}
	select {
	case <-s.ch:
		ul.unrefLocked(userID, s)
	default:
	}
}

// TryLock acquires the lock only if it is free.
func (ul *UserLock) TryLock(userID int64) bool {
	s := ul.ref(userID)
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		ul.unref(userID, s)
		return false
	}
}

// LockContext waits for the lock until ctx is done or timeout elapses.
func (ul *UserLock) LockContext(ctx context.Context, userID int64, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s := ul.ref(userID)
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		ul.unref(userID, s)
		if ctx.Err() == context.DeadlineExceeded {
			return ErrLockTimeout
		}
		return ctx.Err()
	}
}

// WithLock runs fn while holding the user's lock.
func (ul *UserLock) WithLock(userID int64, fn func() error) error {
	ul.Lock(userID)
	defer ul.Unlock(userID)
	return fn()
}

// WithLockContext runs fn while holding the user's lock, giving up after timeout.
func (ul *UserLock) WithLockContext(ctx context.Context, userID int64, timeout time.Duration, fn func() error) error {
	if err := ul.LockContext(ctx, userID, timeout); err != nil {
		return err
	}
	defer ul.Unlock(userID)
	return fn()
}

// IsLocked reports whether the user's lock is currently held. The answer may be stale
// as soon as it is returned.
func (ul *UserLock) IsLocked(userID int64) bool {
	ul.mu.Lock()
	s, ok := ul.slots[userID]
	ul.mu.Unlock()
	return ok && len(s.ch) == 1
}

// tracked returns how many users currently have a slot.
func (ul *UserLock) tracked() int {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	return len(ul.slots)
}
