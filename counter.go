package pitfall

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPollInterval = 10 * time.Millisecond
	DefaultWorkDuration = 100 * time.Millisecond
)

// LockTable tracks the request tokens currently holding the counter lock.
// It never holds more than one token: it is a binary lock keyed by token.
type LockTable struct {
	mu      sync.Mutex
	holders map[string]bool
}

func NewLockTable() *LockTable {
	return &LockTable{holders: make(map[string]bool)}
}

// TryAcquire claims the lock for token if the table is empty.
// The emptiness check and the insert happen in one critical section.
func (t *LockTable) TryAcquire(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.holders) > 0 {
		return false
	}
	t.holders[token] = true
	return true
}

// Release removes token from the table. Releasing a token that does not
// hold the lock is a no-op.
func (t *LockTable) Release(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.holders, token)
}

// Size returns the number of holders, which is always 0 or 1.
func (t *LockTable) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.holders)
}

// Held reports whether token currently holds the lock.
func (t *LockTable) Held(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.holders[token]
}

// WorkFunc is the step executed while the counter lock is held.
type WorkFunc func(ctx context.Context) error

// SleepWork returns a WorkFunc that waits for d.
func SleepWork(d time.Duration) WorkFunc {
	return func(ctx context.Context) error {
		if d <= 0 {
			return nil
		}
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// CounterConfig holds configuration options for Counter.
type CounterConfig struct {
	PollInterval time.Duration // Delay between lock polls (default: 10ms)
	WorkDuration time.Duration // Simulated work while holding the lock (default: 100ms)
	Work         WorkFunc      // Overrides WorkDuration when set
}

// Counter is a process-wide integer whose increments are serialized through
// a LockTable using a spin-wait.
type Counter struct {
	locks *LockTable
	value atomic.Int64
	poll  time.Duration
	work  WorkFunc
}

func NewCounter(cfg CounterConfig) *Counter {
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	work := cfg.Work
	if work == nil {
		d := cfg.WorkDuration
		if d == 0 {
			d = DefaultWorkDuration
		}
		work = SleepWork(d)
	}

	return &Counter{
		locks: NewLockTable(),
		poll:  poll,
		work:  work,
	}
}

// Locks exposes the lock table backing the counter.
func (c *Counter) Locks() *LockTable {
	return c.locks
}

// Value returns the current counter value.
func (c *Counter) Value() int64 {
	return c.value.Load()
}

// Increment acquires the lock, runs the work step, increments the counter
// and returns the new value.
//
// The protocol:
//  1. Generate a fresh token
//  2. Poll the lock table every PollInterval until TryAcquire succeeds
//  3. Run the work step while holding the lock
//  4. Increment the counter
//  5. Release the lock on every exit path
//
// ctx is only observed while waiting for the lock and by the work step.
// If the work step fails the counter is left unchanged and the lock is
// still released.
func (c *Counter) Increment(ctx context.Context) (int64, error) {
	token := uuid.NewString()

	if err := c.acquire(ctx, token); err != nil {
		return 0, fmt.Errorf("increment: %w", err)
	}
	defer c.locks.Release(token)

	if err := c.work(ctx); err != nil {
		return 0, fmt.Errorf("increment: work: %w", err)
	}

	return c.value.Add(1), nil
}

func (c *Counter) acquire(ctx context.Context, token string) error {
	if c.locks.TryAcquire(token) {
		return nil
	}

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.locks.TryAcquire(token) {
				return nil
			}
		}
	}
}
