package memory

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/yndnr/keymesh/internal/core/domain"
	"github.com/yndnr/keymesh/pkg/cmap"
)

// slot is the per-key record: the live value and the key's waiter queue.
// A slot with neither is removed from the keyspace.
type slot struct {
	value   *domain.Value
	waiters waitQueue
}

func (sl *slot) empty() bool {
	return sl.value == nil && len(sl.waiters) == 0
}

// handOff wakes waiters when the slot holds a value they may want.
func (sl *slot) handOff() {
	if sl.value != nil && len(sl.waiters) > 0 {
		sl.waiters.notify()
	}
}

// Store is the concurrent keyspace.
//
// Commands go through View, Update and Await. Get, Put and Keys copy
// values in and out for callers that work outside a command. The waiter
// registry methods expose the queues Await drives, for callers that park
// on their own signal channel.
type Store struct {
	keys *cmap.Map[string, *slot]
	now  func() time.Time

	blocked atomic.Int64
	expired atomic.Uint64
}

// Option configures the Store.
type Option func(*storeOptions)

type storeOptions struct {
	shards int
	clock  func() time.Time
}

// WithShards sets the keyspace shard count. It must be a power of two.
func WithShards(n int) Option {
	return func(o *storeOptions) {
		o.shards = n
	}
}

// WithClock overrides the time source used for expiry and deadlines.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) {
		o.clock = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	o := storeOptions{
		shards: cmap.DefaultShardCount,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Store{
		keys: cmap.NewWithShards[string, *slot](o.shards),
		now:  o.clock,
	}
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// access runs fn on key's slot under the shard lock, after dropping an
// expired value. When write is set and the key ends up holding a value,
// parked waiters are notified.
func (s *Store) access(key string, write bool, fn func(sl *slot)) {
	s.keys.Compute(key, func(sl *slot, exists bool) (*slot, bool) {
		if !exists {
			sl = &slot{}
		}
		if sl.value != nil && sl.value.IsExpired(s.now()) {
			sl.value = nil
			s.expired.Add(1)
		}

		fn(sl)

		if write {
			sl.handOff()
		}
		return sl, !sl.empty()
	})
}

// Get returns a copy of the live value at key.
func (s *Store) Get(key string) (*domain.Value, bool) {
	var v *domain.Value
	s.access(key, false, func(sl *slot) {
		v = sl.value.Clone()
	})
	return v, v != nil
}

// Put stores v at key, replacing any previous value of any kind.
func (s *Store) Put(key string, v *domain.Value) {
	s.access(key, true, func(sl *slot) {
		sl.value = v
	})
}

// Delete removes key. It reports whether a live value was removed.
func (s *Store) Delete(key string) bool {
	removed := false
	s.access(key, false, func(sl *slot) {
		removed = sl.value != nil
		sl.value = nil
	})
	return removed
}

// ContainsKey reports whether key holds a live value.
func (s *Store) ContainsKey(key string) bool {
	found := false
	s.access(key, false, func(sl *slot) {
		found = sl.value != nil
	})
	return found
}

// View runs fn with the live value at key, or nil when absent.
// fn must not modify the value or retain it after returning.
func (s *Store) View(key string, fn func(cur *domain.Value) error) error {
	var err error
	s.access(key, false, func(sl *slot) {
		err = fn(sl.value)
	})
	return err
}

// Update runs fn with exclusive access to key.
//
// cur is the live value, or nil when the key is absent or expired. fn may
// mutate cur in place. The value fn returns is stored; nil deletes the key.
// When fn fails nothing is stored. Waiters on key are notified after every
// successful update that leaves a value behind.
func (s *Store) Update(key string, fn func(cur *domain.Value) (*domain.Value, error)) error {
	var err error
	s.access(key, true, func(sl *slot) {
		var next *domain.Value
		next, err = fn(sl.value)
		if err != nil {
			return
		}
		sl.value = next
	})
	return err
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	now := s.now()
	n := 0
	s.keys.Range(func(_ string, sl *slot) bool {
		if sl.value != nil && !sl.value.IsExpired(now) {
			n++
		}
		return true
	})
	return n
}

// Keys returns all live keys in no particular order.
func (s *Store) Keys() []string {
	now := s.now()
	keys := make([]string, 0)
	s.keys.Range(func(key string, sl *slot) bool {
		if sl.value != nil && !sl.value.IsExpired(now) {
			keys = append(keys, key)
		}
		return true
	})
	return keys
}

// Scan visits live keys starting at cursor and returns the next cursor,
// or 0 when the keyspace has been covered. count is a hint for how many
// keys to visit per call.
func (s *Store) Scan(cursor, count int, fn func(key string)) int {
	now := s.now()
	return s.keys.Scan(cursor, count, func(key string, sl *slot) {
		if sl.value != nil && !sl.value.IsExpired(now) {
			fn(key)
		}
	})
}

// Blocked returns the number of callers currently parked in Await.
func (s *Store) Blocked() int64 {
	return s.blocked.Load()
}

// ExpiredTotal returns how many values have been dropped by lazy expiry.
func (s *Store) ExpiredTotal() uint64 {
	return s.expired.Load()
}

// ============================================================================
// Waiter registry
// ============================================================================

// AddWaiter appends w to key's waiter queue. Adding the same waiter twice
// is a no-op.
func (s *Store) AddWaiter(key string, w *Waiter) {
	s.access(key, false, func(sl *slot) {
		sl.waiters = sl.waiters.add(w)
	})
}

// Waiters returns a snapshot of key's waiter queue in FIFO order.
func (s *Store) Waiters(key string) []*Waiter {
	var out []*Waiter
	s.access(key, false, func(sl *slot) {
		out = append(out, sl.waiters...)
	})
	return out
}

// NotifyWaiter wakes the head consumer and every observer parked on key.
// It returns the number of waiters that received a new signal.
func (s *Store) NotifyWaiter(key string) int {
	n := 0
	s.access(key, false, func(sl *slot) {
		n = sl.waiters.notify()
	})
	return n
}

// RemoveWaiter deregisters w from key. If key still holds a value, the
// next waiter is notified so a signal w absorbed is not lost.
func (s *Store) RemoveWaiter(key string, w *Waiter) {
	s.access(key, false, func(sl *slot) {
		sl.waiters = sl.waiters.remove(w)
		sl.handOff()
	})
}

// RemoveWaiterIfEmpty drops key's registry entry when it has neither a
// value nor waiters. It reports whether the entry is gone.
func (s *Store) RemoveWaiterIfEmpty(key string) bool {
	gone := true
	s.access(key, false, func(sl *slot) {
		gone = sl.empty()
	})
	return gone
}

// ============================================================================
// Blocking
// ============================================================================

// AttemptFunc is one check of a blocking command against one key.
//
// It runs under the key's lock with the live value (nil when absent). It
// returns the value to store (nil deletes, cur keeps it), whether the
// command is satisfied, and an error that aborts the wait.
type AttemptFunc func(key string, cur *domain.Value) (next *domain.Value, done bool, err error)

// Await repeatedly tries keys in order until an attempt reports done, the
// deadline passes, or ctx is canceled.
//
// In WaitConsume mode Await stops at the first satisfied key. In WaitObserve
// mode every key is tried in each pass and Await is done when any was.
// When nothing is satisfied the caller is registered on every key under the
// same lock as the check, so no write can slip in between. Await then
// parks without holding any lock and re-checks on every wake, including
// spurious ones, until the deadline.
//
// A zero deadline waits forever. Await returns (false, nil) on timeout and
// domain.ErrCanceled when ctx ends first.
func (s *Store) Await(ctx context.Context, keys []string, mode WaitMode, deadline time.Time, try AttemptFunc) (bool, error) {
	w := NewWaiter(mode)
	registered := make(map[string]bool, len(keys))
	defer func() {
		for key := range registered {
			s.RemoveWaiter(key, w)
		}
	}()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		done, err := s.attempt(keys, w, registered, try)
		if err != nil || done {
			return done, err
		}

		var timeout <-chan time.Time
		if !deadline.IsZero() {
			remaining := deadline.Sub(s.now())
			if remaining <= 0 {
				return false, nil
			}
			if timer == nil {
				timer = time.NewTimer(remaining)
			} else {
				timer.Reset(remaining)
			}
			timeout = timer.C
		}

		s.blocked.Add(1)
		select {
		case <-w.ch:
		case <-timeout:
		case <-ctx.Done():
			s.blocked.Add(-1)
			return false, domain.ErrCanceled.WithCause(ctx.Err())
		}
		s.blocked.Add(-1)
	}
}

// attempt runs one pass of try over keys, registering w on every key that
// was not satisfied.
func (s *Store) attempt(keys []string, w *Waiter, registered map[string]bool, try AttemptFunc) (bool, error) {
	satisfied := false
	for _, key := range keys {
		var (
			done bool
			err  error
		)
		s.access(key, false, func(sl *slot) {
			var next *domain.Value
			next, done, err = try(key, sl.value)
			if err != nil {
				return
			}
			if !done {
				sl.waiters = sl.waiters.add(w)
				registered[key] = true
				return
			}

			sl.value = next
			if registered[key] {
				sl.waiters = sl.waiters.remove(w)
				delete(registered, key)
			}
			// Hand data left over after a pop to the next waiter.
			sl.handOff()
		})
		if err != nil {
			return false, err
		}
		if done {
			satisfied = true
			if w.Mode == WaitConsume {
				return true, nil
			}
		}
	}
	return satisfied, nil
}
