// Package debounce provides a table of cancellable timers keyed by an
// arbitrary comparable key, e.g. a (day, field) pair.
package debounce

import (
	"sync"
	"time"
)

// Table holds at most one pending timer per key. Scheduling a key always
// cancels the key's previous timer first, so only the last call within the
// delay window fires.
type Table[K comparable] struct {
	mu      sync.Mutex
	timers  map[K]*entry
	next    uint64
	stopped bool
}

type entry struct {
	timer *time.Timer
	seq   uint64
}

// New returns an empty table.
func New[K comparable]() *Table[K] {
	return &Table[K]{timers: make(map[K]*entry)}
}

// Schedule runs fn after d unless key is scheduled again or cancelled first.
// fn runs on its own goroutine.
func (t *Table[K]) Schedule(key K, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if prev, ok := t.timers[key]; ok {
		prev.timer.Stop()
	}
	t.next++
	e := &entry{seq: t.next}
	e.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		cur, ok := t.timers[key]
		if !ok || cur.seq != e.seq {
			// Stop raced with expiry and lost; the key has moved on.
			t.mu.Unlock()
			return
		}
		delete(t.timers, key)
		t.mu.Unlock()
		fn()
	})
	t.timers[key] = e
}

// Cancel stops key's pending timer, if any. It reports whether one was pending.
func (t *Table[K]) Cancel(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.timers[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(t.timers, key)
	return true
}

// CancelFunc stops every pending timer whose key satisfies match.
func (t *Table[K]) CancelFunc(match func(K) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, e := range t.timers {
		if match(k) {
			e.timer.Stop()
			delete(t.timers, k)
		}
	}
}

// Pending reports whether key has a timer waiting to fire.
func (t *Table[K]) Pending(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.timers[key]
	return ok
}

// Stop cancels everything and makes later Schedule calls no-ops.
func (t *Table[K]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, e := range t.timers {
		e.timer.Stop()
		delete(t.timers, k)
	}
	t.stopped = true
}
