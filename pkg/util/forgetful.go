package util

import (
	"context"
	"sync"
	"time"
)

type forgetfulEntry[V any] struct {
	value      V
	accessTime time.Time
}

// ForgetfulMap is a concurrent map whose entries expire after TTL without
// being read or written. Expired entries are dropped by Sweep, which Run
// calls periodically.
type ForgetfulMap[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[K]forgetfulEntry[V]
	now     func() time.Time
}

func NewForgetfulMap[K comparable, V any](ttl time.Duration) *ForgetfulMap[K, V] {
	return &ForgetfulMap[K, V]{
		ttl:     ttl,
		entries: make(map[K]forgetfulEntry[V]),
		now:     time.Now,
	}
}

// Get returns the value under key and refreshes its access time.
func (fm *ForgetfulMap[K, V]) Get(key K) (V, bool) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	e, ok := fm.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	e.accessTime = fm.now()
	fm.entries[key] = e
	return e.value, true
}

// GetOrCreate returns the value under key, storing create() first when the
// key is absent.
func (fm *ForgetfulMap[K, V]) GetOrCreate(key K, create func() V) V {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	e, ok := fm.entries[key]
	if !ok {
		e.value = create()
	}
	e.accessTime = fm.now()
	fm.entries[key] = e
	return e.value
}

func (fm *ForgetfulMap[K, V]) Set(key K, value V) {
	fm.mu.Lock()
	fm.entries[key] = forgetfulEntry[V]{value: value, accessTime: fm.now()}
	fm.mu.Unlock()
}

func (fm *ForgetfulMap[K, V]) Delete(key K) {
	fm.mu.Lock()
	delete(fm.entries, key)
	fm.mu.Unlock()
}

func (fm *ForgetfulMap[K, V]) Len() int {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return len(fm.entries)
}

// Sweep removes entries idle for longer than the TTL and reports how many
// were removed.
func (fm *ForgetfulMap[K, V]) Sweep() int {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	removed := 0
	now := fm.now()
	for k, e := range fm.entries {
		if now.Sub(e.accessTime) > fm.ttl {
			delete(fm.entries, k)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (fm *ForgetfulMap[K, V]) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fm.Sweep()
		}
	}
}
