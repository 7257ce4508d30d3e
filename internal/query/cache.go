// Package query is the data-synchronization core of the dashboard: a
// process-wide cache of keyed read operations with request
// coalescing, staleness and invalidation; mutation lifecycle tracking
// with declarative invalidation; and dirty-state tracking for
// settings edit buffers.
package query

import (
	"context"
	"sync"
	"time"
)

// Result is a point-in-time snapshot of a cache entry. Value holds
// the last confirmed server state even when Err is set
// (stale-while-error).
type Result struct {
	Value     any
	Err       error
	FetchedAt time.Time
}

type entry struct {
	value     any
	fetchedAt time.Time
	hasValue  bool
	err       error
	stale     bool
	refs      int
}

// inflight coalesces concurrent fetches for one key. The first caller
// executes; everyone else waits on done and shares the outcome.
type inflight struct {
	done chan struct{}
	val  any
	err  error
}

// FetchFunc performs the underlying read against the backend.
type FetchFunc func(ctx context.Context) (any, error)

// Cache is the process-wide query cache. It is created once at app
// start and handed to every consumer explicitly; all methods are safe
// for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]*entry
	inflight map[Key]*inflight

	now func() time.Time // test hook
}

func NewCache() *Cache {
	return &Cache{
		entries:  make(map[Key]*entry),
		inflight: make(map[Key]*inflight),
		now:      time.Now,
	}
}

// Fetch returns the cached value for key when it is present, not
// invalidated, and younger than maxAge (maxAge <= 0 means never stale
// by age — refetch only on explicit invalidation). Otherwise it runs
// fn, with concurrent callers for the same key coalesced onto a
// single execution. A failed fetch records the error but keeps any
// previously cached value.
func (c *Cache) Fetch(ctx context.Context, key Key, maxAge time.Duration, fn FetchFunc) (any, error) {
	c.mu.Lock()

	if e, ok := c.entries[key]; ok && e.hasValue && !e.stale && e.err == nil {
		if maxAge <= 0 || c.now().Sub(e.fetchedAt) < maxAge {
			v := e.value
			c.mu.Unlock()
			return v, nil
		}
	}

	if in, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-in.done:
			return in.val, in.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	in := &inflight{done: make(chan struct{})}
	c.inflight[key] = in
	c.mu.Unlock()

	val, err := fn(ctx)

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	if err == nil {
		e.value = val
		e.hasValue = true
		e.fetchedAt = c.now()
		e.err = nil
		e.stale = false
	} else {
		// Keep the last good value so views can still render it.
		e.err = err
	}
	delete(c.inflight, key)
	c.mu.Unlock()

	in.val = val
	in.err = err
	close(in.done)

	return val, err
}

// Peek returns the current snapshot for key without fetching.
func (c *Cache) Peek(key Key) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || (!e.hasValue && e.err == nil) {
		return Result{}, false
	}
	return Result{Value: e.value, Err: e.err, FetchedAt: e.fetchedAt}, true
}

// Invalidate marks every entry under prefix stale, evicting entries
// no consumer holds a reference to, and returns how many entries were
// affected. The next Fetch for a stale key goes to the network.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if !k.HasPrefix(prefix) {
			continue
		}
		n++
		if e.refs <= 0 {
			delete(c.entries, k)
		} else {
			e.stale = true
			e.err = nil
		}
	}
	return n
}

// Subscribe records an active consumer for key. Entries with live
// subscribers survive invalidation (marked stale instead of evicted).
func (c *Cache) Subscribe(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.refs++
}

// Unsubscribe releases a consumer's reference. When the last
// reference drops and the entry is stale, it is evicted.
func (c *Cache) Unsubscribe(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 && (e.stale || (!e.hasValue && e.err == nil)) {
		delete(c.entries, key)
	}
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// FetchAs is a typed wrapper around Cache.Fetch.
func FetchAs[T any](ctx context.Context, c *Cache, key Key, maxAge time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, maxAge, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		// Fall back to the last good value when one is cached.
		if r, ok := c.Peek(key); ok && r.Value != nil {
			if tv, ok := r.Value.(T); ok {
				return tv, err
			}
		}
		return zero, err
	}
	return v.(T), nil
}
