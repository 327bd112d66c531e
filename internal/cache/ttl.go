// Package cache implements the TTL Cache (spec.md §4.1, component C1): a
// time-bounded key→value store with single-flight compute-if-absent,
// backed by github.com/go-pkgz/expirable-cache the way core/cache.go
// wraps a third-party cache behind a small struct rather than hand-rolling
// LRU/TTL bookkeeping.
package cache

import (
	"sync"
	"time"

	expirable "github.com/go-pkgz/expirable-cache"
)

// Stats mirrors the spec's `stats()` operation.
type Stats struct {
	Hits, Misses, Added, Evicted int64
}

// inflight tracks a single producer call shared by every concurrent
// caller for the same key, the same role sync.Once plays for the
// teacher's per-subscription startup in core/subs.go.
type inflight struct {
	done  chan struct{}
	value interface{}
	err   error
	ok    bool
}

// TTLCache is a process-wide, key-scoped cache used by the golden schema
// (C4), per-role privileges (C5) and per-role compiled GraphQL schema
// (C7) lifecycles described in spec.md §3.3.
type TTLCache struct {
	ttl time.Duration
	c   expirable.Cache

	mu     sync.Mutex
	flight map[string]*inflight
}

// New builds a TTLCache with the given default TTL. Entries may still be
// given a shorter per-Put TTL via PutTTL.
func New(ttl time.Duration) (*TTLCache, error) {
	c, err := expirable.NewCache(expirable.TTL(ttl))
	if err != nil {
		return nil, err
	}
	return &TTLCache{
		ttl:    ttl,
		c:      c,
		flight: make(map[string]*inflight),
	}, nil
}

// Get returns the value for k, or ok=false if missing or expired.
// Expired entries are removed by the underlying cache on access, per
// spec.md §4.1.
func (t *TTLCache) Get(k string) (v interface{}, ok bool) {
	return t.c.Get(k)
}

// Put records value under k with a fresh deadline of now + TTL.
func (t *TTLCache) Put(k string, v interface{}) {
	t.c.Set(k, v, t.ttl)
}

// PutTTL records value under k with an explicit TTL override.
func (t *TTLCache) PutTTL(k string, v interface{}, ttl time.Duration) {
	t.c.Set(k, v, ttl)
}

// Remove evicts k immediately.
func (t *TTLCache) Remove(k string) {
	t.c.Invalidate(k)
}

// Clear evicts every entry.
func (t *TTLCache) Clear() {
	t.c.Purge()
}

// Size returns the number of live entries.
func (t *TTLCache) Size() int {
	return len(t.c.Keys())
}

// Stats reports cumulative hit/miss/added/evicted counters.
func (t *TTLCache) Stats() Stats {
	s := t.c.Stat()
	return Stats{Hits: int64(s.Hits), Misses: int64(s.Misses), Added: int64(s.Added), Evicted: int64(s.Evicted)}
}

// ErrNoValue is returned by a producer that does not want its result
// cached — the spec's "no-value sentinel" (spec.md §4.1).
var ErrNoValue = noValueSentinel{}

type noValueSentinel struct{}

func (noValueSentinel) Error() string { return "cache: producer yielded no value" }

// ComputeIfAbsent returns the cached value for k, or invokes producer
// exactly once among all concurrent callers for the same k (single-flight)
// and caches its result, unless producer returns ErrNoValue, in which
// case nothing is cached and ErrNoValue is not propagated to the caller
// (the caller receives a nil value and a nil error, and the next call for
// k invokes a producer again).
func (t *TTLCache) ComputeIfAbsent(k string, producer func() (interface{}, error)) (interface{}, error) {
	if v, ok := t.Get(k); ok {
		return v, nil
	}

	t.mu.Lock()
	f, inProgress := t.flight[k]
	if !inProgress {
		f = &inflight{done: make(chan struct{})}
		t.flight[k] = f
	}
	t.mu.Unlock()

	if inProgress {
		<-f.done
		if f.err != nil {
			return nil, f.err
		}
		return f.value, nil
	}

	v, err := producer()
	if err == nil && v != nil {
		f.value, f.ok = v, true
		t.Put(k, v)
	} else if err == ErrNoValue {
		err = nil
	} else {
		f.err = err
	}

	t.mu.Lock()
	delete(t.flight, k)
	t.mu.Unlock()
	close(f.done)

	return v, err
}
