// Package loader implements the per-request Batch Loader (spec.md §4.2,
// component C2): a queue+cache keyed by (table, column, value) used to
// eliminate N+1 relationship queries. One Loader is created per incoming
// GraphQL request and discarded at the end of it, the same lifecycle
// core/database_join.go gives its per-request join/preload bookkeeping.
package loader

import "sync"

// key identifies a batch slot: one column of one table.
type key struct {
	table  string
	column string
}

// Record is a single row keyed by its lookup column's value, stored as a
// map so callers can pull out whichever fields the selection set needs.
type Record map[string]interface{}

// Loader is shared across all resolvers of a single request. Concurrent
// field resolution is permitted (spec.md §5): every method here is safe
// for concurrent use.
type Loader struct {
	mu sync.Mutex

	pending   map[key]map[interface{}]struct{} // values queued, not yet drained
	records   map[key]map[interface{}]Record   // values already cached, forward (to-one) side
	lists     map[key]map[interface{}][]Record // values already cached, reverse (to-many) side
	processed map[string]struct{}              // relation slots whose batch has already been preloaded
}

// New creates an empty per-request Loader.
func New() *Loader {
	return &Loader{
		pending:   make(map[key]map[interface{}]struct{}),
		records:   make(map[key]map[interface{}]Record),
		lists:     make(map[key]map[interface{}][]Record),
		processed: make(map[string]struct{}),
	}
}

// Queue adds one value to the pending set for (table, column).
func (l *Loader) Queue(table, column string, value interface{}) {
	l.QueueMany(table, column, []interface{}{value})
}

// QueueMany adds many values to the pending set for (table, column).
func (l *Loader) QueueMany(table, column string, values []interface{}) {
	if len(values) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{table, column}
	set, ok := l.pending[k]
	if !ok {
		set = make(map[interface{}]struct{}, len(values))
		l.pending[k] = set
	}
	for _, v := range values {
		set[v] = struct{}{}
	}
}

// DrainPending returns the queued values for (table, column) that are not
// already cached, then empties the queue slot — a value queued twice or
// across goroutines is only ever fetched once.
func (l *Loader) DrainPending(table, column string) []interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{table, column}
	set := l.pending[k]
	delete(l.pending, k)
	if len(set) == 0 {
		return nil
	}

	cached := l.records[k]
	out := make([]interface{}, 0, len(set))
	for v := range set {
		if cached != nil {
			if _, ok := cached[v]; ok {
				continue
			}
		}
		out = append(out, v)
	}
	return out
}

// Cache indexes records by the value of column, making them retrievable
// via Lookup. A value not queued beforehand is still cacheable — Cache
// and Queue are independent, only Lookup ties them together.
func (l *Loader) Cache(table, column string, records []Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{table, column}
	m, ok := l.records[k]
	if !ok {
		m = make(map[interface{}]Record, len(records))
		l.records[k] = m
	}
	for _, r := range records {
		if v, ok := r[column]; ok {
			m[v] = r
		}
	}
}

// Lookup returns the cached record for (table, column, value), if any.
func (l *Loader) Lookup(table, column string, value interface{}) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.records[key{table, column}]
	if !ok {
		return nil, false
	}
	r, ok := m[value]
	return r, ok
}

// CacheMany groups records by the value of column, for the reverse
// (one-to-many) side of a relationship where several rows can share the
// same foreign-key value. Retrievable via LookupMany.
func (l *Loader) CacheMany(table, column string, records []Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key{table, column}
	m, ok := l.lists[k]
	if !ok {
		m = make(map[interface{}][]Record)
		l.lists[k] = m
	}
	for _, r := range records {
		if v, ok := r[column]; ok {
			m[v] = append(m[v], r)
		}
	}
}

// LookupMany returns the cached records for (table, column, value), if
// that slot has been preloaded. The bool distinguishes "preloaded, zero
// matches" from "never preloaded" so callers know whether to fall back to
// a one-off query.
func (l *Loader) LookupMany(table, column string, value interface{}) ([]Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.lists[key{table, column}]
	if !ok {
		return nil, false
	}
	// The slot exists once CacheMany has run for it, even if this
	// particular value matched zero rows: that is still a cache hit, not
	// a signal to fall back to a one-off query.
	return m[value], true
}

// MarkListProcessed mirrors MarkProcessed for a (table, column) relation
// slot rather than a whole table, since a table can have several distinct
// reverse relationships that must each be preloaded independently.
func (l *Loader) MarkListProcessed(table, column string) bool {
	return l.MarkProcessed(table + "." + column + "[]")
}

// MarkProcessed is an idempotent guard: it returns true the first time it
// is called for table within this request, and false on every later call,
// so a relationship expanded more than once in a selection tree (e.g. a
// self-referential or cyclic FK) is only preloaded once.
func (l *Loader) MarkProcessed(table string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, done := l.processed[table]; done {
		return false
	}
	l.processed[table] = struct{}{}
	return true
}

// Clear resets the loader for reuse at the end of a request. Loaders are
// normally discarded rather than reused, but Clear lets a pooled Loader
// (if the caller chooses to pool them) be recycled safely.
func (l *Loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending = make(map[key]map[interface{}]struct{})
	l.records = make(map[key]map[interface{}]Record)
	l.lists = make(map[key]map[interface{}][]Record)
	l.processed = make(map[string]struct{})
}
