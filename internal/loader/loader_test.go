package loader

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueDrainCacheLookup(t *testing.T) {
	l := New()

	l.Queue("customer", "customer_id", 1)
	l.QueueMany("customer", "customer_id", []interface{}{2, 3})

	pending := l.DrainPending("customer", "customer_id")
	assert.ElementsMatch(t, []interface{}{1, 2, 3}, pending)

	// draining again returns nothing: the queue slot was emptied.
	assert.Empty(t, l.DrainPending("customer", "customer_id"))

	l.Cache("customer", "customer_id", []Record{
		{"customer_id": 1, "first_name": "MARY"},
		{"customer_id": 2, "first_name": "JOHN"},
	})

	r, ok := l.Lookup("customer", "customer_id", 1)
	assert.True(t, ok)
	assert.Equal(t, "MARY", r["first_name"])

	_, ok = l.Lookup("customer", "customer_id", 99)
	assert.False(t, ok, "a value never queued or cached must not resolve")
}

func TestDrainPendingExcludesAlreadyCached(t *testing.T) {
	l := New()
	l.Cache("customer", "customer_id", []Record{{"customer_id": 1}})
	l.QueueMany("customer", "customer_id", []interface{}{1, 2})

	pending := l.DrainPending("customer", "customer_id")
	assert.ElementsMatch(t, []interface{}{2}, pending, "already-cached values are not re-fetched")
}

func TestMarkProcessedIdempotent(t *testing.T) {
	l := New()
	assert.True(t, l.MarkProcessed("address"))
	assert.False(t, l.MarkProcessed("address"), "second expansion in a cyclic selection must be suppressed")
	assert.True(t, l.MarkProcessed("customer"), "a different table is independent")
}

func TestConcurrentFieldResolution(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Queue("customer", "customer_id", i)
		}()
	}
	wg.Wait()

	pending := l.DrainPending("customer", "customer_id")
	assert.Len(t, pending, 50)
}

func TestClear(t *testing.T) {
	l := New()
	l.Queue("customer", "customer_id", 1)
	l.Cache("customer", "customer_id", []Record{{"customer_id": 1}})
	l.MarkProcessed("customer")

	l.Clear()

	assert.Empty(t, l.DrainPending("customer", "customer_id"))
	_, ok := l.Lookup("customer", "customer_id", 1)
	assert.False(t, ok)
	assert.True(t, l.MarkProcessed("customer"))
}
