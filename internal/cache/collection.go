// Package cache holds the in-memory record collections the stores expose to
// readers. Every write publishes a new slice; a snapshot handed out by Items
// is never modified afterwards.
package cache

import (
	"sync"
	"sync/atomic"
)

// Collection is an ordered, copy-on-write sequence of records keyed by id.
type Collection[T any] struct {
	key   func(T) string
	items atomic.Pointer[[]T]
	// mu serializes writers; readers only load the pointer.
	mu sync.Mutex
}

// New creates an empty collection using key to identify records.
func New[T any](key func(T) string) *Collection[T] {
	c := &Collection[T]{key: key}
	empty := []T{}
	c.items.Store(&empty)
	return c
}

// Items returns the current snapshot. Callers must not modify it.
func (c *Collection[T]) Items() []T {
	return *c.items.Load()
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	return len(c.Items())
}

// Find returns the record with id.
func (c *Collection[T]) Find(id string) (T, bool) {
	for _, item := range c.Items() {
		if c.key(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Index returns the position of id, or -1.
func (c *Collection[T]) Index(id string) int {
	for i, item := range c.Items() {
		if c.key(item) == id {
			return i
		}
	}
	return -1
}

// Set replaces the whole sequence with a copy of items.
func (c *Collection[T]) Set(items []T) {
	next := make([]T, len(items))
	copy(next, items)

	c.mu.Lock()
	c.items.Store(&next)
	c.mu.Unlock()
}

// Append adds item at the end.
func (c *Collection[T]) Append(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := *c.items.Load()
	next := make([]T, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, item)
	c.items.Store(&next)
}

// Replace swaps the record with id for fn(record). It reports false, leaving
// the collection untouched, when id is absent.
func (c *Collection[T]) Replace(id string, fn func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := *c.items.Load()
	for i, item := range cur {
		if c.key(item) != id {
			continue
		}
		next := make([]T, len(cur))
		copy(next, cur)
		next[i] = fn(item)
		c.items.Store(&next)
		return true
	}
	return false
}

// Upsert replaces the record with the same id or appends item. The lookup and
// the write happen under one lock, so concurrent upserts of an id never
// append it twice.
func (c *Collection[T]) Upsert(item T) {
	id := c.key(item)

	c.mu.Lock()
	defer c.mu.Unlock()

	cur := *c.items.Load()
	next := make([]T, len(cur), len(cur)+1)
	copy(next, cur)
	for i := range next {
		if c.key(next[i]) == id {
			next[i] = item
			c.items.Store(&next)
			return
		}
	}
	next = append(next, item)
	c.items.Store(&next)
}

// Remove deletes the record with id and reports whether it existed.
func (c *Collection[T]) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := *c.items.Load()
	for i, item := range cur {
		if c.key(item) != id {
			continue
		}
		next := make([]T, 0, len(cur)-1)
		next = append(next, cur[:i]...)
		next = append(next, cur[i+1:]...)
		c.items.Store(&next)
		return true
	}
	return false
}

// Reset empties the collection.
func (c *Collection[T]) Reset() {
	c.Set(nil)
}
