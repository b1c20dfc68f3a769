package mutation

import (
	"context"
	"sync"
)

// Locks is a set of mutexes created on demand per key and dropped when no
// goroutine holds or waits for them. Controllers sharing one Locks exclude
// each other on equal keys.
type Locks struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocks creates an empty lock table.
func NewLocks() *Locks {
	return &Locks{slots: make(map[string]*slot)}
}

// lock blocks until key is free or ctx is done.
func (l *Locks) lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, ctx.Err()
	}

	return func() {
		<-s.ch
		l.release(key, s)
	}, nil
}

func (l *Locks) release(key string, s *slot) {
	l.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
	l.mu.Unlock()
}

func (l *Locks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
