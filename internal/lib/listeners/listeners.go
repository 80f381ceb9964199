// Package listeners keeps ordered subscriber sets for store state changes.
package listeners

import "sync"

type entry[T any] struct {
	id int
	fn func(T)
}

// Set is safe for concurrent use. Notify calls subscribers in registration
// order, outside the set's lock, so a subscriber may add or remove others.
type Set[T any] struct {
	mu      sync.Mutex
	next    int
	entries []entry[T]
}

// Add registers fn and returns a function removing it. Calling remove more
// than once is a no-op.
func (s *Set[T]) Add(fn func(T)) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.entries = append(s.entries, entry[T]{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.entries {
			if e.id == id {
				s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
				return
			}
		}
	}
}

func (s *Set[T]) Notify(v T) {
	s.mu.Lock()
	fns := make([]func(T), len(s.entries))
	for i, e := range s.entries {
		fns[i] = e.fn
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

func (s *Set[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Set[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
