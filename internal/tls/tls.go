// Package tls implements per-goroutine storage with a typed handle
// allowing scoped swap for batch mode. Go has no native thread-locals,
// so this keys a map by goroutine id via github.com/petermattis/goid.
package tls

import (
	"sync"

	"github.com/petermattis/goid"
)

// Slot is a typed per-goroutine storage cell. internal/simplify
// instantiates one Slot[*simplify.State] package-scoped variable; no
// other component needs the mechanism, so it is generic rather than
// simplify-specific to avoid that one caller reaching into unexported
// map internals.
type Slot[T any] struct {
	mu     sync.Mutex
	values map[int64]T
	zero   T
}

// NewSlot creates an empty per-goroutine slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{values: make(map[int64]T)}
}

// Get returns the value stored for the calling goroutine, or the zero
// value and false if none was ever set.
func (s *Slot[T]) Get() (T, bool) {
	gid := goid.Get()
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[gid]
	if !ok {
		return s.zero, false
	}
	return v, true
}

// Set stores v for the calling goroutine.
func (s *Slot[T]) Set(v T) {
	gid := goid.Get()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[gid] = v
}

// Swap stores newVal for the calling goroutine and returns whatever was
// previously stored (the zero value if nothing was), in one locked
// step.
func (s *Slot[T]) Swap(newVal T) T {
	gid := goid.Get()
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.values[gid]
	s.values[gid] = newVal
	return old
}

// Clear removes the calling goroutine's stored value entirely, leaving
// no entry at all (as opposed to swapping in a fresh zero value, which
// would still count as "set").
func (s *Slot[T]) Clear() {
	gid := goid.Get()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, gid)
}
