package syncx

import "sync"

// Slot is a single-entry mailbox: Put overwrites whatever is pending, Take
// empties it. Ready is signalled (non-blocking, capacity 1) on every Put so a
// single consumer can sleep until there is work.
type Slot[T any] struct {
	mu      sync.Mutex
	value   T
	pending bool
	ready   chan struct{}
}

// NewSlot creates an empty slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{ready: make(chan struct{}, 1)}
}

// Put stores v, replacing any value not yet taken. It reports whether a
// pending value was dropped.
func (s *Slot[T]) Put(v T) (dropped bool) {
	s.mu.Lock()
	dropped = s.pending
	s.value = v
	s.pending = true
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
	return dropped
}

// Take returns the pending value, if any, and empties the slot.
func (s *Slot[T]) Take() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if !s.pending {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.pending = false
	return v, true
}

// Ready is signalled after Put.
func (s *Slot[T]) Ready() <-chan struct{} { return s.ready }
