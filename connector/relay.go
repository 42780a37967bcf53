package connector

import (
	"sync"
	"sync/atomic"
)

var _ Connector[int] = (*Relay[int])(nil)

// Relay is a multi-producer, single-consumer queue that never blocks the producer.
// The consumer empties it in one shot with [Relay.DrainAll].
//
// With maxPending equal to 0 the relay is unbounded: items accumulate for as
// long as the consumer does not drain. With maxPending greater than 0 the relay
// keeps at most maxPending items and drops the oldest one to make room.
type Relay[T any] struct {
	mux   sync.Mutex
	items []T

	maxPending int
	closed     bool

	written atomic.Int64
	dropped atomic.Int64
}

// NewRelay returns an empty [Relay].
func NewRelay[T any](maxPending int) *Relay[T] {
	if maxPending < 0 {
		maxPending = 0
	}

	return &Relay[T]{
		maxPending: maxPending,
	}
}

// Write enqueues item. It returns [ErrClosed] if the relay is closed.
func (r *Relay[T]) Write(item T) error {
	r.mux.Lock()
	defer r.mux.Unlock()

	if r.closed {
		return ErrClosed
	}

	if r.maxPending > 0 && len(r.items) >= r.maxPending {
		var zero T
		r.items[0] = zero
		r.items = r.items[1:]
		r.dropped.Add(1)
	}

	r.items = append(r.items, item)
	r.written.Add(1)

	return nil
}

// DrainAll returns every pending item in arrival order and leaves the relay empty.
// It returns nil when there is nothing to drain.
func (r *Relay[T]) DrainAll() []T {
	r.mux.Lock()
	defer r.mux.Unlock()

	if len(r.items) == 0 {
		return nil
	}

	items := r.items
	r.items = nil

	return items
}

// Len returns the number of pending items.
func (r *Relay[T]) Len() int {
	r.mux.Lock()
	defer r.mux.Unlock()

	return len(r.items)
}

// Written returns the number of accepted writes.
func (r *Relay[T]) Written() int64 {
	return r.written.Load()
}

// Dropped returns the number of items evicted because the relay was full.
func (r *Relay[T]) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting writes. Pending items can still be drained.
func (r *Relay[T]) Close() {
	r.mux.Lock()
	r.closed = true
	r.mux.Unlock()
}
