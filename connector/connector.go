// Package connector contains the structures used to move items
// between two execution contexts.
package connector

import "errors"

var (
	// ErrClosed is returned when writing into, or reading from, a closed connector.
	ErrClosed = errors.New("connector: closed")
	// ErrFull is returned by non-blocking writes when there is no free slot.
	ErrFull = errors.New("connector: full")
)

// Connector is the producer side of a hand-off between two execution contexts.
type Connector[T any] interface {
	Write(item T) error
	Close()
}
