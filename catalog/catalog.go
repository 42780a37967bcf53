// Package catalog resolves CAN identifiers to message definitions
// and decodes frame payloads into physical signal values.
package catalog

import "errors"

var (
	// ErrUnknownID is returned when the identifier has no message definition.
	ErrUnknownID = errors.New("catalog: unknown identifier")
	// ErrDecode is returned when a payload cannot be decoded under a known definition.
	ErrDecode = errors.New("catalog: decode failure")
	// ErrDuplicateSignal is returned when two messages define a signal with the same name.
	ErrDuplicateSignal = errors.New("catalog: duplicate signal name")
)

// SignalDef describes a signal of the catalog.
type SignalDef struct {
	Name      string
	Unit      string
	MessageID uint32
}

// MessageDef describes a CAN message of the catalog.
type MessageDef struct {
	ID       uint32
	Name     string
	SizeByte int
	Signals  []SignalDef
}

// Value is a decoded physical value. Flags decode to 0 or 1
// and enums to their raw value.
type Value struct {
	Name  string
	Value float64
}

// Catalog is the read-only signal database consumed by the pipeline.
type Catalog interface {
	// Resolve returns the message definition of id.
	Resolve(id uint32) (*MessageDef, bool)
	// Decode decodes payload with the definition of id.
	// It returns an error wrapping ErrUnknownID or ErrDecode.
	Decode(id uint32, payload []byte) ([]Value, error)
	// MessageName returns the name of the message with the given id.
	MessageName(id uint32) (string, bool)
	// Signals returns every signal of the catalog.
	Signals() []SignalDef
}
