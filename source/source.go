// Package source provides the live frame sources of the monitor.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/squadracorsepolito/bmsmon/connector"
	"github.com/squadracorsepolito/bmsmon/frame"
)

var (
	// ErrUnsupported is returned when the source kind is not available on this platform.
	ErrUnsupported = errors.New("source: unsupported on this platform")
	// ErrDisabled is returned when no live source is configured.
	ErrDisabled = errors.New("source: disabled")
)

// Kind selects the live transport.
type Kind string

const (
	KindNone       Kind = "none"
	KindSocketCAN  Kind = "socketcan"
	KindCannelloni Kind = "cannelloni"
)

// Source produces the frames of a live bus.
type Source interface {
	// Name returns the interface name reported in the raw log.
	Name() string
	// Run reads frames and writes them into out until ctx is done
	// or the transport fails.
	Run(ctx context.Context, out connector.Connector[frame.Frame]) error
	// Close releases the transport.
	Close() error
}

// Open opens the source described by cfg.
func Open(cfg *Config) (Source, error) {
	switch Kind(cfg.Kind) {
	case KindSocketCAN:
		src, err := openSocketCAN(cfg.Interface, cfg.Filters, cfg.ReadTimeout)
		if err != nil {
			return nil, err
		}
		return src, nil

	case KindCannelloni:
		src, err := openCannelloni(cfg.IPAddr, cfg.Port, cfg.Interface)
		if err != nil {
			return nil, err
		}
		return src, nil

	case KindNone, "":
		return nil, ErrDisabled
	}

	return nil, fmt.Errorf("source: unknown kind %q", cfg.Kind)
}

// Session describes a live connection.
type Session struct {
	ID      string
	Source  string
	Started time.Time
}

// NewSession returns a session for the given source with a fresh id.
func NewSession(src Source) *Session {
	return &Session{
		ID:      uuid.NewString(),
		Source:  src.Name(),
		Started: time.Now(),
	}
}

// Recorder receives a copy of every frame read from a source.
type Recorder interface {
	Record(f frame.Frame) error
}

type tap struct {
	out connector.Connector[frame.Frame]
	rec Recorder

	onErr func(error)
}

// Tap returns a connector recording every frame with rec before writing it into out.
// Recording errors are passed to onErr and never stop the frame.
func Tap(out connector.Connector[frame.Frame], rec Recorder, onErr func(error)) connector.Connector[frame.Frame] {
	return &tap{out: out, rec: rec, onErr: onErr}
}

func (t *tap) Write(f frame.Frame) error {
	if err := t.rec.Record(f); err != nil && t.onErr != nil {
		t.onErr(err)
	}
	return t.out.Write(f)
}

func (t *tap) Close() {
	t.out.Close()
}
