package pipeline

import (
	"time"

	"github.com/squadracorsepolito/bmsmon/consumer"
	"github.com/squadracorsepolito/bmsmon/history"
	"github.com/squadracorsepolito/bmsmon/unmatched"
)

// State is the application state mutated by the pipeline.
// It is owned by the pipeline goroutine and never shared.
type State struct {
	History   *history.Store
	Unmatched *unmatched.Log
	Registry  *consumer.Registry

	origin    time.Time
	hasOrigin bool

	paused   bool
	demo     bool
	selected string

	plotDirty bool
	sessionID string
}

// NewState returns the state for the given signal names.
// Every name gets an empty history.
func NewState(signalNames []string, registry *consumer.Registry, unmatchedCap int) *State {
	return &State{
		History:   history.NewStore(signalNames),
		Unmatched: unmatched.NewLog(unmatchedCap),
		Registry:  registry,
	}
}

// relativeTime returns the seconds elapsed between the session origin and ts.
// The origin is set to ts if the session has none.
func (s *State) relativeTime(ts time.Time) float64 {
	if !s.hasOrigin {
		s.origin = ts
		s.hasOrigin = true
	}
	return ts.Sub(s.origin).Seconds()
}

func (s *State) resetOrigin() {
	s.origin = time.Time{}
	s.hasOrigin = false
}
