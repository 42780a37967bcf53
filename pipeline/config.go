package pipeline

import (
	"time"

	"github.com/squadracorsepolito/bmsmon/demo"
	"github.com/squadracorsepolito/bmsmon/unmatched"
)

type Config struct {
	// PollInterval is the period of the poll cycle draining the relay.
	PollInterval time.Duration

	// UnmatchedCap is the number of entries retained by the unmatched log.
	UnmatchedCap int

	// DemoAtStart enables demo mode before any live connection.
	// A live connection turns it off.
	DemoAtStart bool
	Demo        *demo.Config

	// DecodeErrorLogRate is the number of decode failures logged per second.
	// The others are counted and reported with the next logged one.
	DecodeErrorLogRate  float64
	DecodeErrorLogBurst int
}

func NewDefaultConfig() *Config {
	return &Config{
		PollInterval: 100 * time.Millisecond,

		UnmatchedCap: unmatched.DefaultCap,

		DemoAtStart: true,
		Demo:        demo.NewDefaultConfig(),

		DecodeErrorLogRate:  1,
		DecodeErrorLogBurst: 5,
	}
}
