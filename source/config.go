package source

import "time"

type Config struct {
	Kind string

	// Interface is the SocketCAN interface, or the name
	// reported in the raw log for the other kinds.
	Interface string
	// Filters restricts SocketCAN reads to the given identifiers.
	Filters     []uint32
	ReadTimeout time.Duration

	// Cannelloni listening address.
	IPAddr string
	Port   uint16
}

const (
	// DefaultReadTimeout is the period at which a blocked SocketCAN read
	// wakes up to observe the context.
	DefaultReadTimeout = 200 * time.Millisecond

	minReadTimeout = time.Millisecond
)

func NewDefaultConfig() *Config {
	return &Config{
		Kind: string(KindSocketCAN),

		Interface:   "can0",
		ReadTimeout: DefaultReadTimeout,

		IPAddr: "127.0.0.1",
		Port:   20_000,
	}
}

// socketReadTimeout returns the receive timeout of the socket.
// A zero timeval blocks forever, so the timeout is never below a millisecond.
func socketReadTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultReadTimeout
	}
	return max(d, minReadTimeout)
}
