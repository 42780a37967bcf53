package questdb

import "time"

type Config struct {
	Enabled bool

	Address string
	Table   string

	// QueueSize is the number of samples buffered between
	// the pipeline and the sender. It is rounded up to a power of 2.
	QueueSize uint32

	AutoFlushRows int
	RetryTimeout  time.Duration
}

func NewDefaultConfig() *Config {
	return &Config{
		Enabled: false,

		Address: "localhost:9000",
		Table:   "bms_signals",

		QueueSize: 16_384,

		AutoFlushRows: 75_000,
		RetryTimeout:  time.Second,
	}
}
