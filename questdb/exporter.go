// Package questdb exports the decoded samples to QuestDB.
package questdb

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	qdb "github.com/questdb/go-questdb-client/v3"
	"github.com/squadracorsepolito/bmsmon/connector"
	"github.com/squadracorsepolito/bmsmon/internal"
)

type sample struct {
	signal string
	value  float64
	ts     time.Time
}

// Exporter writes every exported sample as a row of the configured table.
// Export never blocks: when the queue is full the sample is dropped.
type Exporter struct {
	tel *internal.Telemetry

	cfg *Config

	queue *connector.RingBuffer[sample]

	senderPool *qdb.LineSenderPool
	sender     qdb.LineSender

	deliver func(ctx context.Context, s sample) error

	wg sync.WaitGroup

	// Telemetry metrics
	insertedRows  atomic.Int64
	droppedRows   atomic.Int64
	failedInserts atomic.Int64
}

func NewExporter(cfg *Config) *Exporter {
	e := &Exporter{
		tel: internal.NewTelemetry("egress", "questdb"),

		cfg: cfg,

		queue: connector.NewRingBuffer[sample](cfg.QueueSize),
	}

	e.deliver = e.deliverRow

	return e
}

func (e *Exporter) initMetrics() {
	e.tel.NewCounter("inserted_rows", func() int64 { return e.insertedRows.Load() })
	e.tel.NewCounter("dropped_rows", func() int64 { return e.droppedRows.Load() })
	e.tel.NewCounter("failed_inserts", func() int64 { return e.failedInserts.Load() })
	e.tel.NewGauge("queued_rows", func() int64 { return int64(e.queue.Len()) })
}

// Init connects to QuestDB.
func (e *Exporter) Init(ctx context.Context) error {
	senderPool, err := qdb.PoolFromOptions(
		qdb.WithAddress(e.cfg.Address),
		qdb.WithHttp(),
		qdb.WithAutoFlushRows(e.cfg.AutoFlushRows),
		qdb.WithRetryTimeout(e.cfg.RetryTimeout),
	)
	if err != nil {
		return err
	}
	e.senderPool = senderPool

	sender, err := senderPool.Sender(ctx)
	if err != nil {
		senderPool.Close(ctx)
		return err
	}
	e.sender = sender

	e.initMetrics()

	return nil
}

// Export queues a sample.
func (e *Exporter) Export(signal string, value float64, ts time.Time) {
	if err := e.queue.TryWrite(sample{signal: signal, value: value, ts: ts}); err != nil {
		e.droppedRows.Add(1)
	}
}

// Start spawns the goroutine delivering the queued samples
// until the exporter is closed.
func (e *Exporter) Start(ctx context.Context) {
	e.wg.Add(1)

	go func() {
		defer e.wg.Done()
		e.run(ctx)
	}()
}

func (e *Exporter) run(ctx context.Context) {
	for {
		s, err := e.queue.Read()
		if err != nil {
			if errors.Is(err, connector.ErrClosed) {
				return
			}
			continue
		}

		if err := e.deliver(ctx, s); err != nil {
			e.failedInserts.Add(1)
			e.tel.LogError("failed to insert row", err, "signal", s.signal)
			continue
		}

		e.insertedRows.Add(1)
	}
}

func (e *Exporter) deliverRow(ctx context.Context, s sample) error {
	return e.sender.Table(e.cfg.Table).
		Symbol("signal", s.signal).
		Float64Column("value", s.value).
		At(ctx, s.ts)
}

// Close stops accepting samples, waits for the queued ones to be delivered
// and releases the sender.
func (e *Exporter) Close(ctx context.Context) {
	e.queue.Close()
	e.wg.Wait()

	if e.sender != nil {
		if err := e.sender.Close(ctx); err != nil {
			e.tel.LogError("failed to close sender", err)
		}
	}

	if e.senderPool != nil {
		if err := e.senderPool.Close(ctx); err != nil {
			e.tel.LogError("failed to close sender pool", err)
		}
	}
}
