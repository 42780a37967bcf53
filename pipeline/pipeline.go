// Package pipeline implements the decode and route pipeline.
//
// A single goroutine, the one calling [Pipeline.Run], owns the pipeline
// state. Frames reach it through a [connector.Relay] drained on every poll
// cycle, while operator commands and read views are executed on the same
// goroutine, so the history is never read while half updated.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/squadracorsepolito/bmsmon/catalog"
	"github.com/squadracorsepolito/bmsmon/connector"
	"github.com/squadracorsepolito/bmsmon/consumer"
	"github.com/squadracorsepolito/bmsmon/demo"
	"github.com/squadracorsepolito/bmsmon/frame"
	"github.com/squadracorsepolito/bmsmon/internal"
	"golang.org/x/time/rate"
)

var (
	// ErrConnected is returned when demo mode is toggled while a live source is connected.
	ErrConnected = errors.New("pipeline: live source connected")
	// ErrUnknownSignal is returned when a command names a signal without history.
	ErrUnknownSignal = errors.New("pipeline: unknown signal")
)

type command struct {
	fn   func(*State)
	done chan struct{}
}

type Pipeline struct {
	tel *internal.Telemetry

	cfg *Config

	catalog catalog.Catalog
	relay   *connector.Relay[frame.Frame]
	sink    consumer.Sink

	plot     PlotSink
	exporter Exporter

	state *State
	gen   *demo.Generator
	now   func() time.Time

	connected atomic.Bool

	runMx   sync.Mutex
	running bool
	stopCh  chan struct{}
	cmdCh   chan command

	limiter    *rate.Limiter
	suppressed int

	// Telemetry metrics
	processedFrames atomic.Int64
	unknownFrames   atomic.Int64
	decodeErrors    atomic.Int64
	appendedSamples atomic.Int64
	notifications   atomic.Int64
	demoTicks       atomic.Int64
}

// New returns a pipeline decoding the frames of relay with cat
// and notifying sink of every consumer update.
func New(cat catalog.Catalog, relay *connector.Relay[frame.Frame], sink consumer.Sink, cfg *Config) *Pipeline {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if cfg.Demo == nil {
		cfg.Demo = demo.NewDefaultConfig()
	}

	signals := cat.Signals()
	names := make([]string, 0, len(signals))
	for _, sig := range signals {
		names = append(names, sig.Name)
	}

	state := NewState(names, consumer.NewRegistry(), cfg.UnmatchedCap)
	state.demo = cfg.DemoAtStart

	p := &Pipeline{
		tel: internal.NewTelemetry("pipeline", "decode-route"),

		cfg: cfg,

		catalog: cat,
		relay:   relay,
		sink:    sink,

		state: state,
		gen:   demo.NewGenerator(cfg.Demo.Seed),
		now:   time.Now,

		cmdCh: make(chan command),

		limiter: rate.NewLimiter(rate.Limit(cfg.DecodeErrorLogRate), cfg.DecodeErrorLogBurst),
	}

	p.initMetrics()

	return p
}

func (p *Pipeline) initMetrics() {
	p.tel.NewCounter("processed_frames", func() int64 { return p.processedFrames.Load() })
	p.tel.NewCounter("unknown_frames", func() int64 { return p.unknownFrames.Load() })
	p.tel.NewCounter("decode_errors", func() int64 { return p.decodeErrors.Load() })
	p.tel.NewCounter("appended_samples", func() int64 { return p.appendedSamples.Load() })
	p.tel.NewCounter("notifications", func() int64 { return p.notifications.Load() })
	p.tel.NewCounter("demo_ticks", func() int64 { return p.demoTicks.Load() })
	p.tel.NewCounter("dropped_frames", func() int64 { return p.relay.Dropped() })
	p.tel.NewGauge("pending_frames", func() int64 { return int64(p.relay.Len()) })
}

// SetPlotSink sets the sink refreshed when the selected signal changes.
// It must be called before Run.
func (p *Pipeline) SetPlotSink(plot PlotSink) {
	p.plot = plot
}

// SetExporter sets the exporter of the appended samples.
// It must be called before Run.
func (p *Pipeline) SetExporter(exporter Exporter) {
	p.exporter = exporter
}

// Run drives the poll cycle and the demo generator until ctx is done.
func (p *Pipeline) Run(ctx context.Context) {
	p.runMx.Lock()
	p.running = true
	stopCh := make(chan struct{})
	p.stopCh = stopCh
	p.runMx.Unlock()

	defer func() {
		p.runMx.Lock()
		p.running = false
		close(stopCh)
		p.runMx.Unlock()
	}()

	pollTicker := time.NewTicker(p.cfg.PollInterval)
	defer pollTicker.Stop()

	demoTicker := time.NewTicker(p.cfg.Demo.Interval)
	defer demoTicker.Stop()

	p.tel.LogInfo("running", "poll_interval", p.cfg.PollInterval, "demo_interval", p.cfg.Demo.Interval)

	for {
		select {
		case <-ctx.Done():
			p.tel.LogInfo("stopped")
			return

		case cmd := <-p.cmdCh:
			cmd.fn(p.state)
			close(cmd.done)

		case <-pollTicker.C:
			p.Cycle(ctx)

		case <-demoTicker.C:
			p.DemoTick(ctx)
		}
	}
}

// exec runs fn on the goroutine owning the state.
// When the pipeline is not running fn is executed by the caller.
func (p *Pipeline) exec(ctx context.Context, fn func(*State)) error {
	for {
		p.runMx.Lock()
		if !p.running {
			fn(p.state)
			p.runMx.Unlock()
			return nil
		}
		stopCh := p.stopCh
		p.runMx.Unlock()

		cmd := command{fn: fn, done: make(chan struct{})}

		select {
		case p.cmdCh <- cmd:
		case <-stopCh:
			continue
		case <-ctx.Done():
			return ctx.Err()
		}

		<-cmd.done
		return nil
	}
}

// Cycle runs a single poll cycle.
// It must only be called by the goroutine owning the pipeline.
func (p *Pipeline) Cycle(ctx context.Context) {
	st := p.state

	if st.paused {
		return
	}

	frames := p.relay.DrainAll()
	if len(frames) > 0 {
		_, span := p.tel.NewTrace(ctx, "process frame batch")

		for _, f := range frames {
			if err := p.processFrame(st, f); err != nil {
				p.reportFrameError(f, err)
			}
		}

		span.End()
	}

	p.refreshPlot(st)
}

// DemoTick generates a round of demo values if demo mode is enabled.
// It must only be called by the goroutine owning the pipeline.
func (p *Pipeline) DemoTick(ctx context.Context) {
	st := p.state

	if !st.demo {
		return
	}

	if p.connected.Load() {
		st.demo = false
		p.tel.LogInfo("demo mode stopped by live connection")
		return
	}

	if st.paused {
		return
	}

	_, span := p.tel.NewTrace(ctx, "generate demo values")
	defer span.End()

	now := p.now()
	rt := st.relativeTime(now)
	p.route(st, p.gen.Generate(rt), rt, now)
	p.demoTicks.Add(1)

	p.refreshPlot(st)
}

func (p *Pipeline) refreshPlot(st *State) {
	if !st.plotDirty {
		return
	}
	st.plotDirty = false

	if p.plot != nil {
		p.plot.Refresh(p.plotView(st))
	}
}
