package pipeline

import (
	"context"
	"fmt"

	"github.com/squadracorsepolito/bmsmon/consumer"
	"github.com/squadracorsepolito/bmsmon/history"
)

// ConnectionStatusID is the identifier under which connection events
// are recorded in the unmatched log.
const ConnectionStatusID uint32 = 0x000

// Connected marks the start of a live session.
// Demo mode is stopped, every history is emptied and the relative time
// origin is reset, so the first live frame becomes the new origin.
func (p *Pipeline) Connected(ctx context.Context, sessionID string) error {
	p.connected.Store(true)

	return p.exec(ctx, func(st *State) {
		st.resetOrigin()
		st.History.ClearAll()
		st.sessionID = sessionID

		if p.sink != nil {
			for _, c := range st.Registry.Consumers() {
				p.sink.Update(c.Snapshot(st.History))
			}
		}

		if st.selected != "" {
			st.plotDirty = true
			p.refreshPlot(st)
		}

		if st.demo {
			st.demo = false
			p.tel.LogInfo("demo mode stopped by live connection")
		}

		st.Unmatched.Record("Successfully connected to CAN bus.", ConnectionStatusID)
		p.tel.LogInfo("live session started", "session_id", sessionID)
	})
}

// ConnectFailed records the failure of a live connection attempt.
// The pipeline keeps running and demo mode stays available.
func (p *Pipeline) ConnectFailed(ctx context.Context, connErr error) error {
	p.tel.LogError("failed to connect to CAN bus", connErr)

	return p.exec(ctx, func(st *State) {
		st.Unmatched.Record(fmt.Sprintf("Error initializing CAN: %v", connErr), ConnectionStatusID)
	})
}

// Disconnected marks the end of the live session.
func (p *Pipeline) Disconnected(ctx context.Context) error {
	p.connected.Store(false)

	return p.exec(ctx, func(st *State) {
		st.sessionID = ""
		p.tel.LogInfo("live session ended")
	})
}

// IsConnected reports whether a live source is connected.
func (p *Pipeline) IsConnected() bool {
	return p.connected.Load()
}

// TogglePause flips the paused flag and returns the new value.
func (p *Pipeline) TogglePause(ctx context.Context) (bool, error) {
	var paused bool
	err := p.exec(ctx, func(st *State) {
		st.paused = !st.paused
		paused = st.paused
	})
	return paused, err
}

// SetPaused sets the paused flag.
func (p *Pipeline) SetPaused(ctx context.Context, paused bool) error {
	return p.exec(ctx, func(st *State) {
		st.paused = paused
	})
}

// ToggleDemo flips demo mode and returns the new value.
// It returns [ErrConnected] while a live source is connected.
func (p *Pipeline) ToggleDemo(ctx context.Context) (bool, error) {
	var (
		on      bool
		demoErr error
	)

	err := p.exec(ctx, func(st *State) {
		if p.connected.Load() {
			demoErr = ErrConnected
			return
		}
		st.demo = !st.demo
		on = st.demo
	})
	if err != nil {
		return false, err
	}

	return on, demoErr
}

// SetDemo enables or disables demo mode.
// It returns [ErrConnected] while a live source is connected.
func (p *Pipeline) SetDemo(ctx context.Context, on bool) error {
	var demoErr error

	err := p.exec(ctx, func(st *State) {
		if p.connected.Load() {
			demoErr = ErrConnected
			return
		}
		st.demo = on
	})
	if err != nil {
		return err
	}

	return demoErr
}

// SelectSignal selects the signal shown by the plot view and refreshes it.
// An empty name clears the selection.
func (p *Pipeline) SelectSignal(ctx context.Context, name string) error {
	var selErr error

	err := p.exec(ctx, func(st *State) {
		if name != "" && !st.History.Has(name) {
			selErr = fmt.Errorf("%w: %s", ErrUnknownSignal, name)
			return
		}

		st.selected = name
		st.plotDirty = true
		p.refreshPlot(st)
	})
	if err != nil {
		return err
	}

	return selErr
}

// ClearSelected empties the history of the selected signal.
func (p *Pipeline) ClearSelected(ctx context.Context) error {
	return p.exec(ctx, func(st *State) {
		if st.selected == "" {
			return
		}

		st.History.Clear(st.selected)
		st.plotDirty = true
		p.refreshPlot(st)
	})
}

// ClearSignal empties the history of the named signal.
func (p *Pipeline) ClearSignal(ctx context.Context, name string) error {
	var clearErr error

	err := p.exec(ctx, func(st *State) {
		if !st.History.Clear(name) {
			clearErr = fmt.Errorf("%w: %s", ErrUnknownSignal, name)
			return
		}

		if name == st.selected {
			st.plotDirty = true
			p.refreshPlot(st)
		}
	})
	if err != nil {
		return err
	}

	return clearErr
}

// Snapshot returns the composite state of the consumer with the given key.
func (p *Pipeline) Snapshot(ctx context.Context, key string) (consumer.Snapshot, bool, error) {
	var (
		snap consumer.Snapshot
		ok   bool
	)

	err := p.exec(ctx, func(st *State) {
		c, found := st.Registry.Consumer(key)
		if !found {
			return
		}
		snap = c.Snapshot(st.History)
		ok = true
	})

	return snap, ok, err
}

// PlotView returns the current plot view.
func (p *Pipeline) PlotView(ctx context.Context) (PlotView, error) {
	var view PlotView
	err := p.exec(ctx, func(st *State) {
		view = p.plotView(st)
	})
	return view, err
}

// History returns the last n samples of the named signal.
// A non positive n returns the whole series.
func (p *Pipeline) History(ctx context.Context, name string, n int) ([]history.Sample, error) {
	var (
		samples []history.Sample
		histErr error
	)

	err := p.exec(ctx, func(st *State) {
		if !st.History.Has(name) {
			histErr = fmt.Errorf("%w: %s", ErrUnknownSignal, name)
			return
		}
		samples = st.History.Last(name, n)
	})
	if err != nil {
		return nil, err
	}

	return samples, histErr
}

// Unmatched returns a copy of the unmatched log.
func (p *Pipeline) Unmatched(ctx context.Context) (UnmatchedView, error) {
	var view UnmatchedView

	err := p.exec(ctx, func(st *State) {
		view.Entries = st.Unmatched.Entries()
		view.Lines = make([]string, 0, len(view.Entries))
		for _, e := range view.Entries {
			view.Lines = append(view.Lines, e.Line())
		}
	})

	return view, err
}

// Status returns a summary of the pipeline.
func (p *Pipeline) Status(ctx context.Context) (Status, error) {
	var status Status

	err := p.exec(ctx, func(st *State) {
		status = Status{
			SessionID: st.sessionID,
			Connected: p.connected.Load(),
			Paused:    st.paused,
			Demo:      st.demo,
			Selected:  st.selected,
			Origin:    st.origin,

			PendingFrames:    p.relay.Len(),
			DroppedFrames:    p.relay.Dropped(),
			ProcessedFrames:  p.processedFrames.Load(),
			UnknownFrames:    p.unknownFrames.Load(),
			DecodeErrors:     p.decodeErrors.Load(),
			AppendedSamples:  p.appendedSamples.Load(),
			UnmatchedEntries: st.Unmatched.Len(),
		}
	})

	return status, err
}
