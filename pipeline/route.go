package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/squadracorsepolito/bmsmon/catalog"
	"github.com/squadracorsepolito/bmsmon/frame"
	"github.com/squadracorsepolito/bmsmon/history"
)

type unitResolver interface {
	Unit(signalName string) (string, bool)
}

// processFrame decodes f and routes its values.
// A panic raised while handling the frame is returned as an error.
func (p *Pipeline) processFrame(st *State, f frame.Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing frame %s: %v", frame.FormatID(f.ID), r)
		}
	}()

	p.processedFrames.Add(1)

	rt := st.relativeTime(f.Timestamp)

	if _, ok := p.catalog.Resolve(f.ID); !ok {
		p.recordUnknown(st, f)
		return nil
	}

	values, err := p.catalog.Decode(f.ID, f.Data)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownID) {
			p.recordUnknown(st, f)
			return nil
		}
		return err
	}

	consumed := false
	for _, v := range values {
		if st.Registry.Has(v.Name) {
			consumed = true
			break
		}
	}

	if !consumed {
		st.Unmatched.Record(p.unmatchedText(f.ID, values), f.ID)
	}

	p.route(st, values, rt, f.Timestamp)

	return nil
}

func (p *Pipeline) recordUnknown(st *State, f frame.Frame) {
	p.unknownFrames.Add(1)
	st.Unmatched.Record("Unknown ID. Data: "+frame.HexBytes(f.Data), f.ID)
}

// route appends the values to the history and notifies their consumers.
func (p *Pipeline) route(st *State, values []catalog.Value, rt float64, ts time.Time) {
	for _, v := range values {
		if !st.History.Append(v.Name, history.Sample{Time: rt, Value: v.Value}) {
			continue
		}
		p.appendedSamples.Add(1)

		if p.exporter != nil {
			p.exporter.Export(v.Name, v.Value, ts)
		}

		if c, ok := st.Registry.Lookup(v.Name); ok && p.sink != nil {
			p.sink.Update(c.Snapshot(st.History))
			p.notifications.Add(1)
		}

		if v.Name == st.selected {
			st.plotDirty = true
		}
	}
}

func (p *Pipeline) unmatchedText(id uint32, values []catalog.Value) string {
	var sb strings.Builder

	if name, ok := p.catalog.MessageName(id); ok {
		sb.WriteString(name)
		sb.WriteByte(' ')
	}

	sb.WriteByte('{')
	for idx, v := range values {
		if idx > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.Name)
		sb.WriteString(": ")
		sb.WriteString(strconv.FormatFloat(v.Value, 'g', -1, 64))
	}
	sb.WriteByte('}')

	return sb.String()
}

func (p *Pipeline) reportFrameError(f frame.Frame, err error) {
	p.decodeErrors.Add(1)

	if !p.limiter.Allow() {
		p.suppressed++
		return
	}

	p.tel.LogError("failed to process frame", err,
		"can_id", frame.FormatID(f.ID), "data", frame.HexBytes(f.Data), "suppressed", p.suppressed)
	p.suppressed = 0
}

func (p *Pipeline) plotView(st *State) PlotView {
	view := PlotView{
		Signal: st.selected,
	}

	if st.selected == "" {
		return view
	}

	view.Description = catalog.Describe(st.selected)
	view.Samples = st.History.Last(st.selected, history.PlotWindow)

	if ur, ok := p.catalog.(unitResolver); ok {
		view.Unit, _ = ur.Unit(st.selected)
	}

	return view
}
