// Package consumer defines the display targets fed by the pipeline.
//
// A consumer owns a fixed set of signal names. On every update it receives
// a composite snapshot built from the latest sample of each owned signal,
// so a partial update never produces a torn view.
package consumer

import (
	"fmt"

	"github.com/squadracorsepolito/bmsmon/history"
)

// Kind is the tag of a consumer variant.
type Kind uint8

const (
	// KindSegment is a segment tile.
	KindSegment Kind = iota
	// KindCell is a cell tile.
	KindCell
	// KindPack is the pack readout.
	KindPack
)

func (k Kind) String() string {
	switch k {
	case KindSegment:
		return "segment"
	case KindCell:
		return "cell"
	case KindPack:
		return "pack"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "segment":
		*k = KindSegment
	case "cell":
		*k = KindCell
	case "pack":
		*k = KindPack
	default:
		return fmt.Errorf("consumer: unknown kind %q", text)
	}
	return nil
}

// Reader gives read access to the latest sample of a signal.
// It is implemented by [history.Store].
type Reader interface {
	Latest(name string) (history.Sample, bool)
}

// Consumer is a display target bound to a fixed set of signal names.
type Consumer struct {
	kind    Kind
	key     string
	segment int
	cell    int
	signals []string
}

func newSegment(seg int) *Consumer {
	return &Consumer{
		kind:    KindSegment,
		key:     fmt.Sprintf("SEG_%d", seg),
		segment: seg,
		signals: []string{
			SegmentSignal(seg, SuffixICVoltage),
			SegmentSignal(seg, SuffixICTemp),
			SegmentSignal(seg, SuffixFault),
			SegmentSignal(seg, SuffixCommsError),
		},
	}
}

func newCell(seg, cell int) *Consumer {
	return &Consumer{
		kind:    KindCell,
		key:     fmt.Sprintf("CELL_%dx%d", seg, cell),
		segment: seg,
		cell:    cell,
		signals: []string{
			CellSignal(seg, cell, SuffixVoltage),
			CellSignal(seg, cell, SuffixVoltageDiff),
			CellSignal(seg, cell, SuffixTemp),
			CellSignal(seg, cell, SuffixFault),
			CellSignal(seg, cell, SuffixDischarging),
		},
	}
}

func newPack() *Consumer {
	return &Consumer{
		kind:    KindPack,
		key:     "PACK",
		signals: []string{PackVoltage, PackCurrent},
	}
}

// Kind returns the variant tag of the consumer.
func (c *Consumer) Kind() Kind { return c.kind }

// Key returns the unique key of the consumer, e.g. SEG_3 or CELL_2x7.
func (c *Consumer) Key() string { return c.key }

// Signals returns the names of the owned signals.
func (c *Consumer) Signals() []string {
	res := make([]string, len(c.signals))
	copy(res, c.signals)
	return res
}

// Snapshot reads the latest value of every owned signal.
// Signals that were never observed are reported as nil.
func (c *Consumer) Snapshot(r Reader) Snapshot {
	snap := Snapshot{
		Key:  c.key,
		Kind: c.kind,
	}

	var latest float64
	read := func(name string) *float64 {
		sample, ok := r.Latest(name)
		if !ok {
			return nil
		}
		if sample.Time > latest {
			latest = sample.Time
		}
		v := sample.Value
		return &v
	}

	switch c.kind {
	case KindSegment:
		snap.Segment = &SegmentState{
			Segment:    c.segment,
			Voltage:    read(c.signals[0]),
			Temp:       read(c.signals[1]),
			Fault:      flag(read(c.signals[2])),
			CommsError: flag(read(c.signals[3])),
		}

	case KindCell:
		snap.Cell = &CellState{
			Segment:     c.segment,
			Cell:        c.cell,
			Voltage:     read(c.signals[0]),
			VoltageDiff: read(c.signals[1]),
			Temp:        read(c.signals[2]),
			Fault:       flag(read(c.signals[3])),
			Discharging: flag(read(c.signals[4])),
		}

	case KindPack:
		snap.Pack = &PackState{
			Voltage: read(c.signals[0]),
			Current: read(c.signals[1]),
		}
	}

	snap.Time = latest
	return snap
}

func flag(v *float64) *bool {
	if v == nil {
		return nil
	}
	b := *v != 0
	return &b
}
