package consumer

import "fmt"

const (
	// Segments is the number of segments of the pack.
	Segments = 7
	// CellsPerSegment is the number of cells of a segment.
	CellsPerSegment = 16
)

// Signal name suffixes of segments and cells.
const (
	SuffixICVoltage   = "IC_Voltage"
	SuffixICTemp      = "IC_Temp"
	SuffixCommsError  = "isCommsError"
	SuffixFault       = "isFaultDetected"
	SuffixVoltage     = "Voltage"
	SuffixVoltageDiff = "VoltageDiff"
	SuffixTemp        = "Temp"
	SuffixDischarging = "isDischarging"
)

// Pack level signal names.
const (
	PackVoltage = "BMS_Pack_Voltage"
	PackCurrent = "BMS_Pack_Current"
)

// SegmentSignal returns the name of a segment signal.
// Segments are numbered from 1.
func SegmentSignal(seg int, suffix string) string {
	return fmt.Sprintf("SEG_%d_%s", seg, suffix)
}

// CellSignal returns the name of a cell signal.
// Segments and cells are numbered from 1.
func CellSignal(seg, cell int, suffix string) string {
	return fmt.Sprintf("CELL_%dx%d_%s", seg, cell, suffix)
}

// Registry maps signal names to the consumer owning them.
// It is read-only after construction.
type Registry struct {
	consumers []*Consumer
	bySignal  map[string]*Consumer
	byKey     map[string]*Consumer
}

// NewRegistry returns the registry of the fixed pack layout:
// every segment, every cell and the pack readout.
func NewRegistry() *Registry {
	consumers := make([]*Consumer, 0, Segments+Segments*CellsPerSegment+1)

	for seg := 1; seg <= Segments; seg++ {
		consumers = append(consumers, newSegment(seg))
	}

	for seg := 1; seg <= Segments; seg++ {
		for cell := 1; cell <= CellsPerSegment; cell++ {
			consumers = append(consumers, newCell(seg, cell))
		}
	}

	consumers = append(consumers, newPack())

	r := &Registry{
		consumers: consumers,
		bySignal:  make(map[string]*Consumer),
		byKey:     make(map[string]*Consumer, len(consumers)),
	}

	for _, c := range consumers {
		r.byKey[c.key] = c
		for _, sig := range c.signals {
			r.bySignal[sig] = c
		}
	}

	return r
}

// Lookup returns the consumer owning the named signal.
func (r *Registry) Lookup(signalName string) (*Consumer, bool) {
	c, ok := r.bySignal[signalName]
	return c, ok
}

// Has reports whether some consumer owns the named signal.
func (r *Registry) Has(signalName string) bool {
	_, ok := r.bySignal[signalName]
	return ok
}

// Consumer returns the consumer with the given key.
func (r *Registry) Consumer(key string) (*Consumer, bool) {
	c, ok := r.byKey[key]
	return c, ok
}

// Consumers returns every consumer in layout order.
func (r *Registry) Consumers() []*Consumer {
	res := make([]*Consumer, len(r.consumers))
	copy(res, r.consumers)
	return res
}

// SignalNames returns every signal owned by a consumer in layout order.
func (r *Registry) SignalNames() []string {
	names := make([]string, 0, len(r.bySignal))
	for _, c := range r.consumers {
		names = append(names, c.signals...)
	}
	return names
}
