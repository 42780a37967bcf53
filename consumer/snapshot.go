package consumer

// Snapshot is the composite state of a consumer.
// Exactly one of Segment, Cell and Pack is set, according to Kind.
type Snapshot struct {
	Key  string `json:"key"`
	Kind Kind   `json:"kind"`
	// Time is the relative time of the most recent owned sample.
	Time float64 `json:"time"`

	Segment *SegmentState `json:"segment,omitempty"`
	Cell    *CellState    `json:"cell,omitempty"`
	Pack    *PackState    `json:"pack,omitempty"`
}

// SegmentState is the composite state of a segment tile.
type SegmentState struct {
	Segment    int      `json:"segment"`
	Voltage    *float64 `json:"voltage"`
	Temp       *float64 `json:"temp"`
	Fault      *bool    `json:"fault"`
	CommsError *bool    `json:"comms_error"`
}

// CellState is the composite state of a cell tile.
type CellState struct {
	Segment     int      `json:"segment"`
	Cell        int      `json:"cell"`
	Voltage     *float64 `json:"voltage"`
	VoltageDiff *float64 `json:"voltage_diff"`
	Temp        *float64 `json:"temp"`
	Fault       *bool    `json:"fault"`
	Discharging *bool    `json:"discharging"`
}

// PackState is the composite state of the pack readout.
type PackState struct {
	Voltage *float64 `json:"voltage"`
	Current *float64 `json:"current"`
}

// Sink receives the snapshots produced by the pipeline.
type Sink interface {
	Update(snap Snapshot)
}
