package pipeline

import (
	"time"

	"github.com/squadracorsepolito/bmsmon/history"
	"github.com/squadracorsepolito/bmsmon/unmatched"
)

// PlotView is the time-series view of the selected signal.
type PlotView struct {
	Signal      string           `json:"signal"`
	Unit        string           `json:"unit"`
	Description string           `json:"description"`
	Samples     []history.Sample `json:"samples"`
}

// PlotSink receives the plot view after every poll cycle
// that changed the selected signal.
type PlotSink interface {
	Refresh(view PlotView)
}

// Exporter receives every sample appended to the history.
// Export must not block.
type Exporter interface {
	Export(signal string, value float64, ts time.Time)
}

// Status is a summary of the pipeline state.
type Status struct {
	SessionID string    `json:"session_id,omitempty"`
	Connected bool      `json:"connected"`
	Paused    bool      `json:"paused"`
	Demo      bool      `json:"demo"`
	Selected  string    `json:"selected,omitempty"`
	Origin    time.Time `json:"origin,omitzero"`

	PendingFrames    int   `json:"pending_frames"`
	DroppedFrames    int64 `json:"dropped_frames"`
	ProcessedFrames  int64 `json:"processed_frames"`
	UnknownFrames    int64 `json:"unknown_frames"`
	DecodeErrors     int64 `json:"decode_errors"`
	AppendedSamples  int64 `json:"appended_samples"`
	UnmatchedEntries int   `json:"unmatched_entries"`
}

// UnmatchedView is a copy of the unmatched log.
type UnmatchedView struct {
	Entries []unmatched.Entry `json:"entries"`
	Lines   []string          `json:"lines"`
}
