// Package frame defines the raw CAN frame moved from a frame source into the pipeline.
package frame

import (
	"fmt"
	"strings"
	"time"
)

// MaxDataLen is the maximum payload length of a classic CAN frame.
const MaxDataLen = 8

// Frame is a single raw CAN frame as produced by a frame source.
// It must not be modified once handed to a connector.
type Frame struct {
	ID        uint32
	Data      []byte
	Timestamp time.Time
}

// New returns a frame owning a copy of data.
func New(id uint32, data []byte, timestamp time.Time) Frame {
	buf := make([]byte, len(data))
	copy(buf, data)

	return Frame{
		ID:        id,
		Data:      buf,
		Timestamp: timestamp,
	}
}

// FormatID renders a CAN identifier as fixed-width hexadecimal.
func FormatID(id uint32) string {
	return fmt.Sprintf("0x%03X", id)
}

// HexBytes renders data as space separated upper-case byte pairs.
func HexBytes(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(data) * 3)

	for idx, b := range data {
		if idx > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}

	return sb.String()
}

func (f Frame) String() string {
	return fmt.Sprintf("%s -> ID: %s, DataLen: %d, Data: %s",
		f.Timestamp.Format(time.StampMilli), FormatID(f.ID), len(f.Data), HexBytes(f.Data))
}
