// Package unmatched keeps the log of frames that no consumer is interested in.
package unmatched

import (
	"fmt"
	"time"

	"github.com/squadracorsepolito/bmsmon/frame"
)

// DefaultCap is the default number of retained entries.
const DefaultCap = 500

// Entry is the last text recorded for an identifier.
type Entry struct {
	ID      uint32    `json:"id"`
	Text    string    `json:"text"`
	Updated time.Time `json:"updated"`
}

// Line renders the entry as a single log line.
func (e Entry) Line() string {
	return fmt.Sprintf("%s | ID: %s | %s", e.Updated.Format("15:04:05.000"), frame.FormatID(e.ID), e.Text)
}

// Log retains at most one entry per identifier, up to a fixed cap.
// Entries keep their insertion position when updated and the oldest
// inserted entry is evicted first.
//
// It is not safe for concurrent use.
type Log struct {
	cap   int
	order []*Entry
	byID  map[uint32]*Entry

	now func() time.Time
}

// NewLog returns a log retaining up to capacity entries.
// A non positive capacity falls back to [DefaultCap].
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCap
	}

	return &Log{
		cap:   capacity,
		order: make([]*Entry, 0, capacity),
		byID:  make(map[uint32]*Entry, capacity),
		now:   time.Now,
	}
}

// Record stores text under id.
func (l *Log) Record(text string, id uint32) {
	now := l.now()

	if e, ok := l.byID[id]; ok {
		e.Text = text
		e.Updated = now
		return
	}

	if len(l.order) >= l.cap {
		oldest := l.order[0]
		delete(l.byID, oldest.ID)

		copy(l.order, l.order[1:])
		l.order[len(l.order)-1] = nil
		l.order = l.order[:len(l.order)-1]
	}

	e := &Entry{ID: id, Text: text, Updated: now}
	l.order = append(l.order, e)
	l.byID[id] = e
}

// Has reports whether id has an entry.
func (l *Log) Has(id uint32) bool {
	_, ok := l.byID[id]
	return ok
}

// Entries returns a copy of the entries in insertion order.
func (l *Log) Entries() []Entry {
	entries := make([]Entry, len(l.order))
	for idx, e := range l.order {
		entries[idx] = *e
	}
	return entries
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	return len(l.order)
}

// Cap returns the maximum number of retained entries.
func (l *Log) Cap() int {
	return l.cap
}
