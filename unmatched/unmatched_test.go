package unmatched

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ids(entries []Entry) []uint32 {
	res := make([]uint32, 0, len(entries))
	for _, e := range entries {
		res = append(res, e.ID)
	}
	return res
}

func Test_Log_Dedup(t *testing.T) {
	assert := assert.New(t)

	l := NewLog(DefaultCap)
	l.Record("first", 0x10)
	l.Record("second", 0x20)
	l.Record("third", 0x10)
	l.Record("fourth", 0x30)

	entries := l.Entries()
	assert.Equal(3, l.Len())
	assert.Equal([]uint32{0x10, 0x20, 0x30}, ids(entries))
	assert.Equal("third", entries[0].Text)
}

func Test_Log_Eviction(t *testing.T) {
	assert := assert.New(t)

	l := NewLog(2)
	l.Record("a", 0x01)
	l.Record("b", 0x02)
	l.Record("c", 0x03)

	assert.Equal([]uint32{0x02, 0x03}, ids(l.Entries()))
	assert.False(l.Has(0x01))
}

func Test_Log_EvictionByInsertion(t *testing.T) {
	assert := assert.New(t)

	l := NewLog(2)
	l.Record("a", 0x01)
	l.Record("b", 0x02)
	// Updating 0x01 must not protect it from eviction
	l.Record("a2", 0x01)
	l.Record("c", 0x03)

	assert.Equal([]uint32{0x02, 0x03}, ids(l.Entries()))
}

func Test_Log_DefaultCap(t *testing.T) {
	assert := assert.New(t)

	l := NewLog(0)
	assert.Equal(DefaultCap, l.Cap())

	for i := range DefaultCap + 10 {
		l.Record("x", uint32(i))
	}

	entries := l.Entries()
	assert.Len(entries, DefaultCap)
	assert.Equal(uint32(10), entries[0].ID)
	assert.Equal(uint32(DefaultCap+9), entries[len(entries)-1].ID)
}

func Test_Entry_Line(t *testing.T) {
	e := Entry{
		ID:      0x1A0,
		Text:    "Unknown ID. Data: 01 02",
		Updated: time.Date(2024, 1, 2, 13, 4, 5, 123_000_000, time.UTC),
	}

	assert.Equal(t, "13:04:05.123 | ID: 0x1A0 | Unknown ID. Data: 01 02", e.Line())
}

func Benchmark_Log_Record(b *testing.B) {
	l := NewLog(DefaultCap)
	texts := make([]string, 1024)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}

	i := 0
	for b.Loop() {
		l.Record(texts[i%len(texts)], uint32(i%1024))
		i++
	}
}
