package rawlog

import (
	"strings"
	"testing"
	"time"

	"github.com/squadracorsepolito/bmsmon/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseLine(t *testing.T) {
	assert := assert.New(t)

	want := frame.New(0x18DAF110, []byte{0xde, 0xad, 0xbe, 0xef}, time.Unix(1_700_000_000, 123_456_000))

	line, err := ParseLine(strings.TrimSpace(string(AppendLine(nil, "can0", want))))
	require.NoError(t, err)

	assert.Equal("can0", line.Iface)
	assert.Equal(want.ID, line.Frame.ID)
	assert.Equal(want.Data, line.Frame.Data)
	assert.True(want.Timestamp.Equal(line.Frame.Timestamp))

	line, err = ParseLine("(12.5) vcan0 100#")
	require.NoError(t, err)
	assert.Empty(line.Frame.Data)
	assert.Equal(time.Unix(12, 500_000_000), line.Frame.Timestamp)
}

func Test_ParseLine_Malformed(t *testing.T) {
	assert := assert.New(t)

	for _, line := range []string{
		"",
		"(1.0) can0",
		"1.0 can0 100#01",
		"(x.0) can0 100#01",
		"(1.0) can0 100",
		"(1.0) can0 XYZ#01",
		"(1.0) can0 100#0",
		"(1.0) can0 100#010203040506070809",
	} {
		_, err := ParseLine(line)
		assert.Error(err, line)
	}
}

func Test_ReadLines(t *testing.T) {
	assert := assert.New(t)

	input := "(1.000000) can0 100#01\n\n(1.100000) can0 101#02\nbroken\n(1.200000) can0 102#03\n"

	var (
		ids  []uint32
		errs int
	)
	for line, err := range ReadLines(strings.NewReader(input)) {
		if err != nil {
			errs++
			continue
		}
		ids = append(ids, line.Frame.ID)
	}

	assert.Equal([]uint32{0x100, 0x101}, ids)
	assert.Equal(1, errs)
}
