package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_New_CopiesData(t *testing.T) {
	assert := assert.New(t)

	data := []byte{0x01, 0x02}
	f := New(0x10, data, time.Now())

	data[0] = 0xFF
	assert.Equal(byte(0x01), f.Data[0])
	assert.Equal(uint32(0x10), f.ID)
}

func Test_FormatID(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("0x000", FormatID(0))
	assert.Equal("0x010", FormatID(0x10))
	assert.Equal("0x7FF", FormatID(0x7ff))
	assert.Equal("0x18FA1900", FormatID(0x18FA1900))
}

func Test_HexBytes(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("", HexBytes(nil))
	assert.Equal("0A", HexBytes([]byte{0x0a}))
	assert.Equal("01 02 FF", HexBytes([]byte{0x01, 0x02, 0xff}))
}
