package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Cannelloni_EncodeDecode(t *testing.T) {
	assert := assert.New(t)

	p := newCannelloniPacket(7)
	p.addFrame(0x100, []byte{1, 2, 3})
	p.addFrame(0x1A0, nil)
	p.Frames = append(p.Frames, cannelloniFrame{CANID: 0x200, FDFlags: 0x04, Data: []byte{9, 8}})

	decoded, err := decodeCannelloniPacket(p.encode())
	require.NoError(t, err)

	assert.Equal(uint8(cannelloniVersion), decoded.Version)
	assert.Equal(uint8(7), decoded.SequenceNumber)
	require.Len(t, decoded.Frames, 3)

	assert.Equal(uint32(0x100), decoded.Frames[0].CANID)
	assert.Equal([]byte{1, 2, 3}, decoded.Frames[0].Data)
	assert.Empty(decoded.Frames[1].Data)
	assert.Equal(uint8(0x04), decoded.Frames[2].FDFlags)
	assert.Equal([]byte{9, 8}, decoded.Frames[2].Data)
}

func Test_Cannelloni_Truncated(t *testing.T) {
	assert := assert.New(t)

	_, err := decodeCannelloniPacket([]byte{1, 0, 0})
	assert.ErrorIs(err, errShortPacket)

	p := newCannelloniPacket(0)
	p.addFrame(0x100, []byte{1, 2, 3, 4})
	buf := p.encode()

	_, err = decodeCannelloniPacket(buf[:len(buf)-1])
	assert.ErrorIs(err, errShortPacket)

	buf[1] = 1
	_, err = decodeCannelloniPacket(buf)
	assert.Error(err)
}
