package source

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	cannelloniVersion    = 1
	cannelloniOpData     = 0
	cannelloniHeaderSize = 5

	cannelloniFDFlag = 0x80
)

var errShortPacket = errors.New("cannelloni: not enough data")

// cannelloniFrame is a CAN frame carried by a cannelloni packet.
type cannelloniFrame struct {
	CANID   uint32
	FDFlags uint8
	Data    []byte
}

// cannelloniPacket is a cannelloni UDP datagram.
type cannelloniPacket struct {
	Version        uint8
	OPCode         uint8
	SequenceNumber uint8
	Frames         []cannelloniFrame
}

func newCannelloniPacket(seqNum uint8) *cannelloniPacket {
	return &cannelloniPacket{
		Version:        cannelloniVersion,
		OPCode:         cannelloniOpData,
		SequenceNumber: seqNum,
	}
}

func (p *cannelloniPacket) addFrame(canID uint32, data []byte) {
	p.Frames = append(p.Frames, cannelloniFrame{CANID: canID, Data: data})
}

func decodeCannelloniPacket(buf []byte) (*cannelloniPacket, error) {
	if len(buf) < cannelloniHeaderSize {
		return nil, errShortPacket
	}

	p := &cannelloniPacket{
		Version:        buf[0],
		OPCode:         buf[1],
		SequenceNumber: buf[2],
	}

	if p.OPCode != cannelloniOpData {
		return nil, fmt.Errorf("cannelloni: unsupported op code %d", p.OPCode)
	}

	count := int(binary.BigEndian.Uint16(buf[3:5]))
	p.Frames = make([]cannelloniFrame, 0, count)

	pos := cannelloniHeaderSize
	for range count {
		f, n, err := decodeCannelloniFrame(buf[pos:])
		if err != nil {
			return nil, err
		}

		p.Frames = append(p.Frames, f)
		pos += n
	}

	return p, nil
}

func decodeCannelloniFrame(buf []byte) (cannelloniFrame, int, error) {
	f := cannelloniFrame{}

	if len(buf) < 5 {
		return f, 0, errShortPacket
	}

	f.CANID = binary.BigEndian.Uint32(buf[0:4])

	n := 5
	dataLen := int(buf[4])
	if dataLen&cannelloniFDFlag != 0 {
		if len(buf) < 6 {
			return f, 0, errShortPacket
		}

		dataLen &= 0x7f
		f.FDFlags = buf[5]
		n++
	}

	if len(buf) < n+dataLen {
		return f, 0, errShortPacket
	}

	f.Data = buf[n : n+dataLen]

	return f, n + dataLen, nil
}

func (p *cannelloniPacket) encode() []byte {
	buf := make([]byte, cannelloniHeaderSize)

	buf[0] = p.Version
	buf[1] = p.OPCode
	buf[2] = p.SequenceNumber
	binary.BigEndian.PutUint16(buf[3:5], uint16(len(p.Frames)))

	for _, f := range p.Frames {
		buf = binary.BigEndian.AppendUint32(buf, f.CANID)

		if f.FDFlags != 0 {
			buf = append(buf, uint8(len(f.Data))|cannelloniFDFlag, f.FDFlags)
		} else {
			buf = append(buf, uint8(len(f.Data)))
		}

		buf = append(buf, f.Data...)
	}

	return buf
}
