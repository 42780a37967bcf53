package source

import (
	"fmt"
	"net"

	"github.com/squadracorsepolito/bmsmon/frame"
)

// Maximum number of classic CAN frames fitting a single udp/ipv4/ethernet packet.
const maxCannelloniFrames = 113

// CannelloniSender sends frames to a cannelloni endpoint.
type CannelloniSender struct {
	conn   net.Conn
	seqNum uint8
}

// DialCannelloni returns a sender for the endpoint at addr.
func DialCannelloni(addr string) (*CannelloniSender, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	return &CannelloniSender{conn: conn}, nil
}

// Send writes frames using as few packets as possible.
func (s *CannelloniSender) Send(frames []frame.Frame) error {
	for len(frames) > 0 {
		n := min(len(frames), maxCannelloniFrames)

		p := newCannelloniPacket(s.seqNum)
		for _, f := range frames[:n] {
			p.addFrame(f.ID, f.Data)
		}

		if _, err := s.conn.Write(p.encode()); err != nil {
			return err
		}

		s.seqNum++
		frames = frames[n:]
	}

	return nil
}

func (s *CannelloniSender) Close() error {
	return s.conn.Close()
}
