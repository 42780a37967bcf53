package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/squadracorsepolito/bmsmon/connector"
	"github.com/squadracorsepolito/bmsmon/frame"
	"github.com/squadracorsepolito/bmsmon/internal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultUDPPayloadSize = 1474

	// Identifier bits of a cannelloni frame, without the EFF/RTR/ERR flags.
	cannelloniIDMask = 0x1fffffff
)

// cannelloniSource receives cannelloni packets over UDP.
type cannelloniSource struct {
	tel *internal.Telemetry

	conn *net.UDPConn
	name string

	closed atomic.Bool

	// Telemetry metrics
	receivedBytes  atomic.Int64
	receivedFrames atomic.Int64
	invalidPackets atomic.Int64
}

func openCannelloni(ipAddr string, port uint16, name string) (*cannelloniSource, error) {
	parsedAddr, err := netip.ParseAddr(ipAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse address %q: %w", ipAddr, err)
	}

	addr := net.UDPAddrFromAddrPort(netip.AddrPortFrom(parsedAddr, port))
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if name == "" {
		name = "cannelloni"
	}

	s := &cannelloniSource{
		tel: internal.NewTelemetry("source", "cannelloni"),

		conn: conn,
		name: name,
	}

	s.initMetrics()

	return s, nil
}

func (s *cannelloniSource) initMetrics() {
	s.tel.NewCounter("received_bytes", func() int64 { return s.receivedBytes.Load() })
	s.tel.NewCounter("received_frames", func() int64 { return s.receivedFrames.Load() })
	s.tel.NewCounter("invalid_packets", func() int64 { return s.invalidPackets.Load() })
}

func (s *cannelloniSource) Name() string {
	return s.name
}

// LocalAddr returns the address the source listens on.
func (s *cannelloniSource) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *cannelloniSource) Run(ctx context.Context, out connector.Connector[frame.Frame]) error {
	// Unblock the read when the context is done
	stop := context.AfterFunc(ctx, func() {
		s.Close()
	})
	defer stop()

	buf := make([]byte, defaultUDPPayloadSize)

	for {
		n, err := s.conn.Read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) && s.closed.Load() {
				return nil
			}
			return fmt.Errorf("failed to read UDP datagram: %w", err)
		}

		if err := s.handleDatagram(ctx, buf[:n], out); err != nil {
			if errors.Is(err, connector.ErrClosed) {
				return nil
			}
		}
	}
}

func (s *cannelloniSource) handleDatagram(ctx context.Context, buf []byte, out connector.Connector[frame.Frame]) error {
	_, span := s.tel.NewTrace(ctx, "receive cannelloni datagram")
	defer span.End()

	recvTime := time.Now()
	s.receivedBytes.Add(int64(len(buf)))

	packet, err := decodeCannelloniPacket(buf)
	if err != nil {
		s.invalidPackets.Add(1)
		s.tel.LogWarn("invalid cannelloni packet", "reason", err, "size", len(buf))
		return nil
	}

	span.SetAttributes(
		attribute.Int("payload_size", len(buf)),
		attribute.Int("frame_count", len(packet.Frames)),
		attribute.Int("sequence_number", int(packet.SequenceNumber)),
	)

	for _, cf := range packet.Frames {
		data := cf.Data
		if len(data) > frame.MaxDataLen {
			data = data[:frame.MaxDataLen]
		}

		if err := out.Write(frame.New(cf.CANID&cannelloniIDMask, data, recvTime)); err != nil {
			return err
		}
		s.receivedFrames.Add(1)
	}

	return nil
}

func (s *cannelloniSource) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.conn.Close()
}
