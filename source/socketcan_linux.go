//go:build linux

package source

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/squadracorsepolito/bmsmon/connector"
	"github.com/squadracorsepolito/bmsmon/frame"
	"github.com/squadracorsepolito/bmsmon/internal"
	"golang.org/x/sys/unix"
)

// Size of struct can_frame.
const canFrameSize = 16

type socketCAN struct {
	tel *internal.Telemetry

	fd     int
	ifname string

	closed atomic.Bool

	// Telemetry metrics
	receivedFrames atomic.Int64
	skippedFrames  atomic.Int64
}

func openSocketCAN(ifname string, filters []uint32, readTimeout time.Duration) (*socketCAN, error) {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("failed to create CAN socket: %w", err)
	}

	ifreq, err := unix.NewIfreq(ifname)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to create ifreq: %w", err)
	}

	if err := unix.IoctlIfreq(fd, unix.SIOCGIFINDEX, ifreq); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to get index of %s: %w", ifname, err)
	}

	if len(filters) > 0 {
		canFilters := make([]unix.CanFilter, 0, len(filters))
		for _, id := range filters {
			canFilters = append(canFilters, unix.CanFilter{Id: id, Mask: unix.CAN_EFF_MASK | unix.CAN_EFF_FLAG})
		}

		if err := unix.SetsockoptCanRawFilter(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FILTER, canFilters); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("failed to set CAN filters: %w", err)
		}
	}

	// Reads wake up periodically to observe context cancellation
	tv := unix.NsecToTimeval(socketReadTimeout(readTimeout).Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: int(ifreq.Uint32())}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to bind CAN socket to %s: %w", ifname, err)
	}

	s := &socketCAN{
		tel: internal.NewTelemetry("source", "socketcan"),

		fd:     fd,
		ifname: ifname,
	}

	s.initMetrics()

	return s, nil
}

func (s *socketCAN) initMetrics() {
	s.tel.NewCounter("received_frames", func() int64 { return s.receivedFrames.Load() })
	s.tel.NewCounter("skipped_frames", func() int64 { return s.skippedFrames.Load() })
}

func (s *socketCAN) Name() string {
	return s.ifname
}

func (s *socketCAN) Run(ctx context.Context, out connector.Connector[frame.Frame]) error {
	buf := make([]byte, canFrameSize)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := unix.Read(s.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}

			if s.closed.Load() {
				return nil
			}

			return fmt.Errorf("failed to read CAN socket: %w", err)
		}

		f, ok := parseCANFrame(buf[:n], time.Now())
		if !ok {
			s.skippedFrames.Add(1)
			continue
		}

		s.receivedFrames.Add(1)

		if err := out.Write(f); err != nil {
			if errors.Is(err, connector.ErrClosed) {
				return nil
			}
			s.tel.LogError("failed to write frame", err)
		}
	}
}

// parseCANFrame parses a struct can_frame.
// Error and remote frames are skipped.
func parseCANFrame(buf []byte, ts time.Time) (frame.Frame, bool) {
	if len(buf) < canFrameSize {
		return frame.Frame{}, false
	}

	rawID := binary.LittleEndian.Uint32(buf[0:4])
	if rawID&(unix.CAN_ERR_FLAG|unix.CAN_RTR_FLAG) != 0 {
		return frame.Frame{}, false
	}

	id := rawID & unix.CAN_SFF_MASK
	if rawID&unix.CAN_EFF_FLAG != 0 {
		id = rawID & unix.CAN_EFF_MASK
	}

	dlc := min(int(buf[4]), frame.MaxDataLen)

	return frame.New(id, buf[8:8+dlc], ts), true
}

func (s *socketCAN) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return unix.Close(s.fd)
}
