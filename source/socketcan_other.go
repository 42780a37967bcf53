//go:build !linux

package source

import (
	"context"
	"fmt"
	"time"

	"github.com/squadracorsepolito/bmsmon/connector"
	"github.com/squadracorsepolito/bmsmon/frame"
)

type socketCAN struct{}

func openSocketCAN(ifname string, _ []uint32, _ time.Duration) (*socketCAN, error) {
	return nil, fmt.Errorf("socketcan %s: %w", ifname, ErrUnsupported)
}

func (*socketCAN) Name() string { return "" }

func (*socketCAN) Run(context.Context, connector.Connector[frame.Frame]) error { return ErrUnsupported }

func (*socketCAN) Close() error { return nil }
