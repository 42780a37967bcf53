package source

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/squadracorsepolito/bmsmon/connector"
	"github.com/squadracorsepolito/bmsmon/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceRecorder struct {
	frames []frame.Frame
	err    error
}

func (r *sliceRecorder) Record(f frame.Frame) error {
	r.frames = append(r.frames, f)
	return r.err
}

func Test_Open_Kinds(t *testing.T) {
	assert := assert.New(t)

	cfg := NewDefaultConfig()

	cfg.Kind = string(KindNone)
	_, err := Open(cfg)
	assert.ErrorIs(err, ErrDisabled)

	cfg.Kind = "serial"
	_, err = Open(cfg)
	assert.Error(err)
}

func Test_Tap(t *testing.T) {
	assert := assert.New(t)

	relay := connector.NewRelay[frame.Frame](0)
	rec := &sliceRecorder{err: errors.New("disk full")}

	var recErrs int
	out := Tap(relay, rec, func(error) { recErrs++ })

	require.NoError(t, out.Write(frame.New(0x10, []byte{1}, time.Now())))
	require.NoError(t, out.Write(frame.New(0x20, []byte{2}, time.Now())))

	assert.Len(rec.frames, 2)
	assert.Equal(2, recErrs)
	assert.Equal(2, relay.Len())

	out.Close()
	assert.ErrorIs(out.Write(frame.New(0x30, nil, time.Now())), connector.ErrClosed)
}

func Test_CannelloniSource_Run(t *testing.T) {
	assert := assert.New(t)

	src, err := openCannelloni("127.0.0.1", 0, "")
	require.NoError(t, err)
	assert.Equal("cannelloni", src.Name())

	relay := connector.NewRelay[frame.Frame](0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- src.Run(ctx, relay)
	}()

	conn, err := net.Dial("udp", src.LocalAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	p := newCannelloniPacket(0)
	p.addFrame(0x100, []byte{1, 2})
	p.addFrame(0x80000123, []byte{3})

	_, err = conn.Write(p.encode())
	require.NoError(t, err)

	// Garbage is counted and skipped
	_, err = conn.Write([]byte{1})
	require.NoError(t, err)

	assert.Eventually(func() bool { return relay.Len() == 2 }, time.Second, 5*time.Millisecond)

	frames := relay.DrainAll()
	require.Len(t, frames, 2)
	assert.Equal(uint32(0x100), frames[0].ID)
	assert.Equal([]byte{1, 2}, frames[0].Data)
	assert.Equal(uint32(0x123), frames[1].ID)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(err)
	case <-time.After(time.Second):
		t.Fatal("source did not stop")
	}

	assert.NoError(src.Close())
}

func Test_CannelloniSender(t *testing.T) {
	assert := assert.New(t)

	src, err := openCannelloni("127.0.0.1", 0, "replay")
	require.NoError(t, err)
	defer src.Close()

	relay := connector.NewRelay[frame.Frame](0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go src.Run(ctx, relay)

	sender, err := DialCannelloni(src.LocalAddr().String())
	require.NoError(t, err)
	defer sender.Close()

	frames := make([]frame.Frame, 0, maxCannelloniFrames+7)
	for i := range maxCannelloniFrames + 7 {
		frames = append(frames, frame.New(uint32(i), []byte{byte(i)}, time.Now()))
	}

	require.NoError(t, sender.Send(frames))
	assert.Equal(uint8(2), sender.seqNum)

	assert.Eventually(func() bool { return relay.Len() == len(frames) }, time.Second, 5*time.Millisecond)

	received := relay.DrainAll()
	for idx, f := range received {
		assert.Equal(uint32(idx), f.ID)
	}
}

func Test_SocketReadTimeout(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(DefaultReadTimeout, socketReadTimeout(0))
	assert.Equal(DefaultReadTimeout, socketReadTimeout(-time.Second))
	assert.Equal(time.Millisecond, socketReadTimeout(time.Nanosecond))
	assert.Equal(50*time.Millisecond, socketReadTimeout(50*time.Millisecond))
}
