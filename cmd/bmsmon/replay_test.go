package main

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/squadracorsepolito/bmsmon/frame"
	"github.com/squadracorsepolito/bmsmon/rawlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Replay(t *testing.T) {
	assert := assert.New(t)

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	base := time.Unix(1_700_000_000, 0)

	var content []byte
	for i := range 4 {
		// two packets: frames 0-1 and frames 2-3
		ts := base.Add(time.Duration(i/2) * time.Second)
		content = rawlog.AppendLine(content, "can0", frame.New(uint32(0x100+i), []byte{byte(i)}, ts))
	}

	path := filepath.Join(t.TempDir(), "session.log")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	sent, err := replay(t.Context(), path, conn.LocalAddr().String(), 0)
	require.NoError(t, err)
	assert.Equal(4, sent)

	buf := make([]byte, 1500)
	for range 2 {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		n, _, err := conn.ReadFrom(buf)
		require.NoError(t, err)
		assert.Greater(n, 5)
	}
}

func Test_Replay_MalformedLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.log")
	require.NoError(t, os.WriteFile(path, []byte("not a log line\n"), 0o644))

	_, err := replay(t.Context(), path, "127.0.0.1:9", 0)
	assert.Error(t, err)
}
