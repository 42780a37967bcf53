package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/squadracorsepolito/acmelib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestMessages(t *testing.T) []*acmelib.Message {
	t.Helper()

	sigType, err := acmelib.NewIntegerSignalType("u8", 8, false)
	require.NoError(t, err)

	messages := []*acmelib.Message{}
	for i := range 3 {
		msg := acmelib.NewMessage(fmt.Sprintf("message_%d", i), acmelib.MessageID(0x10+i), 8)

		for j := range 2 {
			sig, err := acmelib.NewStandardSignal(fmt.Sprintf("message_%d_signal_%d", i, j), sigType)
			require.NoError(t, err)
			require.NoError(t, msg.InsertSignal(sig, j*8))
		}

		messages = append(messages, msg)
	}

	return messages
}

func Test_DBC_ResolveAndDecode(t *testing.T) {
	assert := assert.New(t)

	messages := getTestMessages(t)
	c, err := FromMessages(messages)
	require.NoError(t, err)

	assert.Len(c.Signals(), 6)

	id := uint32(messages[1].GetCANID())

	def, ok := c.Resolve(id)
	require.True(t, ok)
	assert.Equal("message_1", def.Name)
	assert.Equal(8, def.SizeByte)
	assert.Len(def.Signals, 2)

	name, ok := c.MessageName(id)
	assert.True(ok)
	assert.Equal("message_1", name)

	values, err := c.Decode(id, []byte{42, 7, 0, 0, 0, 0, 0, 0})
	require.NoError(t, err)

	got := map[string]float64{}
	for _, v := range values {
		got[v.Name] = v.Value
	}
	assert.Equal(map[string]float64{
		"message_1_signal_0": 42,
		"message_1_signal_1": 7,
	}, got)
}

func Test_DBC_UnknownID(t *testing.T) {
	assert := assert.New(t)

	c, err := FromMessages(getTestMessages(t))
	require.NoError(t, err)

	_, ok := c.Resolve(0x7ff)
	assert.False(ok)

	_, ok = c.MessageName(0x7ff)
	assert.False(ok)

	_, err = c.Decode(0x7ff, []byte{1})
	assert.ErrorIs(err, ErrUnknownID)
}

func Test_DBC_ShortPayload(t *testing.T) {
	assert := assert.New(t)

	messages := getTestMessages(t)
	c, err := FromMessages(messages)
	require.NoError(t, err)

	values, err := c.Decode(uint32(messages[0].GetCANID()), []byte{1, 2})
	assert.ErrorIs(err, ErrDecode)
	assert.Nil(values)
}

func Test_DBC_DuplicateSignal(t *testing.T) {
	sigType, err := acmelib.NewIntegerSignalType("u8", 8, false)
	require.NoError(t, err)

	msgA := acmelib.NewMessage("msg_a", acmelib.MessageID(1), 8)
	msgB := acmelib.NewMessage("msg_b", acmelib.MessageID(2), 8)

	for _, msg := range []*acmelib.Message{msgA, msgB} {
		sig, err := acmelib.NewStandardSignal("shared", sigType)
		require.NoError(t, err)
		require.NoError(t, msg.InsertSignal(sig, 0))
	}

	_, err = FromMessages([]*acmelib.Message{msgA, msgB})
	assert.ErrorIs(t, err, ErrDuplicateSignal)
}

func Test_Load_Errors(t *testing.T) {
	assert := assert.New(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.dbc"))
	assert.Error(err)

	path := filepath.Join(t.TempDir(), "broken.dbc")
	require.NoError(t, os.WriteFile(path, []byte("this is not a dbc file {{{"), 0o644))

	_, err = Load(path)
	assert.Error(err)
}
