package serializer

import (
	"testing"

	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/stretchr/testify/require"
)

func TestFrameCodecRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			codec := NewFrameCodec(factory(), 4096)

			frame, err := codec.Encode(nil, common.NewChatMessage("alice", "hi"))
			require.NoError(t, err)

			var msg common.Message
			n, err := codec.Decode(frame, &msg)
			require.NoError(t, err)
			require.Equal(t, len(frame), n)
			require.Equal(t, common.MsgTChatMessage, msg.MsgType)
			require.Equal(t, "alice", msg.User)
			require.Equal(t, "hi", msg.Text)
		})
	}
}

func TestFrameCodecIncomplete(t *testing.T) {
	codec := NewFrameCodec(NewBinarySerializer(), 4096)

	frame, err := codec.Encode(nil, common.NewExecCommandRequest("uname -a"))
	require.NoError(t, err)

	// every strict prefix is incomplete, never malformed
	var msg common.Message
	for i := 0; i < len(frame); i++ {
		n, err := codec.Decode(frame[:i], &msg)
		require.ErrorIs(t, err, common.ErrIncompleteFrame, "prefix of %d bytes", i)
		require.Zero(t, n)
	}
}

func TestFrameCodecMultipleFrames(t *testing.T) {
	codec := NewFrameCodec(NewBinarySerializer(), 4096)

	buf, err := codec.Encode(nil, common.NewChatConnectRequest("x"))
	require.NoError(t, err)
	buf, err = codec.Encode(buf, common.NewChatMessage("x", "first"))
	require.NoError(t, err)
	buf, err = codec.Encode(buf, common.NewChatMessage("x", "second"))
	require.NoError(t, err)

	var msg common.Message
	var kinds []common.MessageType
	for len(buf) > 0 {
		n, err := codec.Decode(buf, &msg)
		require.NoError(t, err)
		kinds = append(kinds, msg.MsgType)
		buf = buf[n:]
	}

	require.Equal(t, []common.MessageType{
		common.MsgTChatConnect, common.MsgTChatMessage, common.MsgTChatMessage,
	}, kinds)
}

func TestFrameCodecMalformed(t *testing.T) {
	codec := NewFrameCodec(NewBinarySerializer(), 32)

	testCases := []struct {
		name string
		data []byte
	}{
		{
			name: "Empty payload",
			data: []byte{0, 0, 0, 0},
		},
		{
			name: "Declared size exceeds limit",
			data: []byte{0, 0, 0, 100},
		},
		{
			name: "Huge declared size",
			data: []byte{0xff, 0xff, 0xff, 0xff},
		},
		{
			name: "Corrupt payload",
			data: []byte{0, 0, 0, 3, 1, 0x80, 0},
		},
		{
			name: "Unknown message type",
			data: []byte{0, 0, 0, 2, 200, 0},
		},
		{
			name: "Unknown (zero) message type",
			data: []byte{0, 0, 0, 2, 0, 0},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			_, err := codec.Decode(tc.data, &msg)
			require.ErrorIs(t, err, common.ErrMalformedFrame)
		})
	}
}

func TestFrameCodecEncodeIntoWorkspace(t *testing.T) {
	codec := NewFrameCodec(NewBinarySerializer(), 128)
	workspace := make([]byte, 0, 128)

	frame, err := codec.Encode(workspace[:0], common.NewExecOutputResponse([]byte("chunk")))
	require.NoError(t, err)
	require.LessOrEqual(t, len(frame), cap(workspace))
	require.Same(t, &workspace[:1][0], &frame[0], "frame must be written into the workspace")
}
