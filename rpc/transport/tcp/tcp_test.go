package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/serializer"
	"github.com/ValentinKolb/dReact/rpc/transport"
	"github.com/stretchr/testify/require"
)

func TestTuneConnection(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	err = tuneConnection(conn,
		common.SocketConf{WriteBufferSize: 64 * 1024, ReadBufferSize: 64 * 1024},
		common.TCPConf{TCPNoDelay: true, TCPKeepAliveSec: 30, TCPLingerSec: 1})
	require.NoError(t, err)

	// non TCP connections are ignored
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	require.NoError(t, tuneConnection(a, common.SocketConf{WriteBufferSize: 1}, common.TCPConf{TCPNoDelay: true}))
}

func TestTCPRoundTrip(t *testing.T) {
	codec := serializer.NewFrameCodec(serializer.NewBinarySerializer(), 128)
	srv := NewTCPServerTransport(codec, nil)

	listening := make(chan net.Addr, 1)
	srv.RegisterHandlers(transport.ServerHandlers{
		OnListening: func(addr net.Addr) { listening <- addr },
		OnRequest: func(r transport.IReactor, slot transport.SlotID, req *common.Message) error {
			return r.Reply(slot, common.NewOkResponse())
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Listen(ctx, common.ServerConfig{
			Name: "tcp", Endpoint: "127.0.0.1:0", MaxClients: 1,
			InputBufferSize: 128, MessageSize: 128, WorkspaceInSize: 128, WorkspaceOutSize: 128,
			TCPConf: common.TCPConf{TCPNoDelay: true},
		})
	}()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	var addr net.Addr
	select {
	case addr = <-listening:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	c := NewTCPClientTransport(codec)
	require.NoError(t, c.Connect(common.ClientConfig{Endpoint: addr.String(), TimeoutSecond: 5, MaxFrameSize: 128}))
	defer c.Close()

	require.NoError(t, c.Send(common.NewExecCommandRequest("true")))
	var msg common.Message
	require.NoError(t, c.Receive(&msg))
	require.Equal(t, common.MsgTOk, msg.MsgType)
}
