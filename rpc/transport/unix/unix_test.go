package unix

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/serializer"
	"github.com/ValentinKolb/dReact/rpc/transport"
	"github.com/stretchr/testify/require"
)

func TestUnixRoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "chat.sock")
	codec := serializer.NewFrameCodec(serializer.NewJSONSerializer(), 256)
	srv := NewUnixServerTransport(codec, nil)

	listening := make(chan net.Addr, 1)
	srv.RegisterHandlers(transport.ServerHandlers{
		OnListening: func(addr net.Addr) { listening <- addr },
		OnRequest: func(r transport.IReactor, slot transport.SlotID, req *common.Message) error {
			_, err := r.Broadcast(req)
			return err
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Listen(ctx, common.ServerConfig{
			Name: "unix", Endpoint: socketPath, MaxClients: 2,
			InputBufferSize: 256, MessageSize: 128, WorkspaceInSize: 256, WorkspaceOutSize: 256,
			SocketConf: common.SocketConf{ReadBufferSize: 4096, WriteBufferSize: 4096},
		})
	}()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	select {
	case <-listening:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	c := NewUnixClientTransport(codec)
	require.NoError(t, c.Connect(common.ClientConfig{Endpoint: socketPath, TimeoutSecond: 5, MaxFrameSize: 256}))
	defer c.Close()

	require.NoError(t, c.Send(common.NewChatMessage("alice", "over a unix socket")))
	var msg common.Message
	require.NoError(t, c.Receive(&msg))
	require.Equal(t, "over a unix socket", msg.Text)
}
