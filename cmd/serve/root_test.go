package serve

import (
	"context"
	"testing"
	"time"

	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/serializer"
	"github.com/ValentinKolb/dReact/rpc/server"
	"github.com/ValentinKolb/dReact/rpc/transport/tcp"
	"github.com/stretchr/testify/require"
)

func newChatServer(config common.ServerConfig) *server.RPCServer {
	codec := serializer.NewFrameCodec(serializer.NewBinarySerializer(), config.WorkspaceInSize)
	return server.NewRPCServer(config, tcp.NewTCPServerTransport(codec, nil), server.NewChatServerAdapter(config, nil))
}

func validChatConfig(name string) common.ServerConfig {
	return common.ServerConfig{
		Name:             name,
		Endpoint:         "127.0.0.1:0",
		MaxClients:       2,
		InputBufferSize:  128,
		MessageSize:      64,
		WorkspaceInSize:  128,
		WorkspaceOutSize: 128,
	}
}

func TestServeAllStopsOthersOnFatalError(t *testing.T) {
	running := newChatServer(validChatConfig("chat"))

	broken := validChatConfig("broken")
	broken.MaxClients = 0

	done := make(chan error, 1)
	go func() { done <- serveAll(context.Background(), []*server.RPCServer{running, newChatServer(broken)}) }()

	select {
	case err := <-done:
		require.ErrorContains(t, err, "broken")
	case <-time.After(5 * time.Second):
		t.Fatal("serveAll did not return after a fatal error")
	}
	require.False(t, running.Status().Running)
}

func TestServeAllReturnsNilOnCancel(t *testing.T) {
	a := newChatServer(validChatConfig("a"))
	b := newChatServer(validChatConfig("b"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveAll(ctx, []*server.RPCServer{a, b}) }()

	require.Eventually(t, func() bool { return a.Addr() != "" && b.Addr() != "" }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serveAll did not stop")
	}
}
