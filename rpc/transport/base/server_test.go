package base

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/serializer"
	"github.com/ValentinKolb/dReact/rpc/transport"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Test helpers
// --------------------------------------------------------------------------

type testServerConnector struct{}

func (testServerConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	return net.Listen("tcp", config.Endpoint)
}
func (testServerConnector) GetName() string { return "test" }
func (testServerConnector) UpgradeConnection(net.Conn, common.ServerConfig) error {
	return nil
}

// failingWriteConnector wraps the first accepted connection so every write to it fails
type failingWriteConnector struct{}

func (failingWriteConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	l, err := net.Listen("tcp", config.Endpoint)
	if err != nil {
		return nil, err
	}
	return &failFirstListener{Listener: l}, nil
}
func (failingWriteConnector) GetName() string { return "test" }
func (failingWriteConnector) UpgradeConnection(net.Conn, common.ServerConfig) error {
	return nil
}

type failFirstListener struct {
	net.Listener
	accepted int
}

func (l *failFirstListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	l.accepted++
	if l.accepted == 1 {
		return failingWriteConn{conn}, nil
	}
	return conn, nil
}

type failingWriteConn struct {
	net.Conn
}

func (failingWriteConn) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

type testClientConnector struct{}

func (testClientConnector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", endpoint, timeout)
}
func (testClientConnector) GetName() string { return "test" }
func (testClientConnector) UpgradeConnection(net.Conn, common.ClientConfig) error {
	return nil
}

func testConfig(maxClients int) common.ServerConfig {
	return common.ServerConfig{
		Name:               "test",
		Endpoint:           "127.0.0.1:0",
		MaxClients:         maxClients,
		InputBufferSize:    64,
		MessageSize:        48,
		WorkspaceInSize:    64,
		WorkspaceOutSize:   64,
		WriteTimeoutSecond: 2,
	}
}

func testCodec() transport.ICodec {
	return serializer.NewFrameCodec(serializer.NewBinarySerializer(), 64)
}

type slotEvent struct {
	slot      transport.SlotID
	connected bool
}

type broadcastResult struct {
	delivered int
	err       error
}

type testServer struct {
	addr       string
	events     chan slotEvent
	broadcasts chan broadcastResult
	transport transport.IRPCServerTransport
	cancel    context.CancelFunc
	done      chan error
}

// startServer runs a reactor whose handler echoes every request back to the sender,
// broadcasts chat messages and answers execCommand with an oversized reply
func startServer(t *testing.T, config common.ServerConfig) *testServer {
	t.Helper()
	return startServerWith(t, testServerConnector{}, config)
}

// startServerWith is startServer with a custom connector
func startServerWith(t *testing.T, connector IServerConnector, config common.ServerConfig) *testServer {
	t.Helper()

	ts := &testServer{
		events:     make(chan slotEvent, 16),
		broadcasts: make(chan broadcastResult, 16),
		done:       make(chan error, 1),
	}
	listening := make(chan net.Addr, 1)

	ts.transport = NewBaseServerTransport(connector, testCodec(), nil)
	ts.transport.RegisterHandlers(transport.ServerHandlers{
		OnListening: func(addr net.Addr) { listening <- addr },
		OnConnected: func(r transport.IReactor, slot transport.SlotID) {
			ts.events <- slotEvent{slot: slot, connected: true}
		},
		OnDisconnected: func(r transport.IReactor, slot transport.SlotID) {
			ts.events <- slotEvent{slot: slot, connected: false}
		},
		OnRequest: func(r transport.IReactor, slot transport.SlotID, req *common.Message) error {
			switch req.MsgType {
			case common.MsgTChatMessage:
				n, err := r.Broadcast(req)
				ts.broadcasts <- broadcastResult{delivered: n, err: err}
				return err
			case common.MsgTChatConnect:
				return r.Reply(slot, req)
			case common.MsgTExecCommand:
				return r.Reply(slot, common.NewExecOutputResponse(make([]byte, 100)))
			default:
				return common.ErrUnsupportedRequest
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	ts.cancel = cancel
	go func() { ts.done <- ts.transport.Listen(ctx, config) }()

	select {
	case addr := <-listening:
		ts.addr = addr.String()
	case err := <-ts.done:
		t.Fatalf("server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	t.Cleanup(func() {
		cancel()
		<-ts.done
	})
	return ts
}

func (ts *testServer) expectEvent(t *testing.T, slot transport.SlotID, connected bool) {
	t.Helper()
	select {
	case ev := <-ts.events:
		require.Equal(t, slotEvent{slot: slot, connected: connected}, ev)
	case <-time.After(5 * time.Second):
		t.Fatalf("no slot event (slot %d, connected %v)", slot, connected)
	}
}

func dial(t *testing.T, addr string) transport.IRPCClientTransport {
	t.Helper()
	c := NewBaseClientTransport(testClientConnector{}, testCodec())
	require.NoError(t, c.Connect(common.ClientConfig{Endpoint: addr, TimeoutSecond: 5, MaxFrameSize: 64}))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func dialRaw(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func expectEOF(t *testing.T, conn net.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err := conn.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestRejectWhenFull(t *testing.T) {
	ts := startServer(t, testConfig(2))

	x := dial(t, ts.addr)
	ts.expectEvent(t, 0, true)
	y := dial(t, ts.addr)
	ts.expectEvent(t, 1, true)

	// the third connection is closed right away without a slot event
	z := dialRaw(t, ts.addr)
	expectEOF(t, z)
	require.Equal(t, 2, ts.transport.Occupied())

	// existing clients are unaffected
	require.NoError(t, x.Send(common.NewChatConnectRequest("x")))
	var msg common.Message
	require.NoError(t, x.Receive(&msg))
	require.Equal(t, "x", msg.User)

	require.NoError(t, y.Send(common.NewChatConnectRequest("y")))
	require.NoError(t, y.Receive(&msg))
	require.Equal(t, "y", msg.User)
}

func TestLowestFreeSlotIsReused(t *testing.T) {
	ts := startServer(t, testConfig(3))

	a := dialRaw(t, ts.addr)
	ts.expectEvent(t, 0, true)
	_ = dialRaw(t, ts.addr)
	ts.expectEvent(t, 1, true)
	_ = dialRaw(t, ts.addr)
	ts.expectEvent(t, 2, true)

	require.NoError(t, a.Close())
	ts.expectEvent(t, 0, false)

	_ = dialRaw(t, ts.addr)
	ts.expectEvent(t, 0, true)
	require.Equal(t, 3, ts.transport.Occupied())
	require.Equal(t, 3, ts.transport.Capacity())
}

func TestMalformedFrameClosesOnlyThatSlot(t *testing.T) {
	ts := startServer(t, testConfig(2))

	good := dial(t, ts.addr)
	ts.expectEvent(t, 0, true)
	bad := dialRaw(t, ts.addr)
	ts.expectEvent(t, 1, true)

	// zero length payload can never be a frame
	_, err := bad.Write([]byte{0, 0, 0, 0})
	require.NoError(t, err)
	ts.expectEvent(t, 1, false)
	expectEOF(t, bad)

	require.NoError(t, good.Send(common.NewChatConnectRequest("still here")))
	var msg common.Message
	require.NoError(t, good.Receive(&msg))
	require.Equal(t, "still here", msg.User)
}

func TestUnsupportedRequestClosesSlot(t *testing.T) {
	ts := startServer(t, testConfig(1))

	c := dial(t, ts.addr)
	ts.expectEvent(t, 0, true)

	require.NoError(t, c.Send(common.NewOkResponse()))
	ts.expectEvent(t, 0, false)
}

func TestOversizeFrameClosesSlot(t *testing.T) {
	ts := startServer(t, testConfig(1))

	conn := dialRaw(t, ts.addr)
	ts.expectEvent(t, 0, true)

	// declares a 1000 byte payload, more than the input buffer can ever hold
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, 1000)
	_, err := conn.Write(header)
	require.NoError(t, err)

	ts.expectEvent(t, 0, false)
	expectEOF(t, conn)
}

func TestPartialAndBatchedFrames(t *testing.T) {
	ts := startServer(t, testConfig(1))

	conn := dialRaw(t, ts.addr)
	ts.expectEvent(t, 0, true)

	codec := testCodec()
	var stream []byte
	var err error
	for _, user := range []string{"a", "b", "c"} {
		stream, err = codec.Encode(stream, common.NewChatConnectRequest(user))
		require.NoError(t, err)
	}

	// first a fragment, then the rest in one write
	_, err = conn.Write(stream[:3])
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, err = conn.Write(stream[3:])
	require.NoError(t, err)

	c := &clientTransport{codec: codec, conn: conn, in: make([]byte, 64), config: common.ClientConfig{TimeoutSecond: 5}}
	var msg common.Message
	for _, user := range []string{"a", "b", "c"} {
		require.NoError(t, c.Receive(&msg))
		require.Equal(t, common.MsgTChatConnect, msg.MsgType)
		require.Equal(t, user, msg.User)
	}
}

func TestBroadcastReachesAllOccupiedSlots(t *testing.T) {
	ts := startServer(t, testConfig(3))

	clients := make([]transport.IRPCClientTransport, 3)
	for i := range clients {
		clients[i] = dial(t, ts.addr)
		ts.expectEvent(t, transport.SlotID(i), true)
	}

	require.NoError(t, clients[1].Send(common.NewChatMessage("b", "hello")))

	for _, c := range clients {
		var msg common.Message
		require.NoError(t, c.Receive(&msg))
		require.Equal(t, common.MsgTChatMessage, msg.MsgType)
		require.Equal(t, "hello", msg.Text)
	}
}

func TestBroadcastWriteFailureClosesOnlyThatRecipient(t *testing.T) {
	ts := startServerWith(t, failingWriteConnector{}, testConfig(3))

	clients := make([]transport.IRPCClientTransport, 3)
	for i := range clients {
		clients[i] = dial(t, ts.addr)
		ts.expectEvent(t, transport.SlotID(i), true)
	}

	// every write to slot 0 fails
	require.NoError(t, clients[1].Send(common.NewChatMessage("b", "m1")))
	ts.expectEvent(t, 0, false)

	select {
	case res := <-ts.broadcasts:
		require.NoError(t, res.err)
		require.Equal(t, 2, res.delivered)
	case <-time.After(5 * time.Second):
		t.Fatal("no broadcast result")
	}

	for _, c := range clients[1:] {
		var msg common.Message
		require.NoError(t, c.Receive(&msg))
		require.Equal(t, "m1", msg.Text)
	}

	// the remaining clients keep talking
	require.NoError(t, clients[2].Send(common.NewChatMessage("c", "m2")))
	for _, c := range clients[1:] {
		var msg common.Message
		require.NoError(t, c.Receive(&msg))
		require.Equal(t, "m2", msg.Text)
	}

	var msg common.Message
	require.Error(t, clients[0].Receive(&msg))
	require.Equal(t, 2, ts.transport.Occupied())
}

func TestReplyTooLargeKeepsSlot(t *testing.T) {
	ts := startServer(t, testConfig(1))

	c := dial(t, ts.addr)
	ts.expectEvent(t, 0, true)

	// the reply does not fit the 64 byte workspace, nothing is sent
	require.NoError(t, c.Send(common.NewExecCommandRequest("big")))

	require.NoError(t, c.Send(common.NewChatConnectRequest("after")))
	var msg common.Message
	require.NoError(t, c.Receive(&msg))
	require.Equal(t, "after", msg.User)
	require.Equal(t, 1, ts.transport.Occupied())
}

func TestCancelStopsServer(t *testing.T) {
	ts := startServer(t, testConfig(2))

	conn := dialRaw(t, ts.addr)
	ts.expectEvent(t, 0, true)

	ts.cancel()
	select {
	case err := <-ts.done:
		require.NoError(t, err)
		ts.done <- err // for cleanup
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	ts.expectEvent(t, 0, false)
	expectEOF(t, conn)
	require.Equal(t, 0, ts.transport.Occupied())
}

func TestInvalidConfigIsFatal(t *testing.T) {
	config := testConfig(0)
	tr := NewBaseServerTransport(testServerConnector{}, testCodec(), nil)
	err := tr.Listen(context.Background(), config)
	require.Error(t, err)
}

func TestListenErrorIsFatal(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	config := testConfig(1)
	config.Endpoint = l.Addr().String()
	tr := NewBaseServerTransport(testServerConnector{}, testCodec(), nil)
	err = tr.Listen(context.Background(), config)
	require.ErrorContains(t, err, "failed to create listener")
}
