package base

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("reactor")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

type eventKind uint8

const (
	evAccept eventKind = iota
	evRead
)

// event is what the feeder goroutines hand to the reactor
type event struct {
	kind eventKind

	// evAccept
	conn net.Conn

	// evRead
	slot transport.SlotID
	gen  uint64
	buf  *[]byte // pooled scratch buffer, returned to the pool by the reactor
	n    int
	err  error
}

// serverTransport is a bounded reactor: one goroutine owns the slot table, the
// encode workspace and all handler invocations. Accept and read goroutines only
// feed events into it.
type serverTransport struct {
	connector IServerConnector
	codec     transport.ICodec
	metrics   transport.IMetrics
	handlers  transport.ServerHandlers

	config       common.ServerConfig
	slots        *slotTable
	workspaceOut []byte
	request      common.Message

	events     chan event
	stop       chan struct{}
	bufferPool *sync.Pool

	capacity atomic.Int64
	occupied atomic.Int64
	running  atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new reactor based server transport.
// metrics may be nil
func NewBaseServerTransport(connector IServerConnector, codec transport.ICodec, metrics transport.IMetrics) transport.IRPCServerTransport {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &serverTransport{
		connector: connector,
		codec:     codec,
		metrics:   metrics,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandlers(handlers transport.ServerHandlers) {
	t.handlers = handlers
}

func (t *serverTransport) Capacity() int {
	return int(t.capacity.Load())
}

func (t *serverTransport) Occupied() int {
	return int(t.occupied.Load())
}

func (t *serverTransport) Listen(ctx context.Context, config common.ServerConfig) error {
	if !t.running.CompareAndSwap(false, true) {
		return fmt.Errorf("server transport is already running")
	}
	defer t.running.Store(false)

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// all buffers are sized once here
	t.config = config
	t.slots = newSlotTable(config.MaxClients, config.InputBufferSize)
	t.workspaceOut = make([]byte, 0, config.WorkspaceOutSize)
	t.events = make(chan event)
	t.stop = make(chan struct{})
	t.bufferPool = &sync.Pool{
		New: func() interface{} {
			b := make([]byte, config.InputBufferSize)
			return &b
		},
	}
	t.capacity.Store(int64(config.MaxClients))
	t.occupied.Store(0)
	t.metrics.SetOccupied(0)

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	Logger.Infof("[%s] Starting %s server on %s with %d slots of %d bytes",
		config.Name, t.connector.GetName(), listener.Addr(), config.MaxClients, config.InputBufferSize)

	if t.handlers.OnListening != nil {
		t.handlers.OnListening(listener.Addr())
	}

	go t.acceptLoop(listener)

	for {
		select {
		case <-ctx.Done():
			t.shutdown(listener)
			return nil
		case ev := <-t.events:
			switch ev.kind {
			case evAccept:
				t.handleAccept(ev.conn)
			case evRead:
				t.handleRead(ev)
			}
		}
	}
}

// --------------------------------------------------------------------------
// Reactor
// --------------------------------------------------------------------------

// handleAccept assigns the lowest free slot to conn or closes conn if the table is full
func (t *serverTransport) handleAccept(conn net.Conn) {
	id, ok := t.slots.acquire(conn)
	if !ok {
		Logger.Warningf("[%s] Rejecting connection from %s: all %d slots occupied",
			t.config.Name, conn.RemoteAddr(), t.config.MaxClients)
		t.metrics.Rejected()
		_ = conn.Close()
		return
	}

	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		Logger.Warningf("[%s] Failed to upgrade connection of slot %d: %v", t.config.Name, id, err)
	}

	s := t.slots.get(id)
	t.occupied.Store(int64(t.slots.occupied))
	t.metrics.Accepted()
	t.metrics.SetOccupied(t.slots.occupied)
	Logger.Infof("[%s] Accepted connection from %s in slot %d (%d/%d occupied)",
		t.config.Name, conn.RemoteAddr(), id, t.slots.occupied, t.config.MaxClients)

	go t.readLoop(conn, id, s.gen, len(s.buf), s.resume, s.done)

	if t.handlers.OnConnected != nil {
		t.handlers.OnConnected(t, id)
	}
}

// handleRead appends the bytes of a read event to the slot and dispatches complete frames
func (t *serverTransport) handleRead(ev event) {
	defer t.bufferPool.Put(ev.buf)

	s := t.slots.live(ev.slot, ev.gen)
	if s == nil {
		// the slot was torn down while the read was in flight
		return
	}

	if ev.n > 0 {
		// the reader never reads more than the free space it was given
		s.off += copy(s.buf[s.off:], (*ev.buf)[:ev.n])
		t.dispatch(ev.slot)
	}

	if s = t.slots.live(ev.slot, ev.gen); s == nil {
		return
	}

	if ev.err != nil {
		if errors.Is(ev.err, io.EOF) {
			Logger.Infof("[%s] Connection of slot %d closed by client", t.config.Name, ev.slot)
		} else {
			Logger.Warningf("[%s] Read error on slot %d: %v", t.config.Name, ev.slot, ev.err)
		}
		t.teardown(ev.slot)
		return
	}

	if s.free() == 0 {
		Logger.Warningf("[%s] Input buffer of slot %d is full without a complete frame", t.config.Name, ev.slot)
		t.metrics.ProtocolError()
		t.teardown(ev.slot)
		return
	}

	// never blocks, the reader waits for exactly one value per event
	s.resume <- s.free()
}

// teardown closes the connection of a slot and frees it. Other slots are never touched
func (t *serverTransport) teardown(id transport.SlotID) {
	if !t.slots.release(id) {
		return
	}
	t.occupied.Store(int64(t.slots.occupied))
	t.metrics.Disconnected()
	t.metrics.SetOccupied(t.slots.occupied)
	Logger.Debugf("[%s] Slot %d released (%d/%d occupied)", t.config.Name, id, t.slots.occupied, t.config.MaxClients)

	if t.handlers.OnDisconnected != nil {
		t.handlers.OnDisconnected(t, id)
	}
}

// shutdown closes the listener and tears down every occupied slot
func (t *serverTransport) shutdown(listener net.Listener) {
	close(t.stop)
	if err := listener.Close(); err != nil {
		Logger.Warningf("[%s] Failed to close listener: %v", t.config.Name, err)
	}
	for i := range t.slots.slots {
		t.teardown(transport.SlotID(i))
	}
	Logger.Infof("[%s] Server stopped", t.config.Name)
}

// --------------------------------------------------------------------------
// Feeder goroutines
// --------------------------------------------------------------------------

// acceptLoop accepts connections and hands them to the reactor
func (t *serverTransport) acceptLoop(listener net.Listener) {
	var backoff time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			// e.g. too many open files, retry with backoff
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else if backoff *= 2; backoff > time.Second {
				backoff = time.Second
			}
			Logger.Errorf("[%s] Accept error: %v; retrying in %v", t.config.Name, err, backoff)

			select {
			case <-time.After(backoff):
				continue
			case <-t.stop:
				return
			}
		}
		backoff = 0

		select {
		case t.events <- event{kind: evAccept, conn: conn}:
		case <-t.stop:
			_ = conn.Close()
			return
		}
	}
}

// readLoop reads from one connection. It never touches slot state: every read is
// handed to the reactor, which answers with the byte limit for the next read
func (t *serverTransport) readLoop(conn net.Conn, id transport.SlotID, gen uint64, limit int, resume <-chan int, done <-chan struct{}) {
	for {
		buf := t.bufferPool.Get().(*[]byte)
		n, err := conn.Read((*buf)[:limit])

		select {
		case t.events <- event{kind: evRead, slot: id, gen: gen, buf: buf, n: n, err: err}:
		case <-done:
			t.bufferPool.Put(buf)
			return
		}

		if err != nil {
			return
		}

		select {
		case limit = <-resume:
		case <-done:
			return
		}
	}
}
