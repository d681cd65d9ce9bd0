package transport

import (
	"context"
	"net"

	"github.com/ValentinKolb/dReact/rpc/common"
)

// --------------------------------------------------------------------------
// Framing
// --------------------------------------------------------------------------

// ICodec turns messages into frames and back. The server core depends only on this
// contract, serializer.FrameCodec is the implementation shipped with this module.
type ICodec interface {
	// Encode appends the frame for msg to dst and returns the extended slice
	Encode(dst []byte, msg *common.Message) ([]byte, error)
	// Decode decodes the first frame in src into msg and returns the number of bytes consumed.
	// The error is nil for a complete frame, common.ErrIncompleteFrame if more bytes are
	// needed, or wraps common.ErrMalformedFrame if src can never become a valid frame
	Decode(src []byte, msg *common.Message) (int, error)
}

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// SlotID is the stable index of a client slot in [0, MaxClients)
type SlotID int

// IReactor is the view request handlers get of a running server instance.
// All methods must only be called from within a handler (the reactor goroutine),
// except Capacity and Occupied which are safe to call from anywhere.
type IReactor interface {
	// Reply encodes msg and writes it to the given slot.
	// A write failure tears the slot down and returns an error wrapping common.ErrSlotClosed.
	// common.ErrFrameTooLarge is returned if the frame does not fit the encode workspace
	Reply(slot SlotID, msg *common.Message) error
	// Broadcast encodes msg once and writes it to every occupied slot in ascending order.
	// Recipients whose write fails are torn down; delivery to the others continues.
	// It returns the number of slots the frame was delivered to
	Broadcast(msg *common.Message) (int, error)
	// Capacity returns the number of slots
	Capacity() int
	// Occupied returns the number of occupied slots
	Occupied() int
}

// RequestHandleFunc handles a decoded request of a slot. The request is only valid
// until the function returns. Returning an error wrapping common.ErrUnsupportedRequest
// is treated as a protocol violation and closes the slot
type RequestHandleFunc func(r IReactor, slot SlotID, req *common.Message) error

// SlotHandleFunc is called when a slot becomes occupied or free
type SlotHandleFunc func(r IReactor, slot SlotID)

// ServerHandlers bundles the callbacks a server transport invokes. Nil callbacks are skipped
type ServerHandlers struct {
	OnConnected    SlotHandleFunc
	OnDisconnected SlotHandleFunc
	OnRequest      RequestHandleFunc
	// OnListening is called once the listener is bound (useful with port 0)
	OnListening func(addr net.Addr)
}

// IMetrics receives transport level events. Implementations must be safe for concurrent use
type IMetrics interface {
	Accepted()
	Rejected()
	Disconnected()
	ProtocolError()
	FrameIn()
	FrameOut()
	SetOccupied(n int)
}

// IRPCServerTransport is the interface for the RPC transport layer.
// It must accept a ServerConfig as a parameter
type IRPCServerTransport interface {
	// RegisterHandlers registers the callbacks for the transport layer.
	// It must be called before Listen
	RegisterHandlers(handlers ServerHandlers)
	// Listen binds the listener and runs the reactor until ctx is cancelled (returns nil)
	// or a fatal error occurs (listener creation, invalid configuration)
	Listen(ctx context.Context, config common.ServerConfig) error
	// Capacity returns the number of slots (0 before Listen)
	Capacity() int
	// Occupied returns the number of occupied slots
	Occupied() int
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport.
// Send may be called concurrently with Receive, but each of them only by one goroutine at a time
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration
	Connect(config common.ClientConfig) error
	// Send writes one request frame
	Send(msg *common.Message) error
	// Receive blocks until the next frame was read and decodes it into msg
	Receive(msg *common.Message) error
	// Close closes the transport connection
	Close() error
}
