package base

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var clientLogger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection based on the provided configuration
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientTransport implements a single framed connection independent of the
// specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
	codec     transport.ICodec
	config    common.ClientConfig
	conn      net.Conn

	// writes are serialized, the encode buffer is reused
	writeMu sync.Mutex
	out     []byte

	// in accumulates received bytes until a complete frame is available
	in  []byte
	off int
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector, codec transport.ICodec) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
		codec:     codec,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid client configuration: %w", err)
	}

	conn, err := t.connector.Connect(config.Endpoint, config.Timeout())
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", config.Endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := t.connector.UpgradeConnection(conn, config); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %w", config.Endpoint, err)
	}

	t.config = config
	t.conn = conn
	t.in = make([]byte, config.MaxFrameSize)
	t.off = 0
	t.out = make([]byte, 0, config.MaxFrameSize)

	clientLogger.Debugf("Connected to %s using %s transport", config.Endpoint, t.connector.GetName())
	return nil
}

func (t *clientTransport) Send(msg *common.Message) error {
	if t.conn == nil {
		return fmt.Errorf("not connected")
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	frame, err := t.codec.Encode(t.out[:0], msg)
	if err != nil {
		return err
	}
	if cap(frame) > cap(t.out) {
		// keep the larger buffer for the next frame
		t.out = frame[:0]
	}

	return writeFull(t.conn, frame, t.config.Timeout())
}

func (t *clientTransport) Receive(msg *common.Message) error {
	if t.conn == nil {
		return fmt.Errorf("not connected")
	}

	for {
		if t.off > 0 {
			n, err := t.codec.Decode(t.in[:t.off], msg)
			if err == nil {
				t.off = copy(t.in, t.in[n:t.off])
				return nil
			}
			if !errors.Is(err, common.ErrIncompleteFrame) {
				return err
			}
			if t.off == len(t.in) {
				return fmt.Errorf("%w: no complete frame in %d bytes", common.ErrMalformedFrame, len(t.in))
			}
		}

		if timeout := t.config.Timeout(); timeout > 0 {
			if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
				return err
			}
		}

		n, err := t.conn.Read(t.in[t.off:])
		t.off += n
		if err != nil && n == 0 {
			return err
		}
	}
}

func (t *clientTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
