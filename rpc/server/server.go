package server

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc")

// RPCServer binds an adapter (chat, exec) to a reactor transport
type RPCServer struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	adapter   IRPCServerAdapter
	routes    Routes

	address atomic.Value // string, set once the listener is bound
	running atomic.Bool
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and adapter as parameters
//
// Usage:
//
//	codec := serializer.NewFrameCodec(serializer.NewBinarySerializer(), config.WorkspaceInSize)
//	m := server.NewMetrics(config.Name)
//	adapter := server.NewChatServerAdapter(config, m)
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(codec, m), adapter)
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	adapter IRPCServerAdapter,
) *RPCServer {
	Logger.Infof("Created RPC Server %q with %s adapter", config.Name, adapter.Name())
	Logger.Infof(config.String())

	return &RPCServer{
		config:    config,
		transport: transport,
		adapter:   adapter,
		routes:    adapter.Routes(),
	}
}

// Serve runs the server until ctx is cancelled (returns nil) or a fatal error occurs
func (s *RPCServer) Serve(ctx context.Context) error {
	s.transport.RegisterHandlers(transport.ServerHandlers{
		OnConnected:    s.adapter.OnConnected,
		OnDisconnected: s.adapter.OnDisconnected,
		OnRequest:      s.route,
		OnListening: func(addr net.Addr) {
			s.address.Store(addr.String())
			s.running.Store(true)
		},
	})
	defer s.running.Store(false)

	if err := s.transport.Listen(ctx, s.config); err != nil {
		return fmt.Errorf("server %q: %w", s.config.Name, err)
	}
	return nil
}

// Addr returns the bound listener address ("" before the listener is bound)
func (s *RPCServer) Addr() string {
	addr, _ := s.address.Load().(string)
	return addr
}

// Status returns the current state of the server. Safe for concurrent use
func (s *RPCServer) Status() InstanceStatus {
	return InstanceStatus{
		Name:     s.config.Name,
		Endpoint: s.config.Endpoint,
		Address:  s.Addr(),
		Running:  s.running.Load(),
		Capacity: s.config.MaxClients,
		Occupied: s.transport.Occupied(),
	}
}

// route looks up the handler for the request kind
func (s *RPCServer) route(r transport.IReactor, slot transport.SlotID, req *common.Message) error {
	if int(req.MsgType) >= len(s.routes) || s.routes[req.MsgType] == nil {
		return fmt.Errorf("%s adapter - %w: %s", s.adapter.Name(), common.ErrUnsupportedRequest, req.MsgType)
	}
	return s.routes[req.MsgType](r, slot, req)
}
