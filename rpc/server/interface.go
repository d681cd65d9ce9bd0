package server

import (
	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/transport"
)

// HandleFunc handles one decoded request of a slot. It runs on the reactor goroutine
type HandleFunc func(r transport.IReactor, slot transport.SlotID, req *common.Message) error

// Routes is the dispatch table of an adapter, indexed by request kind.
// Kinds without a handler are protocol violations
type Routes [common.MsgTCount]HandleFunc

// IRPCServerAdapter is the interface for all RPC server adapters.
// An adapter implements the application semantics (chat, exec) of one server instance
type IRPCServerAdapter interface {
	// Name returns the name of the adapter for logging
	Name() string
	// Routes returns the request handlers of the adapter. It is called once by NewRPCServer
	Routes() Routes
	// OnConnected is called when a client occupies a slot
	OnConnected(r transport.IReactor, slot transport.SlotID)
	// OnDisconnected is called after a slot was freed
	OnDisconnected(r transport.IReactor, slot transport.SlotID)
}
