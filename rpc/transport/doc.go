// Package transport defines the interfaces and abstractions between the reactor
// core, the request handlers and the concrete network protocols. It provides a
// common contract that all transport implementations must fulfill.
//
// The package focuses on:
//   - Defining clear interfaces for client and server transport layers
//   - The codec contract (complete, incomplete, malformed) used to find frames
//   - The handler view of a running reactor (reply, broadcast, occupancy)
//
// Key Components:
//
//   - IRPCServerTransport: A bounded reactor. Owns the slot table and invokes
//     ServerHandlers from a single goroutine.
//
//   - IReactor: What handlers may do with the reactor while they run.
//
//   - ICodec: Frame encoding and decoding.
//
//   - IRPCClientTransport: Client side frame connection.
//
//   - IMetrics: Optional sink for transport events.
package transport
