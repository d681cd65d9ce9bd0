// Package base provides the protocol independent core of the reactor servers and
// their clients. Concrete transports (tcp, unix) only contribute a connector that
// creates listeners or connections and tunes them.
//
// The package focuses on:
//   - A bounded reactor: a fixed number of slots, each with a fixed input buffer
//   - Sequential handler execution on one goroutine per server instance
//   - Slot-local failure handling: a broken or misbehaving client never affects another
//   - A simple framed client connection
//
// Key Components:
//
//   - IServerConnector/IClientConnector: Interfaces for protocol-specific operations
//     that allow extending the base transport with different network protocols.
//
//   - serverTransport: The reactor. One goroutine receives events from a single
//     channel and owns the slot table, the encode workspace and every handler call.
//     An accept goroutine and one reader goroutine per occupied slot feed it.
//
//   - slotTable: N slots whose input buffers are carved out of one arena allocated
//     at startup. Accept takes the lowest free slot; a full table closes the new
//     connection immediately.
//
//   - dispatch: Appends read bytes to the slot, decodes every complete frame and
//     invokes the request handler. Malformed frames, unsupported requests and a
//     full buffer without a complete frame close the slot.
//
//   - clientTransport: One connection that writes frames and reassembles received
//     frames in a fixed buffer.
//
// Reader goroutines never touch slot state. A reader reads into a pooled scratch
// buffer, hands the bytes to the reactor and then waits until the reactor tells it
// how many bytes it may read next (the free space of the slot). This keeps the
// per-slot backpressure of a readiness based event loop: a slot whose buffer is
// full is not read from.
//
// Thread Safety:
//
//	Capacity and Occupied are safe to call from any goroutine. Reply and Broadcast
//	must only be called by handlers, which always run on the reactor goroutine.
package base
