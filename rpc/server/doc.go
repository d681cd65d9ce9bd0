// Package server implements the two services built on the reactor transport: the
// broadcast chat and the remote command execution. It provides the adapters with
// their per-kind request handlers, the response chunker, metrics and a registry of
// running instances.
//
// The package focuses on:
//   - Server-side request handling for chat and exec
//   - Adapter pattern to decouple application logic from the reactor
//   - Exactly one terminal frame per command, whatever happens while streaming output
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters.
//     An adapter exposes an enum keyed dispatch table (Routes) and slot callbacks.
//
//   - NewChatServerAdapter: connect stores the display name of the slot and is
//     acknowledged with ChatConnected; a message is broadcast to every client,
//     the sender included, and the sender gets no other reply.
//
//   - NewExecServerAdapter: runs the command with a shell.IExecutor, streams the
//     output in ChunkSize frames and ends with Ok or Error{reason}. Output frames
//     that cannot be sent turn the terminal into an Error.
//
//   - NewRPCServer: binds an adapter to an IRPCServerTransport. Requests without a
//     route are protocol violations and close the slot.
//
//   - Metrics: VictoriaMetrics counters per instance, also used as the transport's
//     IMetrics sink.
//
//   - Registry: concurrent map of running servers for status reporting.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Name: "chat", Endpoint: ":6000", MaxClients: 10,
//	  InputBufferSize: 128, MessageSize: 128, WorkspaceInSize: 128, WorkspaceOutSize: 128,
//	}
//	codec := serializer.NewFrameCodec(serializer.NewBinarySerializer(), config.WorkspaceInSize)
//	m := server.NewMetrics(config.Name)
//	s := server.NewRPCServer(config, tcp.NewTCPServerTransport(codec, m), server.NewChatServerAdapter(config, m))
//	if err := s.Serve(ctx); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	Adapters are only called from the reactor goroutine of their instance and hold
//	no locks. Status, Addr and the Registry are safe for concurrent use. Serve must
//	only be called once per server.
package server
