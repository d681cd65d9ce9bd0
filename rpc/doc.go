// Package rpc provides the bounded reactor servers and their clients. It is the
// communication layer between chat or exec clients and the server instances
// running in one process.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: The reactor core (slot table, event loop, dispatcher) and its
//     pluggable network connectors (TCP, Unix sockets).
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     and the length-prefixed frame codec used on the wire.
//
//   - client: Chat and exec clients built on the client transports.
//
//   - server: Binds adapters (chat broadcast, command execution) to a reactor,
//     plus per-instance metrics and a registry of running instances.
package rpc
