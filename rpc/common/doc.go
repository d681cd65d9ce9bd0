// Package common provides core data structures and utilities shared across
// the reactor servers, their clients and the command line tools. It defines the
// message protocol, configuration structures and the logging setup.
//
// The package focuses on:
//   - Message protocol definition for chat and command execution
//   - Configuration structures for server instances and clients
//   - Custom logging implementation integrated with Dragonboat's logger registry
//
// Key Components:
//
//   - Message: Tagged value used for every request and response frame. The
//     MsgType discriminant selects which fields are meaningful. Factory
//     functions exist for every kind.
//
//   - MessageType: Closed enumeration of all request and response kinds.
//     MsgTCount sizes the per-kind dispatch tables of the server.
//
//   - ServerConfig: Capacity and buffer sizes of one server instance, fixed at
//     construction. Validated with struct tags (go-playground/validator).
//
//   - ClientConfig: Endpoint, timeout and frame limit of a client connection.
//
//   - Sentinel errors: ErrIncompleteFrame and ErrMalformedFrame form the decode
//     contract between codecs and the reactor; ErrFrameTooLarge, ErrSlotClosed
//     and ErrUnsupportedRequest are reported by the server core.
//
//   - Logger: Custom logging implementation that plugs into Dragonboat's
//     logger package so every package can use logger.GetLogger(name).
package common
