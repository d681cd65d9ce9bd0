// Package serializer provides message serialization and framing for the reactor
// servers and their clients. It defines a common interface and multiple payload
// implementations, and the length prefixed FrameCodec that the server core uses to
// find frame boundaries in a byte stream.
//
// The package focuses on:
//   - Providing a consistent interface for different serialization formats
//   - Writing into caller supplied buffers so fixed workspaces can be reused
//   - A decode contract that separates incomplete from malformed input
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: Custom binary format implementation optimized for speed
//     and space efficiency. Uses a flag-based approach to encode only present fields,
//     resulting in compact serialized data with minimal overhead.
//
//   - gobSerializerImpl: Implementation using Go's built-in gob encoding. Every payload
//     carries its own type information, so it is by far the largest format.
//
//   - jsonSerializerImpl: Implementation using JSON encoding, useful for debugging
//     or interoperability with other systems, but with lower performance.
//
//   - FrameCodec: uint32 big endian length prefix followed by a payload. Decode reports
//     common.ErrIncompleteFrame for a prefix of a frame and wraps common.ErrMalformedFrame
//     for input that can never become a frame (zero length, oversize, corrupt payload,
//     unknown message type).
//
// Performance Characteristics:
//
//   - Binary: smallest payloads and no allocation when encoding into a workspace with
//     enough capacity. Recommended for production use and the CLI default.
//
//   - JSON: human-readable, handy when inspecting traffic.
//
//   - GOB: not recommended with the small default buffers (128 bytes), since the
//     type description alone takes a large share of a frame.
//
// Thread Safety:
//
//	All serializer implementations and the FrameCodec are stateless and safe for
//	concurrent use across multiple goroutines without additional synchronization.
//
// Usage:
//
//	codec := serializer.NewFrameCodec(serializer.NewBinarySerializer(), 128)
//	frame, err := codec.Encode(workspace[:0], common.NewChatMessage("alice", "hi"))
//	// ... send frame ...
//	var msg common.Message
//	n, err := codec.Decode(received, &msg)
package serializer
