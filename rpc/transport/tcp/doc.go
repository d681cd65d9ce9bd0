// Package tcp implements the TCP socket transport for the reactor servers and
// their clients. It provides concrete implementations of the base package's
// connector interfaces.
//
// This package builds on the base package's transport functionality; see the base
// package documentation for the reactor and slot semantics.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
//
// Both connectors apply the same connection tuning (TCP_NODELAY, keep-alive,
// SO_LINGER and socket buffer sizes) from common.TCPConf and common.SocketConf.
package tcp
