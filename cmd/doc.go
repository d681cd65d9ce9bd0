// Package cmd implements the command-line interface of dReact. It provides a
// hierarchical command structure for running the reactor servers and for
// talking to them as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts the chat and exec servers (plus an optional metrics endpoint)
//   - chat: Commands for the broadcast chat (send, listen)
//   - exec: Commands for the command execution server (run, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dreact -help for a list of all commands.
package cmd
