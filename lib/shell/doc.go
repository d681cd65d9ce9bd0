// Package shell provides the command execution facility used by the exec service.
//
// Key Components:
//
//   - IExecutor: runs a command string synchronously and returns the exit status
//     and the captured output.
//
//   - ShellExecutor: runs "<shell> -c <command>" with stdout and stderr captured
//     into one buffer that is reused between calls. An optional limit bounds the
//     captured output.
//
//   - EchoExecutor: runs nothing and returns a placeholder text naming the command.
//
// Executors are called from the reactor goroutine of the exec service. A long
// running command therefore blocks every other client of that instance until it
// returns. There is no timeout and no way to cancel a running command.
package shell
