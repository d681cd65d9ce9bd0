package shell

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"

	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("shell")

// IExecutor runs a command string synchronously and returns its exit status and
// captured output. err is only set if the command could not be run at all; a
// command that ran and failed reports a non-zero status instead.
//
// The returned output is only valid until the next call to Execute.
type IExecutor interface {
	Execute(command string) (status int, output []byte, err error)
}

// --------------------------------------------------------------------------
// Shell executor
// --------------------------------------------------------------------------

// ShellExecutor runs commands with "<shell> -c <command>" and captures stdout and
// stderr into one reused buffer
type ShellExecutor struct {
	shell     string
	maxOutput int
	buf       bytes.Buffer
}

// NewShellExecutor creates an executor using the given shell (e.g. "/bin/sh").
// Output beyond maxOutput bytes is discarded (maxOutput <= 0 disables the limit)
func NewShellExecutor(shell string, maxOutput int) *ShellExecutor {
	return &ShellExecutor{
		shell:     shell,
		maxOutput: maxOutput,
	}
}

// Execute implements IExecutor. It must not be called concurrently
func (e *ShellExecutor) Execute(command string) (int, []byte, error) {
	e.buf.Reset()
	out := &limitedWriter{buf: &e.buf, limit: e.maxOutput}

	cmd := exec.Command(e.shell, "-c", command)
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	if out.dropped > 0 {
		Logger.Warningf("Output of %q truncated, %d bytes dropped", command, out.dropped)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, e.buf.Bytes(), nil
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), e.buf.Bytes(), nil
	default:
		return -1, e.buf.Bytes(), fmt.Errorf("failed to run %q: %w", command, err)
	}
}

// limitedWriter writes into buf until limit bytes were written and silently drops the rest
type limitedWriter struct {
	buf     *bytes.Buffer
	limit   int
	dropped int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if w.limit > 0 {
		if room := w.limit - w.buf.Len(); room < len(p) {
			if room < 0 {
				room = 0
			}
			w.dropped += len(p) - room
			p = p[:room]
		}
	}
	w.buf.Write(p)
	// report the full length so the command is not killed by a short write
	return n, nil
}

// --------------------------------------------------------------------------
// Echo executor
// --------------------------------------------------------------------------

// EchoExecutor does not run anything. It answers every command with a placeholder
// text, which is handy for demos and for running the exec service unprivileged
type EchoExecutor struct {
	buf []byte
}

// NewEchoExecutor creates a new EchoExecutor
func NewEchoExecutor() *EchoExecutor {
	return &EchoExecutor{}
}

// Execute implements IExecutor
func (e *EchoExecutor) Execute(command string) (int, []byte, error) {
	e.buf = fmt.Appendf(e.buf[:0], "The output of '%s' should go here.", command)
	return 0, e.buf, nil
}
