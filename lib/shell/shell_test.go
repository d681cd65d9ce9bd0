package shell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShellExecutorSuccess(t *testing.T) {
	e := NewShellExecutor("/bin/sh", 0)

	status, out, err := e.Execute("echo hello; echo world >&2")
	require.NoError(t, err)
	require.Equal(t, 0, status)
	require.Contains(t, string(out), "hello\n")
	require.Contains(t, string(out), "world\n")
}

func TestShellExecutorExitStatus(t *testing.T) {
	e := NewShellExecutor("/bin/sh", 0)

	status, out, err := e.Execute("printf partial; exit 3")
	require.NoError(t, err)
	require.Equal(t, 3, status)
	require.Equal(t, "partial", string(out))
}

func TestShellExecutorMissingShell(t *testing.T) {
	e := NewShellExecutor("/does/not/exist", 0)

	status, _, err := e.Execute("true")
	require.Error(t, err)
	require.Equal(t, -1, status)
}

func TestShellExecutorOutputLimit(t *testing.T) {
	e := NewShellExecutor("/bin/sh", 10)

	status, out, err := e.Execute("printf 0123456789abcdef")
	require.NoError(t, err)
	require.Equal(t, 0, status)
	require.Equal(t, "0123456789", string(out))
}

func TestShellExecutorReusesBuffer(t *testing.T) {
	e := NewShellExecutor("/bin/sh", 0)

	_, out, err := e.Execute("printf first")
	require.NoError(t, err)
	require.Equal(t, "first", string(out))

	_, out, err = e.Execute("printf 2nd")
	require.NoError(t, err)
	require.Equal(t, "2nd", string(out))
}

func TestEchoExecutor(t *testing.T) {
	e := NewEchoExecutor()

	status, out, err := e.Execute("ls -la")
	require.NoError(t, err)
	require.Equal(t, 0, status)
	require.Equal(t, "The output of 'ls -la' should go here.", string(out))

	_, out, _ = e.Execute(strings.Repeat("x", 3))
	require.Equal(t, "The output of 'xxx' should go here.", string(out))
}
