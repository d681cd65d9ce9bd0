package client

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/transport"
)

// ExecClient is a client of the command execution service. It is not safe for concurrent use
type ExecClient struct {
	rpcClientAdapter
}

// NewExecClient connects to a command execution server
func NewExecClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
) (*ExecClient, error) {
	c := &ExecClient{
		rpcClientAdapter{
			config:    config,
			transport: transport,
		},
	}

	// Connect the transport
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// Execute runs command on the server and writes its output to w as it arrives.
// If the server ends the command with an Error frame a *CommandError is returned.
// If w fails, the remaining output is discarded up to the terminal frame and the
// write error is returned, so the client stays usable for the next command
func (c *ExecClient) Execute(command string, w io.Writer) error {
	if err := c.transport.Send(common.NewExecCommandRequest(command)); err != nil {
		return err
	}

	var writeErr error
	for {
		resp, err := c.receive(common.MsgTExecOutput, common.MsgTOk, common.MsgTError)
		if err != nil {
			return err
		}

		switch resp.MsgType {
		case common.MsgTExecOutput:
			if writeErr != nil {
				continue
			}
			if _, err := w.Write(resp.Output); err != nil {
				writeErr = fmt.Errorf("failed to write output: %w", err)
			}
		case common.MsgTOk:
			return writeErr
		case common.MsgTError:
			if writeErr != nil {
				return writeErr
			}
			return &CommandError{Command: command, Reason: resp.Err}
		}
	}
}

// Run runs command and returns its complete output. On a *CommandError the output
// received before the Error frame is returned as well
func (c *ExecClient) Run(command string) ([]byte, error) {
	var buf bytes.Buffer
	err := c.Execute(command, &buf)
	return buf.Bytes(), err
}
