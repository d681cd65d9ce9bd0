package client

import (
	"fmt"

	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
// Used by the ChatClient and ExecClient with composition pattern
type rpcClientAdapter struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
	// resp is reused for every received frame
	resp common.Message
}

// connect connects the transport of the adapter
func (a *rpcClientAdapter) connect() error {
	if err := a.transport.Connect(a.config); err != nil {
		return err
	}
	Logger.Debugf("Connected to %s", a.config.Endpoint)
	return nil
}

// receive reads the next frame and checks that its type is one of the expected types
func (a *rpcClientAdapter) receive(expected ...common.MessageType) (*common.Message, error) {
	if err := a.transport.Receive(&a.resp); err != nil {
		return nil, err
	}
	for _, t := range expected {
		if a.resp.MsgType == t {
			return &a.resp, nil
		}
	}
	return nil, fmt.Errorf("unexpected message type: %s, expected one of %v", a.resp.MsgType, expected)
}

// Close closes the connection
func (a *rpcClientAdapter) Close() error {
	return a.transport.Close()
}

// CommandError is returned when the server ended a command with an Error frame
type CommandError struct {
	Command string
	Reason  string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed: %s", e.Command, e.Reason)
}
