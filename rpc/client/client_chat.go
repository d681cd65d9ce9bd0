package client

import (
	"github.com/ValentinKolb/dReact/rpc/common"
	"github.com/ValentinKolb/dReact/rpc/transport"
)

// ChatMessage is a message received from the chat
type ChatMessage struct {
	User string
	Text string
}

// ChatClient is a client of the broadcast chat service.
// Send may be used concurrently with Receive; Receive must only be used by one goroutine
type ChatClient struct {
	rpcClientAdapter
	user string

	// broadcasts received before the connect acknowledgement
	pending []ChatMessage
}

// NewChatClient connects to a chat server and announces the display name user.
// It returns once the server acknowledged the name
func NewChatClient(
	user string,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
) (*ChatClient, error) {
	c := &ChatClient{
		rpcClientAdapter: rpcClientAdapter{
			config:    config,
			transport: transport,
		},
		user: user,
	}

	// Connect the transport
	if err := c.connect(); err != nil {
		return nil, err
	}

	if err := c.transport.Send(common.NewChatConnectRequest(user)); err != nil {
		_ = c.Close()
		return nil, err
	}

	// messages of other clients may arrive before the acknowledgement
	for {
		resp, err := c.receive(common.MsgTChatConnected, common.MsgTChatMessage)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		if resp.MsgType == common.MsgTChatConnected {
			break
		}
		c.pending = append(c.pending, ChatMessage{User: resp.User, Text: resp.Text})
	}

	return c, nil
}

// Send broadcasts text to every client of the chat (including this one)
func (c *ChatClient) Send(text string) error {
	return c.transport.Send(common.NewChatMessage(c.user, text))
}

// Receive blocks until the next chat message arrives
func (c *ChatClient) Receive() (ChatMessage, error) {
	if len(c.pending) > 0 {
		msg := c.pending[0]
		c.pending = c.pending[1:]
		return msg, nil
	}

	resp, err := c.receive(common.MsgTChatMessage)
	if err != nil {
		return ChatMessage{}, err
	}
	return ChatMessage{User: resp.User, Text: resp.Text}, nil
}
