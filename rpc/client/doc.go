// Package client implements clients for the broadcast chat and the command
// execution services. Both run over any transport.IRPCClientTransport (tcp, unix).
//
// Key Components:
//
//   - NewChatClient: connects, announces a display name and waits for the
//     acknowledgement. Send broadcasts a text, Receive returns the next message
//     of any client (including the own ones).
//
//   - NewExecClient: Execute streams the output of a command to an io.Writer and
//     returns a *CommandError if the command ended with an Error frame. Run
//     collects the output instead.
//
// Usage Example:
//
//	config := common.ClientConfig{Endpoint: "localhost:28000", TimeoutSecond: 5, MaxFrameSize: 128}
//	codec := serializer.NewFrameCodec(serializer.NewBinarySerializer(), config.MaxFrameSize)
//
//	exec, _ := client.NewExecClient(config, tcp.NewTCPClientTransport(codec))
//	defer exec.Close()
//	out, err := exec.Run("uname -a")
//
// Thread Safety:
//
//	ExecClient is not safe for concurrent use. ChatClient allows one goroutine
//	calling Receive while another calls Send.
package client
