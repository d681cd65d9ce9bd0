package chat

import (
	"os"

	"github.com/ValentinKolb/dReact/cmd/util"
	"github.com/ValentinKolb/dReact/rpc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// ChatCommands represents the chat command group
	ChatCommands = &cobra.Command{
		Use:               "chat",
		Short:             "Send and receive messages of a chat server",
		PersistentPreRunE: setupChatClient,
	}
)

func init() {
	// Add common RPC flags to the chat command
	util.SetupRPCClientFlags(ChatCommands, "localhost:6000")

	ChatCommands.PersistentFlags().String("user", os.Getenv("USER"), util.WrapString("The display name announced to the chat"))

	// Add subcommands
	ChatCommands.AddCommand(sendCmd)
	ChatCommands.AddCommand(listenCmd)
}

// setupChatClient binds the flags of the chat commands to viper and initializes logging
func setupChatClient(cmd *cobra.Command, _ []string) error {
	return util.SetupClientCommand(cmd)
}

// newChatClient connects to the chat server with the configured name.
// An idle client has no read deadline, so it can wait for messages forever
func newChatClient(idle bool) (*client.ChatClient, error) {
	config := util.GetClientConfig()
	if idle {
		config.TimeoutSecond = 0
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	codec, err := util.GetCodec(config.MaxFrameSize)
	if err != nil {
		return nil, err
	}

	t, err := util.GetClientTransport(codec)
	if err != nil {
		return nil, err
	}

	return client.NewChatClient(viper.GetString("user"), config, t)
}
