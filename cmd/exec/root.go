package exec

import (
	"github.com/ValentinKolb/dReact/cmd/util"
	"github.com/ValentinKolb/dReact/rpc/client"
	"github.com/spf13/cobra"
)

var (
	// ExecCommands represents the exec command group
	ExecCommands = &cobra.Command{
		Use:               "exec",
		Short:             "Run commands on an exec server",
		PersistentPreRunE: setupExecClient,
	}
)

func init() {
	// Add common RPC flags to the exec command
	util.SetupRPCClientFlags(ExecCommands, "localhost:28000")

	// Add subcommands
	ExecCommands.AddCommand(runCmd)
	ExecCommands.AddCommand(perfTestCmd)
}

// setupExecClient binds the flags of the exec commands to viper and initializes logging
func setupExecClient(cmd *cobra.Command, _ []string) error {
	return util.SetupClientCommand(cmd)
}

// newExecClient connects a new client to the exec server
func newExecClient() (*client.ExecClient, error) {
	config := util.GetClientConfig()
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

	return client.NewExecClient(config, t)
}
