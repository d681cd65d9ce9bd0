package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dReact/cmd/chat"
	"github.com/ValentinKolb/dReact/cmd/exec"
	"github.com/ValentinKolb/dReact/cmd/serve"
	"github.com/ValentinKolb/dReact/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dreact",
		Short: "bounded reactor servers for chat and remote command execution",
		Long: fmt.Sprintf(`dReact (v%s)

Fixed-capacity, event-driven protocol servers written in Go:
a broadcast chat service and a remote command execution service,
each running a single reactor loop over a bounded set of client slots.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dReact",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dReact v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper (env files and variables)
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(chat.ChatCommands)
	RootCmd.AddCommand(exec.ExecCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (binary, json, gob). Must match between server and clients"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
	key = "config"
	RootCmd.PersistentFlags().String(key, "", util.WrapString("Optional config file (yaml, toml, json, ...). Keys are the flag names (e.g. chat-max-clients: 20)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
