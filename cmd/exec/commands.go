package exec

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ValentinKolb/dReact/rpc/client"
	"github.com/spf13/cobra"
)

var (
	runCmd = &cobra.Command{
		Use:   "run [command...]",
		Short: "Runs a command on the server and prints its output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newExecClient()
			if err != nil {
				return err
			}
			defer c.Close()

			err = c.Execute(strings.Join(args, " "), os.Stdout)

			var cmdErr *client.CommandError
			if errors.As(err, &cmdErr) {
				// the command ran, only its result is an error
				cmd.SilenceUsage = true
				fmt.Fprintln(os.Stderr, cmdErr.Reason)
			}
			return err
		},
	}
)
