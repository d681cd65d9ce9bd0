package chat

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	sendCmd = &cobra.Command{
		Use:   "send [text...]",
		Short: "Sends a message to every client of the chat. Without arguments every line of stdin is sent",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newChatClient(false)
			if err != nil {
				return err
			}
			defer c.Close()

			if len(args) > 0 {
				return c.Send(strings.Join(args, " "))
			}

			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				if err := c.Send(scanner.Text()); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
	listenCmd = &cobra.Command{
		Use:   "listen",
		Short: "Prints every message of the chat until the connection is closed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newChatClient(true)
			if err != nil {
				return err
			}
			defer c.Close()

			for {
				msg, err := c.Receive()
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s\n", msg.User, msg.Text)
			}
		},
	}
)
