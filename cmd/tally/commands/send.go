package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallybot/tally/internal/service"
)

// send <message>: submit one message and print the reply, if any.
func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Submit one message to the treasurer and print the reply",
		Long: `Submit one message to the treasurer and print the reply.

Messages use the treasurer grammar, for example:

  tally send --from AA "30|AA,BB,CC"
  tally send --from AA "12.50|AA,BB+2.50 \"cinema\""
  tally send --from AA "CREATE TRIP"
  tally send --from AA BALANCE

Malformed messages and failed commands produce no output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, ok := treasurer.Handle(cmd.Context(), service.Message{
				Sender: from,
				Date:   time.Now(),
				Text:   args[0],
			})
			if ok {
				fmt.Fprintln(cmd.OutOrStdout(), reply)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "sender handle (two uppercase letters)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
