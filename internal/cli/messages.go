package cli

import (
	"github.com/spf13/cobra"
)

func newMessagesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "messages <thread-id>",
		Short: "List the messages of a thread, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msgs, err := a.proc.GetThreadMessages(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.out.Transcript(msgs)
			return nil
		},
	}
}
