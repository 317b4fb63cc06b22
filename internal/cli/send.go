package cli

import (
	"github.com/spf13/cobra"
)

func newSendCommand(a *app) *cobra.Command {
	var assistantID string
	cmd := &cobra.Command{
		Use:   "send <thread-id> <content>",
		Short: "Send a message to a thread and print the assistant's reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			threadID, content := args[0], args[1]
			if _, err := a.proc.CreateMessage(ctx, threadID, assistantID, content); err != nil {
				return err
			}
			a.out.Success("Message sent")
			reply, err := a.proc.GetAssistantResponse(ctx, threadID, 0)
			if err != nil {
				return err
			}
			a.out.Reply("Assistant", reply)
			return nil
		},
	}
	cmd.Flags().StringVarP(&assistantID, "assistant", "a", "", "assistant id (defaults to assistant_id from config)")
	return cmd
}
