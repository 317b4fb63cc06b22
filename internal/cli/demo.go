package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/petasbytes/go-assistant/internal/logger"
	"github.com/petasbytes/go-assistant/processor"
)

const (
	demoName         = "Math Tutor"
	demoInstructions = "You are a personal math tutor. Write and run code to answer math questions."
	// DefaultDemoContent is the question the demo sends when --content is unset.
	DefaultDemoContent = "Solve the equation: 3x + 7 = 22. Show all solution steps."
)

func newDemoCommand(a *app) *cobra.Command {
	var content string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Create a math tutor, ask it one question and print the reply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDemo(cmd.Context(), content)
		},
	}
	cmd.Flags().StringVar(&content, "content", DefaultDemoContent, "message to send")
	return cmd
}

// runDemo provisions an assistant and thread, sends one message and awaits
// one reply. Send and await failures are reported and end the flow without
// failing the command.
func (a *app) runDemo(ctx context.Context, content string) error {
	asst, err := a.proc.CreateAssistant(ctx, processor.AssistantParams{
		Name:         demoName,
		Instructions: demoInstructions,
		Tools:        []processor.Tool{{Type: processor.ToolCodeInterpreter}},
	})
	if err != nil {
		return err
	}
	a.out.Success("Created assistant %s (%s)", asst.Name, asst.ID)

	thread, err := a.proc.GetOrCreateThread(ctx, "")
	if err != nil {
		return err
	}
	a.out.Success("Created thread %s", thread.ID)

	if _, err := a.proc.CreateMessage(ctx, thread.ID, asst.ID, content); err != nil {
		a.out.ErrorBox("Failed to send message", err)
		return nil
	}
	a.out.Success("Message sent")

	reply, err := a.proc.GetAssistantResponse(ctx, thread.ID, 0)
	if err != nil {
		logger.WithError(logger.FromContext(ctx), err).Error("awaiting assistant response failed", "thread_id", thread.ID)
		a.out.ErrorBox("Failed to get assistant response", err)
		return nil
	}
	a.out.Reply(asst.Name, reply)
	return nil
}
