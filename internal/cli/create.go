package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petasbytes/go-assistant/processor"
	"github.com/petasbytes/go-assistant/tools"
)

func newCreateCommand(a *app) *cobra.Command {
	var (
		name         string
		instructions string
		codeInterp   bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an assistant with the built-in functions and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := processor.AssistantParams{
				Name:         name,
				Instructions: instructions,
				Tools:        processor.NewFunctions(tools.Registry()).Tools(),
			}
			if codeInterp {
				params.Tools = append(params.Tools, processor.Tool{Type: processor.ToolCodeInterpreter})
			}
			asst, err := a.proc.CreateAssistant(cmd.Context(), params)
			if err != nil {
				return err
			}
			a.out.Success("Created assistant %s with %d tools", asst.Name, len(asst.Tools))
			fmt.Fprintln(cmd.OutOrStdout(), asst.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", chatName, "assistant name")
	cmd.Flags().StringVar(&instructions, "instructions", chatInstructions, "assistant instructions")
	cmd.Flags().BoolVar(&codeInterp, "code-interpreter", false, "also enable the code interpreter tool")
	return cmd
}
