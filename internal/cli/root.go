// Package cli implements the asst command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/petasbytes/go-assistant/internal/config"
	"github.com/petasbytes/go-assistant/internal/fsops"
	"github.com/petasbytes/go-assistant/internal/logger"
	"github.com/petasbytes/go-assistant/internal/telemetry"
	"github.com/petasbytes/go-assistant/internal/ui"
	"github.com/petasbytes/go-assistant/processor"
	"github.com/petasbytes/go-assistant/tools"

	// Registers the openai and anthropic providers.
	_ "github.com/petasbytes/go-assistant/internal/provider"
)

// app carries state shared by subcommands once setup has run.
type app struct {
	configPath string
	provider   string
	model      string

	cfg    *config.Config
	closer io.Closer
	proc   *processor.Processor
	out    *ui.Printer
}

// NewRootCommand builds the asst command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "asst",
		Short:         "Talk to hosted assistants through one provider-agnostic processor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd); err != nil {
				return errors.Join(err, a.teardown())
			}
			return nil
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to assistant.yaml")
	flags.StringVarP(&a.provider, "provider", "p", "", "provider name (overrides config)")
	flags.StringVarP(&a.model, "model", "m", "", "model identifier (overrides config)")

	root.AddCommand(
		newDemoCommand(a),
		newChatCommand(a),
		newCreateCommand(a),
		newSendCommand(a),
		newMessagesCommand(a),
	)
	// Cobra skips post-run hooks when RunE fails, so release resources here.
	for _, c := range root.Commands() {
		run := c.RunE
		c.RunE = func(cmd *cobra.Command, args []string) error {
			return errors.Join(run(cmd, args), a.teardown())
		}
	}
	return root
}

// Execute runs the root command with a context cancelled by Ctrl-C and
// returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		ui.New(os.Stderr).Error("%v", err)
		if errors.Is(err, context.Canceled) {
			return 130
		}
		return 1
	}
	return 0
}

func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Name() == "help" {
		return nil
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.provider != "" && a.provider != cfg.Provider {
		cfg.Provider = a.provider
		// The key resolved for the configured provider does not apply.
		cfg.APIKey = os.Getenv(config.CredentialEnv(cfg.Provider))
	}
	if a.model != "" {
		cfg.Model = a.model
	}
	a.cfg = cfg

	log, closer, err := logger.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	a.closer = closer
	cmd.SetContext(logger.WithContext(cmd.Context(), log))

	if cfg.Observe {
		telemetry.SetObserve(true)
	}
	if cfg.Sandbox.ReadRoot != "" {
		if err := fsops.SetRoot(cfg.Sandbox.ReadRoot); err != nil {
			return fmt.Errorf("invalid sandbox.read_root: %w", err)
		}
	}

	proc, err := processor.New(cfg.Processor(tools.Registry(), log))
	if err != nil {
		return fmt.Errorf("failed to create %s processor: %w", cfg.Provider, err)
	}
	a.proc = proc
	a.out = ui.New(cmd.OutOrStdout())
	log.Debug("processor ready", "provider", proc.Name(), "model", proc.Model())
	return nil
}

// teardown closes the processor and the log file. It is safe to call twice.
func (a *app) teardown() error {
	var errs []error
	if a.proc != nil {
		errs = append(errs, a.proc.Close())
		a.proc = nil
	}
	if a.closer != nil {
		errs = append(errs, a.closer.Close())
		a.closer = nil
	}
	return errors.Join(errs...)
}
