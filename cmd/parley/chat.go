package main

import (
	"os"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newChatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [conversation-id]",
		Short: "Chat with the assistant in the terminal",
		Long: `Starts an interactive conversation. Options are numbered; type a number to pick one.
Passing an existing conversation ID resumes it from the configured store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonMode, _ := cmd.Flags().GetBool("json")
			plain, _ := cmd.Flags().GetBool("plain")

			id := uuid.NewString()
			if len(args) == 1 {
				id = args[0]
			}

			rt, err := a.newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			var handler runner.IOHandler
			if jsonMode {
				jh := runner.NewJSONHandler(cmd.InOrStdin(), cmd.OutOrStdout())
				jh.MaxInput = a.cfg.Input.MaxSize
				handler = jh
			} else {
				opts := []runner.TextHandlerOption{runner.WithTextHandlerMaxInput(a.cfg.Input.MaxSize)}
				if !plain && tui.IsInteractive(os.Stdout) {
					tui.PrintBanner(cmd.OutOrStdout(), parley.Version)
					if render, err := tui.NewRenderer(tui.Width(os.Stdout)); err == nil {
						opts = append(opts, runner.WithTextHandlerRenderer(render))
					}
				}
				handler = runner.NewTextHandler(cmd.InOrStdin(), cmd.OutOrStdout(), opts...)
			}

			a.logger.Debug("starting chat", "conversation_id", id, "store", a.cfg.Store.Backend)
			return runner.New(rt.engine, id,
				runner.WithHandler(handler),
				runner.WithLogger(a.logger),
			).Run(cmd.Context())
		},
	}
	cmd.Flags().Bool("json", false, "Use JSON Lines for input and output")
	cmd.Flags().Bool("plain", false, "Disable the banner and markdown rendering")
	return cmd
}
