package main

import (
	"fmt"

	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/spf13/cobra"
)

func newGraphCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "graph [conversation-id]",
		Short: "Print the dialog flow as a Mermaid flowchart",
		Long: `Prints the turn router and the shopping dialog as Mermaid.
With a conversation ID, the conversation's current step is highlighted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry(a.cfg)
			if err != nil {
				return err
			}

			var overlay *graph.Overlay
			if len(args) == 1 {
				rt, err := a.newRuntime(cmd.Context())
				if err != nil {
					return err
				}
				defer rt.Close()

				state, err := rt.engine.State(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to load conversation %q: %w", args[0], err)
				}
				overlay = graph.OverlayFromState(state)
			}

			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(reg, overlay))
			return nil
		},
	}
}
