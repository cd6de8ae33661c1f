package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Manage stored conversations",
		Long:    `List, inspect and remove conversations in the configured state store.`,
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List stored conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			ids, err := rt.engine.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list conversations: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No conversations found.")
				return nil
			}
			fmt.Fprintln(out, "Conversations:")
			for _, id := range ids {
				fmt.Fprintln(out, "- "+id)
			}
			return nil
		},
	}

	inspect := &cobra.Command{
		Use:   "inspect <conversation-id>",
		Short: "Print the stored state of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			state, err := rt.engine.State(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load conversation %q: %w", args[0], err)
			}
			data, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal state: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <conversation-id>...",
		Short: "Remove one or more conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			if !all && len(args) == 0 {
				return errors.New("requires at least one conversation ID or --all")
			}

			rt, err := a.newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if all {
				if args, err = rt.engine.List(cmd.Context()); err != nil {
					return fmt.Errorf("failed to list conversations: %w", err)
				}
			}

			var errs []error
			for _, id := range args {
				if err := rt.engine.Delete(cmd.Context(), id); err != nil {
					errs = append(errs, fmt.Errorf("remove %q: %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed conversation '%s'\n", id)
			}
			return errors.Join(errs...)
		},
	}
	rm.Flags().Bool("all", false, "Remove every stored conversation")

	cmd.AddCommand(ls, inspect, rm)
	return cmd
}
