package cli

import (
	"github.com/spf13/cobra"

	"grafton.dev/grafton/internal/runtime"
)

// newContinueCmd creates the continue command
func newContinueCmd() *cobra.Command {
	var stackID string

	cmd := &cobra.Command{
		Use:   "continue",
		Short: "Resume a restack paused on a conflict",
		Long: `Resume a restack paused on a conflict.

Expects the conflicted files to be resolved and staged. Finishes the
suspended rebase, then carries on with the rest of the plan; a fresh
conflict pauses the run again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}

			s, err := resolveStack(ctx, stackID)
			if err != nil {
				return err
			}

			result, err := ctx.Engine.Continue(cmd.Context(), s.ID)
			if err != nil {
				return err
			}
			printResult(ctx, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&stackID, "stack", "", "Stack to continue. Defaults to the stack containing the current branch.")

	return cmd
}
