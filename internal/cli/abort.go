package cli

import (
	"github.com/spf13/cobra"

	"grafton.dev/grafton/internal/runtime"
)

// newAbortCmd creates the abort command
func newAbortCmd() *cobra.Command {
	var (
		stackID string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "abort",
		Short: "Abort a restack paused on a conflict",
		Long: `Abort a restack paused on a conflict.

Cancels the suspended rebase and puts the conflicted branch back to its
pre-restack state. Branches restacked before the conflict keep their new
position.`,
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

			ok, err := confirm("Abort the restack? Conflict resolution in progress will be discarded.", force)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			if err := ctx.Engine.Abort(cmd.Context(), s.ID); err != nil {
				return err
			}
			ctx.Splog.Info("Restack aborted")
			return nil
		},
	}

	cmd.Flags().StringVar(&stackID, "stack", "", "Stack to abort. Defaults to the stack containing the current branch.")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not prompt for confirmation; abort immediately.")

	return cmd
}
