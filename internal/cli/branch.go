package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"grafton.dev/grafton/internal/runtime"
)

// newBranchCmd creates the branch command group
func newBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Add and remove stack branches",
	}

	cmd.AddCommand(newBranchCreateCmd())
	cmd.AddCommand(newBranchRemoveCmd())

	return cmd
}

func newBranchCreateCmd() *cobra.Command {
	var (
		parent  string
		stackID string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a branch on top of its parent and track it in the stack",
		Long: `Create a branch on top of its parent and track it in the stack.

The parent must be the stack root or an existing stack branch. Defaults to
the current branch, so creating from the top of the stack extends it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}

			if parent == "" {
				parent, err = ctx.Engine.CurrentBranch()
				if err != nil {
					return fmt.Errorf("not on a branch and --parent not specified")
				}
			}

			s, err := resolveStackForParent(ctx, stackID, parent)
			if err != nil {
				return err
			}

			b, err := ctx.Engine.CreateBranch(cmd.Context(), s.ID, args[0], parent)
			if err != nil {
				return err
			}

			ctx.Splog.Info("Created %s on top of %s", b.Name, b.Parent)
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Parent branch. Defaults to the current branch.")
	cmd.Flags().StringVar(&stackID, "stack", "", "Stack to add the branch to. Inferred from the parent by default.")

	return cmd
}

func newBranchRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Stop tracking a branch (children are reparented, the git branch is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}

			ok, err := confirm(fmt.Sprintf("Stop tracking %s? Its children move to its parent.", args[0]), force)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			if err := ctx.Engine.RemoveBranch(args[0]); err != nil {
				return err
			}
			ctx.Splog.Info("Removed %s from its stack", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not prompt for confirmation.")

	return cmd
}
