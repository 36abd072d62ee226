package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"grafton.dev/grafton/internal/runtime"
	"grafton.dev/grafton/internal/store"
)

// newStackCmd creates the stack command group
func newStackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Create, list and delete stacks",
	}

	cmd.AddCommand(newStackCreateCmd())
	cmd.AddCommand(newStackListCmd())
	cmd.AddCommand(newStackDeleteCmd())

	return cmd
}

func newStackCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <root-branch>",
		Short: "Create a stack rooted at an existing branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}

			s, err := ctx.Engine.CreateStack(args[0])
			if err != nil {
				return err
			}

			ctx.Splog.Info("Created stack %s rooted at %s", s.ID, s.Root)
			return nil
		},
	}
}

func newStackListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stacks and their branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}

			stacks := ctx.Engine.Stacks()
			if len(stacks) == 0 {
				ctx.Splog.Info("No stacks yet. Create one with 'grafton stack create <branch>'")
				return nil
			}

			for _, s := range stacks {
				ctx.Splog.Info("%s (root %s)", s.ID, s.Root)
				for _, b := range s.TopologicalOrder() {
					fmt.Printf("    %s  <- %s  [%s]%s\n", b.Name, b.Parent, b.Status, prSuffix(b))
				}
			}
			return nil
		},
	}
}

func prSuffix(b *store.StackBranch) string {
	if b.PRNumber == nil {
		return ""
	}
	return fmt.Sprintf("  PR #%d", *b.PRNumber)
}

func newStackDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <stack-id>",
		Short: "Delete a stack's metadata (branches are left alone)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid stack id %q: %w", args[0], err)
			}

			ok, err := confirm(fmt.Sprintf("Delete stack %s? Branches and commits are kept.", id), force)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			if err := ctx.Engine.DeleteStack(id); err != nil {
				return err
			}
			ctx.Splog.Info("Deleted stack %s", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not prompt for confirmation.")

	return cmd
}
