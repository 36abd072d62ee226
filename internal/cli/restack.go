package cli

import (
	"github.com/spf13/cobra"

	"grafton.dev/grafton/internal/runtime"
)

// newRestackCmd creates the restack command
func newRestackCmd() *cobra.Command {
	var (
		stackID string
		preview bool
	)

	cmd := &cobra.Command{
		Use:   "restack",
		Short: "Rebase every stale branch in the stack onto its parent, parent-first",
		Long: `Rebase every stale branch in the stack onto its parent, parent-first.

Branches whose pull request merged are retargeted onto the stack root. On
the first conflict the run pauses with the rebase suspended; resolve the
files, stage them, and run 'grafton continue'. Use --preview to see the
plan without touching the repository.`,
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

			if preview {
				plan, err := ctx.Engine.Preview(cmd.Context(), s.ID)
				if err != nil {
					return err
				}
				if len(plan.ToRestack) == 0 {
					ctx.Splog.Info("Stack is already up to date")
					return nil
				}
				for _, entry := range plan.ToRestack {
					suffix := ""
					if entry.HasPR {
						suffix = " (has PR)"
					}
					ctx.Splog.Info("Would rebase %s onto %s (%d commits)%s", entry.Branch, entry.Onto, entry.Commits, suffix)
				}
				for _, branch := range plan.UpToDate {
					ctx.Splog.Info("%s is up to date", branch)
				}
				return nil
			}

			result, err := ctx.Engine.Execute(cmd.Context(), s.ID)
			if err != nil {
				return err
			}
			printResult(ctx, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&stackID, "stack", "", "Stack to restack. Defaults to the stack containing the current branch.")
	cmd.Flags().BoolVar(&preview, "preview", false, "Show the plan without rebasing anything.")

	return cmd
}
