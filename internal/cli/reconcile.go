package cli

import (
	"github.com/spf13/cobra"

	"grafton.dev/grafton/internal/engine"
	"grafton.dev/grafton/internal/runtime"
)

// newReconcileCmd creates the reconcile command
func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Refresh stack metadata against the live repository",
		Long: `Refresh stack metadata against the live repository.

Detects branches deleted or moved outside grafton. Never rewrites history
and never deletes metadata: missing branches are marked orphaned and
suspicious parent relationships are reported as warnings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}

			report, err := ctx.Engine.Reconcile(cmd.Context())
			if err != nil {
				return err
			}

			for _, branch := range report.Orphaned {
				ctx.Splog.Warn("%s no longer exists; marked orphaned", branch)
			}
			for _, w := range report.Warnings {
				switch w.Kind {
				case engine.WarnParentDeleted:
					ctx.Splog.Warn("%s: parent branch was deleted", w.Branch)
				case engine.WarnParentNotAncestor:
					ctx.Splog.Warn("%s: parent is no longer in its history (rebased or reset externally?)", w.Branch)
				case engine.WarnExternallyModified:
					ctx.Splog.Warn("%s: branch moved outside grafton", w.Branch)
				}
			}
			if len(report.Orphaned) == 0 && len(report.Warnings) == 0 {
				ctx.Splog.Info("Metadata matches the repository")
			}
			return nil
		},
	}

	return cmd
}
