package cli

import (
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"grafton.dev/grafton/internal/runtime"
)

// newPrCmd creates the pr command group
func newPrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Link stack branches to pull requests",
	}

	cmd.AddCommand(newPrAttachCmd())
	cmd.AddCommand(newPrCreateCmd())

	return cmd
}

func newPrAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <branch> <number>",
		Short: "Record an existing pull request number for a branch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}

			number, err := strconv.Atoi(args[1])
			if err != nil || number <= 0 {
				return fmt.Errorf("invalid pull request number %q", args[1])
			}

			if err := ctx.Engine.AttachPR(args[0], number); err != nil {
				return err
			}
			ctx.Splog.Info("Attached PR #%d to %s", number, args[0])
			return nil
		},
	}
}

func newPrCreateCmd() *cobra.Command {
	var (
		title string
		body  string
		draft bool
	)

	cmd := &cobra.Command{
		Use:   "create <branch>",
		Short: "Open a pull request for a branch against its stack parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}

			if title == "" {
				prompt := &survey.Input{
					Message: "Pull request title:",
					Default: args[0],
				}
				if err := survey.AskOne(prompt, &title); err != nil {
					return fmt.Errorf("canceled")
				}
			}

			number, err := ctx.Engine.CreatePR(cmd.Context(), args[0], title, body, draft)
			if err != nil {
				return err
			}
			ctx.Splog.Info("Created PR #%d for %s", number, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Pull request title. Prompted for when omitted.")
	cmd.Flags().StringVar(&body, "body", "", "Pull request body.")
	cmd.Flags().BoolVar(&draft, "draft", false, "Open the pull request as a draft.")

	return cmd
}
