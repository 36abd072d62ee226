package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"grafton.dev/grafton/internal/config"
	"grafton.dev/grafton/internal/git"
	"grafton.dev/grafton/internal/output"
)

// newInitCmd creates the init command
func newInitCmd() *cobra.Command {
	var (
		trunk       string
		remote      string
		githubOwner string
		githubRepo  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure grafton for this repository",
		Long: `Configure grafton for this repository.

Writes the repository configuration under .git so it stays private to the
clone. Pass --github-owner and --github-repo to enable pull-request
integration; the token is read from the GRAFTON_GITHUB_TOKEN environment
variable at run time.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			gateway, err := git.Open(wd)
			if err != nil {
				return fmt.Errorf("not a git repository: %w", err)
			}
			root := gateway.Root()

			cfg, err := config.GetRepoConfig(root)
			if err != nil {
				return err
			}

			if trunk == "" && cfg.Trunk == nil {
				trunk, err = gateway.DefaultBranch()
				if err != nil {
					return fmt.Errorf("could not detect trunk branch: %w", err)
				}
			}
			if trunk != "" {
				cfg.Trunk = &trunk
			}
			if remote != "" {
				cfg.Remote = &remote
			}
			if githubOwner != "" && githubRepo != "" {
				enabled := true
				cfg.GithubEnabled = &enabled
				cfg.GithubOwner = &githubOwner
				cfg.GithubRepo = &githubRepo
			}

			if err := config.SaveRepoConfig(root, cfg); err != nil {
				return err
			}

			splog := output.NewSplog()
			splog.Info("Initialized grafton in %s", root)
			if cfg.Trunk != nil {
				splog.Info("Trunk branch: %s", *cfg.Trunk)
			}
			if cfg.GithubOwner != nil && cfg.GithubRepo != nil {
				splog.Info("GitHub integration: %s/%s", *cfg.GithubOwner, *cfg.GithubRepo)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&trunk, "trunk", "", "Trunk branch stacks are rooted at. Detected from origin/HEAD by default.")
	cmd.Flags().StringVar(&remote, "remote", "", "Remote restacked branches are pushed to. Defaults to origin.")
	cmd.Flags().StringVar(&githubOwner, "github-owner", "", "GitHub repository owner, enables pull-request integration.")
	cmd.Flags().StringVar(&githubRepo, "github-repo", "", "GitHub repository name, enables pull-request integration.")

	return cmd
}
