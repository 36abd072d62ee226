package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"grafton.dev/grafton/internal/config"
	"grafton.dev/grafton/internal/runtime"
	graftonsync "grafton.dev/grafton/internal/sync"
)

// newSyncCmd creates the sync command
func newSyncCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh pull-request merge state from the host",
		Long: `Refresh pull-request merge state from the host.

Checks every branch with an attached pull request and records which ones
merged, so the next restack retargets their children. With --watch the
check repeats on the configured interval until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := runtime.NewContext(cmd.Context())
			if err != nil {
				return err
			}

			res, err := ctx.Engine.SyncHostState(cmd.Context())
			if err != nil {
				return err
			}
			ctx.Splog.Info("Checked %d pull requests, %d merged", res.Checked, len(res.Merged))

			if !watch {
				return nil
			}

			interval := graftonsync.DefaultInterval
			cfg, err := config.GetRepoConfig(ctx.Root)
			if err == nil && cfg.SyncIntervalSecs != nil && *cfg.SyncIntervalSecs > 0 {
				interval = time.Duration(*cfg.SyncIntervalSecs) * time.Second
			}

			svc := graftonsync.NewService(ctx.Engine, interval, ctx.Log)
			svc.Start(cmd.Context())
			defer svc.Stop()

			ctx.Splog.Info("Watching for merges every %s (ctrl-c to stop)", interval)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			select {
			case <-sig:
			case <-cmd.Context().Done():
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep syncing on the configured interval.")

	return cmd
}
