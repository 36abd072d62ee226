package sync_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	graftonsync "grafton.dev/grafton/internal/sync"
	"grafton.dev/grafton/testhelpers/scenario"
)

func TestService(t *testing.T) {
	t.Run("periodic pass refreshes host state", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()
		s.CreateBranch("feature").Commit("work").Track("feature", "main")
		require.NoError(t, s.Engine.AttachPR("feature", 1))
		s.Host.SetMerged(1, true)

		svc := graftonsync.NewService(s.Engine, 10*time.Millisecond, nil)
		svc.Start(context.Background())
		defer svc.Stop()

		require.Eventually(t, func() bool {
			return s.Engine.LastSync() != nil
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("stop waits for the loop to exit", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()

		svc := graftonsync.NewService(s.Engine, 10*time.Millisecond, nil)
		svc.Start(context.Background())
		svc.Stop()

		// A second stop is a no-op
		svc.Stop()
	})

	t.Run("start twice does not double the loop", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()

		svc := graftonsync.NewService(s.Engine, time.Hour, nil)
		svc.Start(context.Background())
		svc.Start(context.Background())
		svc.Stop()
	})

	t.Run("sync now runs immediately", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()

		svc := graftonsync.NewService(s.Engine, time.Hour, nil)
		svc.SyncNow(context.Background())
		require.NotNil(t, s.Engine.LastSync())
	})
}
