package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"grafton.dev/grafton/internal/engine"
	"grafton.dev/grafton/internal/store"
	"grafton.dev/grafton/testhelpers/scenario"
)

func TestReconcile(t *testing.T) {
	t.Run("deleted branch becomes orphaned but keeps its record", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()
		s.CreateBranch("doomed").Commit("work").Track("doomed", "main")
		s.Checkout("main")
		require.NoError(t, s.Scene.Repo.DeleteBranch("doomed"))

		report, err := s.Engine.Reconcile(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"doomed"}, report.Orphaned)

		b := s.Branch("doomed")
		require.Equal(t, store.StatusOrphaned, b.Status)
	})

	t.Run("external branch move is reported and the head refreshed", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()
		s.CreateBranch("feature").Commit("work").Track("feature", "main")

		// Move the branch outside the tool
		s.Commit("external work")
		s.Checkout("main")

		report, err := s.Engine.Reconcile(context.Background())
		require.NoError(t, err)
		require.Contains(t, report.Warnings, engine.Warning{Branch: "feature", Kind: engine.WarnExternallyModified})
		require.Equal(t, s.Head("feature"), *s.Branch("feature").HeadSHA)
	})

	t.Run("deleted parent is an advisory warning", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()
		s.CreateBranch("parent").Commit("p").Track("parent", "main")
		s.CreateBranch("child").Commit("c").Track("child", "parent")
		s.Checkout("main")
		require.NoError(t, s.Scene.Repo.DeleteBranch("parent"))

		report, err := s.Engine.Reconcile(context.Background())
		require.NoError(t, err)
		require.Contains(t, report.Orphaned, "parent")
		require.Contains(t, report.Warnings, engine.Warning{Branch: "child", Kind: engine.WarnParentDeleted})

		// The child's record survives untouched
		require.NotNil(t, s.Branch("child"))
	})

	t.Run("externally rebased branch gets a parent warning", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()
		s.CreateBranch("a").CommitChange("a", "a work").Track("a", "main")
		s.CreateBranch("b").CommitChange("b", "b work").Track("b", "a")

		// Rewrite b so a is no longer in its history
		s.Checkout("b")
		require.NoError(t, s.Scene.Repo.RunGitCommand("reset", "--hard", "main"))
		s.Commit("rewritten")
		s.Checkout("main")

		report, err := s.Engine.Reconcile(context.Background())
		require.NoError(t, err)
		require.Contains(t, report.Warnings, engine.Warning{Branch: "b", Kind: engine.WarnParentNotAncestor})
	})

	t.Run("recomputes staleness", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()
		s.CreateBranch("feature").Commit("work").Track("feature", "main")
		s.Checkout("main").Commit("main moves on")

		report, err := s.Engine.Reconcile(context.Background())
		require.NoError(t, err)
		require.Empty(t, report.Orphaned)
		require.Equal(t, store.StatusNeedsRebase, s.Branch("feature").Status)

		require.NotNil(t, s.Engine.LastSync())
	})

	t.Run("skips a stack paused on a conflict", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()
		s.CreateBranch("feature").CommitChange("", "feature version").Track("feature", "main")
		s.Checkout("main").CommitChange("", "main version")

		result, err := s.Engine.Execute(context.Background(), s.StackID)
		require.NoError(t, err)
		require.Equal(t, engine.StatusConflicts, result.Status)

		report, err := s.Engine.Reconcile(context.Background())
		require.NoError(t, err)
		require.Empty(t, report.Orphaned)
		require.Empty(t, report.Warnings)

		// The resume point is untouched
		require.Equal(t, store.StatusConflicted, s.Branch("feature").Status)
	})
}

func TestSyncHostState(t *testing.T) {
	t.Run("reports merged pull requests", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()
		s.CreateBranch("a").Commit("a").Track("a", "main")
		s.CreateBranch("b").Commit("b").Track("b", "a")
		require.NoError(t, s.Engine.AttachPR("a", 1))
		require.NoError(t, s.Engine.AttachPR("b", 2))
		s.Host.SetMerged(1, true)

		res, err := s.Engine.SyncHostState(context.Background())
		require.NoError(t, err)
		require.Equal(t, 2, res.Checked)
		require.Equal(t, []string{"a"}, res.Merged)
	})

	t.Run("no host is a no-op", func(t *testing.T) {
		s := scenario.NewScenarioWithoutHost(t).WithStack()

		res, err := s.Engine.SyncHostState(context.Background())
		require.NoError(t, err)
		require.Zero(t, res.Checked)
	})
}
