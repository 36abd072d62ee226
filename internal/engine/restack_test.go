package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"grafton.dev/grafton/internal/engine"
	graftonerrors "grafton.dev/grafton/internal/errors"
	"grafton.dev/grafton/internal/store"
	"grafton.dev/grafton/testhelpers/scenario"
)

// stackedScenario builds main <- a <- b with one commit on each branch, then
// advances main so the whole chain is stale.
func stackedScenario(t *testing.T, conflicting bool) *scenario.Scenario {
	t.Helper()
	s := scenario.NewScenario(t).WithStack()

	s.CreateBranch("a")
	if conflicting {
		// Same file both branches edit
		s.CommitChange("", "a version")
	} else {
		s.CommitChange("a", "a work")
	}
	s.Track("a", "main")

	s.CreateBranch("b").CommitChange("b", "b work").Track("b", "a")

	s.Checkout("main")
	if conflicting {
		s.CommitChange("", "main version")
	} else {
		s.CommitChange("main", "main work")
	}
	return s
}

func TestPreview(t *testing.T) {
	t.Run("reports stale branches parent-first", func(t *testing.T) {
		s := stackedScenario(t, false)

		preview, err := s.Engine.Preview(context.Background(), s.StackID)
		require.NoError(t, err)
		require.Len(t, preview.ToRestack, 2)
		require.Equal(t, "a", preview.ToRestack[0].Branch)
		require.Equal(t, "main", preview.ToRestack[0].Onto)
		require.Equal(t, 1, preview.ToRestack[0].Commits)
		// b is dragged along because its parent is scheduled
		require.Equal(t, "b", preview.ToRestack[1].Branch)
		require.Equal(t, "a", preview.ToRestack[1].Onto)
		require.Empty(t, preview.UpToDate)
	})

	t.Run("mid-stack advance leaves the parent up to date", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()

		s.CreateBranch("a").Commit("a work").Track("a", "main")
		s.CreateBranch("b").Commit("b work").Track("b", "a")

		// a advances by two commits under b's feet
		s.Checkout("a").Commit("a more").Commit("a even more")

		preview, err := s.Engine.Preview(context.Background(), s.StackID)
		require.NoError(t, err)
		require.Len(t, preview.ToRestack, 1)
		require.Equal(t, "b", preview.ToRestack[0].Branch)
		require.Equal(t, "a", preview.ToRestack[0].Onto)
		require.Equal(t, 2, preview.ToRestack[0].Commits)
		require.Equal(t, []string{"a"}, preview.UpToDate)
	})

	t.Run("merged parent redirects the child to the root", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()

		s.CreateBranch("a").Commit("a work").Track("a", "main")
		s.CreateBranch("b").Commit("b work").Track("b", "a")
		require.NoError(t, s.Engine.AttachPR("a", 1))
		s.Host.SetMerged(1, true)

		preview, err := s.Engine.Preview(context.Background(), s.StackID)
		require.NoError(t, err)
		require.Len(t, preview.ToRestack, 1)
		require.Equal(t, "b", preview.ToRestack[0].Branch)
		require.Equal(t, "main", preview.ToRestack[0].Onto)
	})

	t.Run("is idempotent and mutates nothing", func(t *testing.T) {
		s := stackedScenario(t, false)

		headBefore := s.Head("a")
		first, err := s.Engine.Preview(context.Background(), s.StackID)
		require.NoError(t, err)
		second, err := s.Engine.Preview(context.Background(), s.StackID)
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Equal(t, headBefore, s.Head("a"))
	})

	t.Run("fresh stack is fully up to date", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()
		s.CreateBranch("a").Commit("a work").Track("a", "main").Checkout("main")

		preview, err := s.Engine.Preview(context.Background(), s.StackID)
		require.NoError(t, err)
		require.Empty(t, preview.ToRestack)
		require.Equal(t, []string{"a"}, preview.UpToDate)
	})
}

func TestExecute(t *testing.T) {
	t.Run("restacks the whole chain parent-first", func(t *testing.T) {
		s := stackedScenario(t, false)

		result, err := s.Engine.Execute(context.Background(), s.StackID)
		require.NoError(t, err)
		require.Equal(t, engine.StatusSuccess, result.Status)
		require.Equal(t, []string{"a", "b"}, result.Restacked)
		require.Empty(t, result.Conflicts)

		require.Equal(t, store.StatusUpToDate, s.Branch("a").Status)
		require.Equal(t, store.StatusUpToDate, s.Branch("b").Status)

		ancestor, err := s.Gateway.IsAncestor("main", "a")
		require.NoError(t, err)
		require.True(t, ancestor)
		ancestor, err = s.Gateway.IsAncestor("a", "b")
		require.NoError(t, err)
		require.True(t, ancestor)

		// Each branch keeps exactly its own commit
		ahead, err := s.Gateway.CommitsAhead("b", "a")
		require.NoError(t, err)
		require.Equal(t, 1, ahead)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		s := stackedScenario(t, false)

		_, err := s.Engine.Execute(context.Background(), s.StackID)
		require.NoError(t, err)

		result, err := s.Engine.Execute(context.Background(), s.StackID)
		require.NoError(t, err)
		require.Equal(t, engine.StatusSuccess, result.Status)
		require.Empty(t, result.Restacked)
	})

	t.Run("pauses on the first conflict", func(t *testing.T) {
		s := stackedScenario(t, true)
		bHeadBefore := s.Head("b")

		result, err := s.Engine.Execute(context.Background(), s.StackID)
		require.NoError(t, err)
		require.Equal(t, engine.StatusConflicts, result.Status)
		require.Len(t, result.Conflicts, 1)
		require.Equal(t, "a", result.Conflicts[0].Branch)
		require.Contains(t, result.Conflicts[0].Files, "test.txt")
		require.Empty(t, result.Restacked)

		require.Equal(t, store.StatusConflicted, s.Branch("a").Status)
		require.True(t, s.Gateway.IsRebaseInProgress())

		// Branches after the conflict are untouched
		require.Equal(t, bHeadBefore, s.Head("b"))
	})

	t.Run("refuses to run while a conflict is pending", func(t *testing.T) {
		s := stackedScenario(t, true)

		_, err := s.Engine.Execute(context.Background(), s.StackID)
		require.NoError(t, err)

		_, err = s.Engine.Execute(context.Background(), s.StackID)
		require.ErrorIs(t, err, graftonerrors.ErrRebaseInProgress)
	})

	t.Run("refuses to run on a dirty working tree", func(t *testing.T) {
		s := stackedScenario(t, false)
		require.NoError(t, s.Scene.Repo.CreateChange("wip", "wip", true))

		_, err := s.Engine.Execute(context.Background(), s.StackID)
		var dirty *graftonerrors.DirtyWorkingTreeError
		require.ErrorAs(t, err, &dirty)
	})

	t.Run("unknown stack", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()
		_, err := s.Engine.Execute(context.Background(), uuid.New())
		require.ErrorIs(t, err, graftonerrors.ErrStackNotFound)
	})
}

func TestContinue(t *testing.T) {
	t.Run("finishes the conflicted branch and resumes the plan", func(t *testing.T) {
		s := stackedScenario(t, true)

		_, err := s.Engine.Execute(context.Background(), s.StackID)
		require.NoError(t, err)

		resolveConflict(t, s, "resolved")

		result, err := s.Engine.Continue(context.Background(), s.StackID)
		require.NoError(t, err)
		require.Equal(t, engine.StatusSuccess, result.Status)
		require.Equal(t, []string{"a", "b"}, result.Restacked)

		require.Equal(t, store.StatusUpToDate, s.Branch("a").Status)
		require.Equal(t, store.StatusUpToDate, s.Branch("b").Status)
		require.False(t, s.Gateway.IsRebaseInProgress())

		// b carries only its own commit on top of the resolved a
		ahead, err := s.Gateway.CommitsAhead("b", "a")
		require.NoError(t, err)
		require.Equal(t, 1, ahead)
	})

	t.Run("without a pending conflict", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()
		_, err := s.Engine.Continue(context.Background(), s.StackID)
		require.ErrorIs(t, err, graftonerrors.ErrNoConflictedBranch)
	})

	t.Run("unresolved files conflict again", func(t *testing.T) {
		s := stackedScenario(t, true)

		_, err := s.Engine.Execute(context.Background(), s.StackID)
		require.NoError(t, err)

		// Stage nothing; git rebase --continue refuses while markers remain
		_, err = s.Engine.Continue(context.Background(), s.StackID)
		if err == nil {
			// Some git versions report a renewed conflict instead of failing
			require.Equal(t, store.StatusConflicted, s.Branch("a").Status)
		}
		require.True(t, s.Gateway.IsRebaseInProgress())
	})
}

func TestAbort(t *testing.T) {
	t.Run("restores the conflicted branch", func(t *testing.T) {
		s := stackedScenario(t, true)
		aHeadBefore := s.Head("a")

		_, err := s.Engine.Execute(context.Background(), s.StackID)
		require.NoError(t, err)

		require.NoError(t, s.Engine.Abort(context.Background(), s.StackID))
		require.False(t, s.Gateway.IsRebaseInProgress())
		require.Equal(t, aHeadBefore, s.Head("a"))
		require.Equal(t, store.StatusNeedsRebase, s.Branch("a").Status)
	})

	t.Run("without a pending conflict", func(t *testing.T) {
		s := scenario.NewScenario(t).WithStack()
		err := s.Engine.Abort(context.Background(), s.StackID)
		require.ErrorIs(t, err, graftonerrors.ErrNoConflictedBranch)
	})

	t.Run("aborted restack can be retried", func(t *testing.T) {
		s := stackedScenario(t, true)

		_, err := s.Engine.Execute(context.Background(), s.StackID)
		require.NoError(t, err)
		require.NoError(t, s.Engine.Abort(context.Background(), s.StackID))

		result, err := s.Engine.Execute(context.Background(), s.StackID)
		require.NoError(t, err)
		require.Equal(t, engine.StatusConflicts, result.Status)
	})
}

func TestMergedParentRetarget(t *testing.T) {
	s := scenario.NewScenario(t).WithStack()

	// a carries PR #1 and merges; b stacks on a with PR #2
	s.CreateBranch("a").CommitChange("a", "a work").Track("a", "main")
	s.CreateBranch("b").CommitChange("b", "b work").Track("b", "a")
	require.NoError(t, s.Engine.AttachPR("a", 1))
	require.NoError(t, s.Engine.AttachPR("b", 2))

	// Simulate the squash-merge of a landing on main
	s.Checkout("main").CommitChange("a", "a work squashed")
	s.Host.SetMerged(1, true)

	result, err := s.Engine.Execute(context.Background(), s.StackID)
	require.NoError(t, err)
	require.Equal(t, engine.StatusSuccess, result.Status)
	require.Equal(t, []string{"b"}, result.Restacked)

	// b now lives directly on the root, locally and on the host
	require.Equal(t, "main", s.Branch("b").Parent)
	require.Contains(t, s.Host.BaseUpdates, "2:main")

	ancestor, err := s.Gateway.IsAncestor("main", "b")
	require.NoError(t, err)
	require.True(t, ancestor)

	// Only b's own commit was replayed onto main
	ahead, err := s.Gateway.CommitsAhead("b", "main")
	require.NoError(t, err)
	require.Equal(t, 1, ahead)
}

func TestHostFailureDoesNotStopRestack(t *testing.T) {
	s := scenario.NewScenario(t).WithStack()

	s.CreateBranch("a").CommitChange("a", "a work").Track("a", "main")
	s.CreateBranch("b").CommitChange("b", "b work").Track("b", "a")
	require.NoError(t, s.Engine.AttachPR("a", 1))
	require.NoError(t, s.Engine.AttachPR("b", 2))

	s.Checkout("main").CommitChange("main", "main work")
	s.Host.SetMerged(1, true)

	// The merge query succeeds, the base update does not
	s.Host.FailUpdatesWith = errors.New("host unavailable")

	result, err := s.Engine.Execute(context.Background(), s.StackID)
	require.NoError(t, err)
	require.Equal(t, engine.StatusSuccess, result.Status)
	require.Len(t, result.HostFailures, 1)
	require.Equal(t, "b", result.HostFailures[0].Branch)

	// Local state is still correct
	require.Equal(t, "main", s.Branch("b").Parent)
	require.Equal(t, store.StatusUpToDate, s.Branch("b").Status)
}

// resolveConflict writes content into the conflicted file and stages it.
func resolveConflict(t *testing.T, s *scenario.Scenario, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(s.Scene.Dir, "test.txt"), []byte(content), 0o644))
	require.NoError(t, s.Scene.Repo.ResolveMergeConflicts())
}
