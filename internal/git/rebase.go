package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	graftonerrors "grafton.dev/grafton/internal/errors"
)

// RebaseOnto replays branch onto the tip of onto. It checks out the branch
// first so that a suspended rebase resumes the right ref after a process
// restart. When upstream names a commit that is still an ancestor of the
// branch, it is used as the cut point (git rebase --onto) so only the
// branch's own commits are replayed. Returns RebaseConflict (not an error)
// when the rebase stops on a conflict; the rebase is left suspended for
// RebaseContinue/RebaseAbort.
func (g *repoGateway) RebaseOnto(ctx context.Context, branch, onto, upstream string) (RebaseResult, error) {
	if g.IsRebaseInProgress() {
		return RebaseConflict, fmt.Errorf("cannot start rebase of %s: %w", branch, graftonerrors.ErrRebaseInProgress)
	}

	if err := g.CheckoutBranch(ctx, branch); err != nil {
		return RebaseConflict, err
	}

	args := []string{"rebase", onto}
	if upstream != "" && g.isValidCutPoint(ctx, upstream, branch) {
		args = []string{"rebase", "--onto", onto, upstream, branch}
	}

	_, err := g.run.Run(ctx, args...)
	if err != nil {
		if g.IsRebaseInProgress() {
			return RebaseConflict, nil
		}
		return RebaseConflict, fmt.Errorf("rebase of %s onto %s failed: %w", branch, onto, err)
	}
	return RebaseDone, nil
}

// isValidCutPoint reports whether the commit is an ancestor of the branch. A
// recorded parent revision can go stale after history rewrites outside the
// tool; a stale cut point falls back to a plain rebase.
func (g *repoGateway) isValidCutPoint(ctx context.Context, commit, branch string) bool {
	_, err := g.run.Run(ctx, "merge-base", "--is-ancestor", commit, branch)
	return err == nil
}

// RebaseContinue re-attempts the current rebase step after conflict markers
// have been resolved and staged. A renewed conflict is again a result, not an
// error.
func (g *repoGateway) RebaseContinue(ctx context.Context) (RebaseResult, error) {
	if !g.IsRebaseInProgress() {
		return RebaseConflict, graftonerrors.ErrRebaseNotInProgress
	}

	_, err := g.run.Run(ctx, "-c", "core.editor=true", "rebase", "--continue")
	if err != nil {
		if g.IsRebaseInProgress() {
			return RebaseConflict, nil
		}
		return RebaseConflict, fmt.Errorf("rebase continue failed: %w", err)
	}
	return RebaseDone, nil
}

// RebaseAbort aborts the suspended rebase, restoring the branch to its
// pre-rebase head.
func (g *repoGateway) RebaseAbort(ctx context.Context) error {
	if !g.IsRebaseInProgress() {
		return graftonerrors.ErrRebaseNotInProgress
	}

	_, err := g.run.Run(ctx, "rebase", "--abort")
	if err != nil {
		return fmt.Errorf("rebase abort failed: %w", err)
	}
	return nil
}

// IsRebaseInProgress checks the on-disk rebase directories rather than any
// in-memory tracking, so a suspended rebase is visible after restart.
func (g *repoGateway) IsRebaseInProgress() bool {
	gitDir := g.repo.GitDir()
	if _, err := os.Stat(filepath.Join(gitDir, "rebase-merge")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(gitDir, "rebase-apply")); err == nil {
		return true
	}
	return false
}

// State returns the suspended rebase state, read from .git/rebase-merge or
// .git/rebase-apply. The second return value is false when no rebase is in
// progress.
func (g *repoGateway) State() (*RebaseState, bool) {
	gitDir := g.repo.GitDir()

	if dir := filepath.Join(gitDir, "rebase-merge"); dirExists(dir) {
		state := &RebaseState{
			Branch: readRebaseBranch(filepath.Join(dir, "head-name")),
			Onto:   readRebaseFile(filepath.Join(dir, "onto")),
		}
		// msgnum is the current step, end the total
		current := readRebaseInt(filepath.Join(dir, "msgnum"))
		total := readRebaseInt(filepath.Join(dir, "end"))
		if total >= current && current > 0 {
			state.RemainingSteps = total - current + 1
		}
		return state, true
	}

	if dir := filepath.Join(gitDir, "rebase-apply"); dirExists(dir) {
		state := &RebaseState{
			Branch: readRebaseBranch(filepath.Join(dir, "head-name")),
			Onto:   readRebaseFile(filepath.Join(dir, "onto")),
		}
		current := readRebaseInt(filepath.Join(dir, "next"))
		total := readRebaseInt(filepath.Join(dir, "last"))
		if total >= current && current > 0 {
			state.RemainingSteps = total - current + 1
		}
		return state, true
	}

	return nil, false
}

// ConflictFiles returns the paths with unresolved conflicts in the index
func (g *repoGateway) ConflictFiles(ctx context.Context) ([]string, error) {
	lines, err := g.run.RunLines(ctx, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func readRebaseFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readRebaseBranch(path string) string {
	return strings.TrimPrefix(readRebaseFile(path), "refs/heads/")
}

func readRebaseInt(path string) int {
	n, err := strconv.Atoi(readRebaseFile(path))
	if err != nil {
		return 0
	}
	return n
}
