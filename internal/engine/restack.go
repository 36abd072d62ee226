package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	graftonerrors "grafton.dev/grafton/internal/errors"
	"grafton.dev/grafton/internal/git"
	"grafton.dev/grafton/internal/store"
)

// Execute runs the restack plan branch by branch. Each branch is rebased with
// all-or-nothing semantics: on the first conflict the run stops, the branch
// is marked conflicted as the resume point, and branches later in the plan
// are left untouched, since their correctness depends on this rebase having
// completed. Successfully rebased branches are force-pushed, their PR base is
// retargeted when it changed, and their metadata is refreshed before the next
// entry is attempted.
func (e *Engine) Execute(ctx context.Context, stackID uuid.UUID) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.meta.FindStack(stackID)
	if s == nil {
		return nil, graftonerrors.ErrStackNotFound
	}
	if cb := s.ConflictedBranch(); cb != nil {
		return nil, fmt.Errorf("%w: branch %s, continue or abort first", graftonerrors.ErrRebaseInProgress, cb.Name)
	}
	if e.git.IsRebaseInProgress() {
		return nil, fmt.Errorf("%w: resolve the suspended rebase first", graftonerrors.ErrRebaseInProgress)
	}
	if dirty, err := e.git.HasUncommittedChanges(ctx); err != nil {
		return nil, err
	} else if dirty {
		return nil, &graftonerrors.DirtyWorkingTreeError{Operation: "restack"}
	}

	plan, _, err := e.computePlan(ctx, s)
	if err != nil {
		return nil, err
	}

	result := &Result{Status: StatusSuccess, Restacked: []string{}}
	e.executePlan(ctx, s, plan, result)
	e.saveBestEffort()
	return result, nil
}

// executePlan drives the plan entries in order, mutating the repository and
// the stack model in lock-step and recording the outcome in result.
func (e *Engine) executePlan(ctx context.Context, s *store.Stack, plan []planEntry, result *Result) {
	for _, entry := range plan {
		rebase, err := e.git.RebaseOnto(ctx, entry.branch.Name, entry.onto, entry.upstream)
		if err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			return
		}

		if rebase == git.RebaseConflict {
			files, ferr := e.git.ConflictFiles(ctx)
			if ferr != nil {
				e.log.Warn("could not list conflict files", "branch", entry.branch.Name, "error", ferr)
			}
			entry.branch.Status = store.StatusConflicted
			result.Status = StatusConflicts
			result.Conflicts = append(result.Conflicts, Conflict{Branch: entry.branch.Name, Files: files})
			e.log.Info("restack paused on conflict", "branch", entry.branch.Name, "files", files)
			return
		}

		if !e.finishBranch(ctx, s, entry.branch, entry.retarget, result) {
			return
		}
	}
}

// finishBranch completes a successfully rebased branch: force-push, PR base
// update when the target changed, then metadata refresh. Returns false when
// the run should stop.
func (e *Engine) finishBranch(ctx context.Context, s *store.Stack, b *store.StackBranch, retarget bool, result *Result) bool {
	if e.remote != "" {
		if err := e.git.ForcePush(ctx, b.Name, e.remote); err != nil {
			// The rebase itself succeeded; record that before surfacing
			// the push failure.
			e.refreshBranch(s, b, retarget)
			result.Restacked = append(result.Restacked, b.Name)
			result.Status = StatusFailed
			result.Error = err.Error()
			return false
		}
	}

	e.refreshBranch(s, b, retarget)

	if retarget && b.PRNumber != nil && e.host != nil {
		head := ""
		if b.HeadSHA != nil {
			head = *b.HeadSHA
		}
		if err := e.host.UpdateBase(ctx, *b.PRNumber, s.Root, head); err != nil {
			// Reported separately for manual retry; local state is correct.
			result.HostFailures = append(result.HostFailures, HostFailure{
				Branch:   b.Name,
				PRNumber: *b.PRNumber,
				Message:  err.Error(),
			})
			e.log.Warn("PR base update failed after successful rebase", "branch", b.Name, "pr", *b.PRNumber, "error", err)
		}
	}

	result.Restacked = append(result.Restacked, b.Name)
	e.saveBestEffort()
	return true
}

// refreshBranch updates a branch record after its rebase succeeded
func (e *Engine) refreshBranch(s *store.Stack, b *store.StackBranch, retarget bool) {
	b.Status = store.StatusUpToDate
	if head, err := e.git.CurrentHead(b.Name); err == nil {
		b.SetHead(head)
	}
	if retarget {
		b.Parent = s.Root
	}
	if parentHead, err := e.git.CurrentHead(b.Parent); err == nil {
		b.SetParentSHA(parentHead)
	}
}

// Continue resumes a restack paused on a conflict, after the conflict markers
// have been resolved and staged. On success the conflicted branch is finished
// exactly as Execute would have, and the rest of the plan is resumed. A
// renewed conflict leaves the branch conflicted, possibly with a different
// path set.
func (e *Engine) Continue(ctx context.Context, stackID uuid.UUID) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.meta.FindStack(stackID)
	if s == nil {
		return nil, graftonerrors.ErrStackNotFound
	}
	cb := s.ConflictedBranch()
	if cb == nil {
		return nil, graftonerrors.ErrNoConflictedBranch
	}

	rebase, err := e.git.RebaseContinue(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Status: StatusSuccess, Restacked: []string{}}
	if rebase == git.RebaseConflict {
		files, ferr := e.git.ConflictFiles(ctx)
		if ferr != nil {
			e.log.Warn("could not list conflict files", "branch", cb.Name, "error", ferr)
		}
		result.Status = StatusConflicts
		result.Conflicts = append(result.Conflicts, Conflict{Branch: cb.Name, Files: files})
		return result, nil
	}

	// The conflicted branch may have been scheduled for a retarget; the plan
	// is gone, so recheck the merge state now.
	retarget := cb.Parent != s.Root && e.prMerged(ctx, s, cb.Parent)
	if !e.finishBranch(ctx, s, cb, retarget, result) {
		e.saveBestEffort()
		return result, nil
	}

	// Resume the remainder of the plan. Branches finished before the
	// conflict are up to date and drop out of the recomputed plan.
	plan, _, err := e.computePlan(ctx, s)
	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		e.saveBestEffort()
		return result, nil
	}
	e.executePlan(ctx, s, plan, result)
	e.saveBestEffort()
	return result, nil
}

// Abort unwinds the suspended rebase, restoring the conflicted branch to its
// pre-restack head and marking it needs_rebase again. Branches completed
// earlier in the same run stay restacked: abort only undoes the in-flight
// step, not the whole operation.
func (e *Engine) Abort(ctx context.Context, stackID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.meta.FindStack(stackID)
	if s == nil {
		return graftonerrors.ErrStackNotFound
	}
	cb := s.ConflictedBranch()
	if cb == nil {
		return graftonerrors.ErrNoConflictedBranch
	}

	if e.git.IsRebaseInProgress() {
		if err := e.git.RebaseAbort(ctx); err != nil {
			return err
		}
	}

	cb.Status = store.StatusNeedsRebase
	if head, err := e.git.CurrentHead(cb.Name); err == nil {
		cb.SetHead(head)
	}
	e.log.Info("restack aborted", "branch", cb.Name)
	return e.store.Save(e.meta)
}
