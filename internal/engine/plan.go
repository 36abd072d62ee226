package engine

import (
	"context"

	"github.com/google/uuid"

	graftonerrors "grafton.dev/grafton/internal/errors"
	"grafton.dev/grafton/internal/store"
)

// planEntry is one step of a restack plan
type planEntry struct {
	branch *store.StackBranch
	onto   string // target branch name, normally the parent tip
	// upstream is the recorded parent commit the branch was last stacked on,
	// used to bound the rebase to the branch's own commits. Empty when never
	// recorded.
	upstream string
	// retarget is set when the parent's PR is merged: the branch moves onto
	// the stack root, and its persisted parent is rewritten once the rebase
	// succeeds.
	retarget bool
}

// computePlan walks the stack parent-before-child and returns the ordered
// list of branches to rebase plus the names already up to date. A branch is
// scheduled when its head is not a descendant of its target's head, when its
// parent's PR merged (the branch must move onto the root), or when its direct
// parent is itself scheduled (the parent tip is about to move). Orphaned
// branches are skipped; they cannot be operated on.
func (e *Engine) computePlan(ctx context.Context, s *store.Stack) ([]planEntry, []string, error) {
	var plan []planEntry
	var upToDate []string
	scheduled := map[string]bool{}

	for _, b := range s.TopologicalOrder() {
		if b.Status == store.StatusOrphaned {
			continue
		}

		exists, err := e.git.BranchExists(b.Name)
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			continue
		}

		// A merged branch has nothing left to restack; its children move
		// past it below.
		if e.prMerged(ctx, s, b.Name) {
			continue
		}

		onto := b.Parent
		retarget := false
		if b.Parent != s.Root {
			if merged := e.prMerged(ctx, s, b.Parent); merged {
				onto = s.Root
				retarget = true
			}
		}

		needs, err := e.git.NeedsRebase(b.Name, onto)
		if err != nil {
			return nil, nil, err
		}

		// A retarget is always scheduled: even when the commits are already
		// in place, the persisted parent and the PR base must move.
		if needs || retarget || scheduled[b.Parent] {
			scheduled[b.Name] = true
			upstream := ""
			if b.ParentSHA != nil {
				upstream = *b.ParentSHA
			}
			plan = append(plan, planEntry{branch: b, onto: onto, upstream: upstream, retarget: retarget})
		} else {
			upToDate = append(upToDate, b.Name)
		}
	}

	return plan, upToDate, nil
}

// prMerged asks the host whether the branch's PR is merged. Host failures
// degrade to "not merged": the plan then targets the parent tip, which is
// always a safe rebase target.
func (e *Engine) prMerged(ctx context.Context, s *store.Stack, branch string) bool {
	if e.host == nil {
		return false
	}
	record := s.FindBranch(branch)
	if record == nil || record.PRNumber == nil {
		return false
	}
	merged, err := e.host.IsMerged(ctx, *record.PRNumber)
	if err != nil {
		e.log.Warn("could not query merge state, assuming open", "branch", branch, "pr", *record.PRNumber, "error", err)
		return false
	}
	return merged
}

// Preview computes the restack plan without mutating anything. It is safe to
// call at any time, including while a restack is paused on a conflict.
func (e *Engine) Preview(ctx context.Context, stackID uuid.UUID) (*Preview, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.meta.FindStack(stackID)
	if s == nil {
		return nil, graftonerrors.ErrStackNotFound
	}

	plan, upToDate, err := e.computePlan(ctx, s)
	if err != nil {
		return nil, err
	}

	preview := &Preview{UpToDate: upToDate}
	for _, entry := range plan {
		// How far the target has moved ahead, not how many commits the
		// branch will replay.
		commits, err := e.git.CommitsAhead(entry.onto, entry.branch.Name)
		if err != nil {
			return nil, err
		}
		preview.ToRestack = append(preview.ToRestack, PreviewEntry{
			Branch:  entry.branch.Name,
			Onto:    entry.onto,
			Commits: commits,
			HasPR:   entry.branch.PRNumber != nil,
		})
	}
	return preview, nil
}
