package engine

import (
	"context"
	"time"

	"grafton.dev/grafton/internal/store"
)

// Reconcile compares the persisted stack model against the live repository
// and reports divergence without mutating history. Branches whose ref no
// longer resolves are marked orphaned (the record is kept so the user can
// decide); a recorded parent that is no longer an ancestor or was deleted
// yields an advisory warning; a live head that differs from the recorded one
// yields an externally-modified warning and the recorded head is refreshed.
//
// Stacks with a suspended rebase are skipped entirely: the conflicted branch
// is the resume point of an in-progress restack, and reconciling around it
// would be guessing at intent.
func (e *Engine) Reconcile(ctx context.Context) (*Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := &Report{Orphaned: []string{}, Warnings: []Warning{}}

	if e.remote != "" {
		// Best effort: reconcile against fresh remote state when we can,
		// against whatever is local when we cannot.
		if err := e.git.Fetch(ctx, e.remote); err != nil {
			e.log.Warn("fetch before reconcile failed", "remote", e.remote, "error", err)
		}
	}

	rebaseInProgress := e.git.IsRebaseInProgress()
	for _, s := range e.meta.Stacks {
		if s.ConflictedBranch() != nil || rebaseInProgress {
			e.log.Debug("skipping stack with rebase in progress", "stack", s.ID)
			continue
		}
		if err := e.reconcileStack(ctx, s, report); err != nil {
			return nil, err
		}
	}

	e.meta.Touch(time.Now())
	if err := e.store.Save(e.meta); err != nil {
		return nil, err
	}
	return report, nil
}

func (e *Engine) reconcileStack(ctx context.Context, s *store.Stack, report *Report) error {
	for _, b := range s.Branches {
		exists, err := e.git.BranchExists(b.Name)
		if err != nil {
			return err
		}
		if !exists {
			b.Status = store.StatusOrphaned
			report.Orphaned = append(report.Orphaned, b.Name)
			continue
		}

		// Refresh the advisory head and flag external modification
		if head, err := e.git.CurrentHead(b.Name); err == nil {
			if b.HeadSHA != nil && *b.HeadSHA != head {
				report.Warnings = append(report.Warnings, Warning{Branch: b.Name, Kind: WarnExternallyModified})
			}
			b.SetHead(head)
		}

		parentExists := b.Parent == s.Root
		if !parentExists {
			parentExists, err = e.git.BranchExists(b.Parent)
			if err != nil {
				return err
			}
			if !parentExists {
				report.Warnings = append(report.Warnings, Warning{Branch: b.Name, Kind: WarnParentDeleted})
				continue
			}
		}
		isAncestor, err := e.git.IsAncestor(b.Parent, b.Name)
		if err != nil {
			return err
		}
		if !isAncestor {
			// Advisory only: this can be legitimately resolved by a later
			// restack, so the status is left alone.
			report.Warnings = append(report.Warnings, Warning{Branch: b.Name, Kind: WarnParentNotAncestor})
			continue
		}

		needs, err := e.git.NeedsRebase(b.Name, b.Parent)
		if err != nil {
			return err
		}
		if needs {
			b.Status = store.StatusNeedsRebase
		} else {
			b.Status = store.StatusUpToDate
		}
	}
	return nil
}
