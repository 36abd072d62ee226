package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	graftonerrors "grafton.dev/grafton/internal/errors"
)

// IsAncestor checks if the ancestor branch's head is an ancestor of the
// descendant branch's head.
func (g *repoGateway) IsAncestor(ancestor, descendant string) (bool, error) {
	ancestorCommit, err := g.branchCommit(ancestor)
	if err != nil {
		return false, err
	}
	descendantCommit, err := g.branchCommit(descendant)
	if err != nil {
		return false, err
	}

	if ancestorCommit.Hash == descendantCommit.Hash {
		return true, nil
	}
	return ancestorCommit.IsAncestor(descendantCommit)
}

// NeedsRebase reports whether branch must be replayed onto parent's current
// tip: true when the merge base of the two heads is not the parent head, i.e.
// the parent has moved ahead.
func (g *repoGateway) NeedsRebase(branch, parent string) (bool, error) {
	branchCommit, err := g.branchCommit(branch)
	if err != nil {
		return false, err
	}
	parentCommit, err := g.branchCommit(parent)
	if err != nil {
		return false, err
	}

	mergeBases, err := branchCommit.MergeBase(parentCommit)
	if err != nil {
		return false, fmt.Errorf("failed to find merge base of %s and %s: %w", branch, parent, err)
	}
	if len(mergeBases) == 0 {
		// Disjoint histories always need a replay
		return true, nil
	}
	return mergeBases[0].Hash != parentCommit.Hash, nil
}

// CommitsAhead returns the number of commits unique to branch relative to
// target, i.e. the commits a rebase onto target would replay.
func (g *repoGateway) CommitsAhead(branch, target string) (int, error) {
	branchCommit, err := g.branchCommit(branch)
	if err != nil {
		return 0, err
	}
	targetCommit, err := g.branchCommit(target)
	if err != nil {
		return 0, err
	}

	mergeBases, err := branchCommit.MergeBase(targetCommit)
	if err != nil {
		return 0, fmt.Errorf("failed to find merge base of %s and %s: %w", branch, target, err)
	}

	ignore := make([]plumbing.Hash, 0, len(mergeBases))
	for _, base := range mergeBases {
		ignore = append(ignore, base.Hash)
	}

	count := 0
	iter := object.NewCommitPreorderIter(branchCommit, nil, ignore)
	err = iter.ForEach(func(c *object.Commit) error {
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk commits of %s: %w", branch, err)
	}
	return count, nil
}

// branchCommit resolves a branch name to its head commit object
func (g *repoGateway) branchCommit(branch string) (*object.Commit, error) {
	hash, err := g.repo.branchHash(branch)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, graftonerrors.NewBranchNotFoundError(branch)
		}
		return nil, fmt.Errorf("failed to resolve %s: %w", branch, err)
	}
	commit, err := g.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit for %s: %w", branch, err)
	}
	return commit, nil
}
