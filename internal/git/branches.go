package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	graftonerrors "grafton.dev/grafton/internal/errors"
)

// CurrentHead returns the head commit SHA of a local branch
func (g *repoGateway) CurrentHead(branch string) (string, error) {
	hash, err := g.repo.branchHash(branch)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", graftonerrors.NewBranchNotFoundError(branch)
		}
		return "", fmt.Errorf("failed to resolve %s: %w", branch, err)
	}
	return hash.String(), nil
}

// BranchExists reports whether a local branch ref resolves
func (g *repoGateway) BranchExists(branch string) (bool, error) {
	_, err := g.repo.branchHash(branch)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to resolve %s: %w", branch, err)
	}
	return true, nil
}

// CurrentBranch returns the branch HEAD points at
func (g *repoGateway) CurrentBranch() (string, error) {
	head, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", graftonerrors.ErrNotOnBranch
	}
	return head.Name().Short(), nil
}

// DefaultBranch returns the trunk branch name, preferring the remote HEAD
// symref and falling back to common names.
func (g *repoGateway) DefaultBranch() (string, error) {
	if out, err := g.run.Run(context.Background(), "symbolic-ref", "refs/remotes/origin/HEAD"); err == nil {
		if name, ok := strings.CutPrefix(out, "refs/remotes/origin/"); ok && name != "" {
			return name, nil
		}
	}

	for _, name := range []string{"main", "master"} {
		exists, err := g.BranchExists(name)
		if err != nil {
			return "", err
		}
		if exists {
			return name, nil
		}
	}

	return "", fmt.Errorf("could not determine default branch")
}

// CreateBranch creates a local branch pointing at the tip of fromRef without
// checking it out.
func (g *repoGateway) CreateBranch(name, from string) error {
	exists, err := g.BranchExists(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", graftonerrors.ErrBranchExists, name)
	}

	fromHash, err := g.repo.branchHash(from)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return fmt.Errorf("%w: %s", graftonerrors.ErrRefNotFound, from)
		}
		return fmt.Errorf("failed to resolve %s: %w", from, err)
	}

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), fromHash)
	if err := g.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", name, err)
	}
	return nil
}

// CheckoutBranch checks out a branch. Fails with ErrDirtyWorkingTree when
// uncommitted changes would be overwritten.
func (g *repoGateway) CheckoutBranch(ctx context.Context, branch string) error {
	exists, err := g.BranchExists(branch)
	if err != nil {
		return err
	}
	if !exists {
		return graftonerrors.NewBranchNotFoundError(branch)
	}

	// Subprocess checkout: go-git's worktree checkout mishandles some
	// sparse/ignored-file cases, and git gives the authoritative answer on
	// whether local changes block the switch.
	if _, err := g.run.Run(ctx, "checkout", branch); err != nil {
		var cmdErr *graftonerrors.GitCommandError
		if errors.As(err, &cmdErr) && strings.Contains(cmdErr.Stderr, "would be overwritten") {
			return &graftonerrors.DirtyWorkingTreeError{Operation: "checkout " + branch}
		}
		return err
	}
	return nil
}

// DeleteBranch removes a local branch ref
func (g *repoGateway) DeleteBranch(ctx context.Context, branch string) error {
	_, err := g.run.Run(ctx, "branch", "-D", branch)
	return err
}

// HasUncommittedChanges reports whether the working tree or index differ from HEAD
func (g *repoGateway) HasUncommittedChanges(ctx context.Context) (bool, error) {
	out, err := g.run.Run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return out != "", nil
}
