// Package git provides a narrow capability interface over a local repository,
// backed by go-git for read operations and a git subprocess for the
// operations go-git cannot express cleanly (rebase, force-push, checkout of a
// dirty tree). Callers depend only on the Gateway interface.
package git

import (
	"context"
	"time"
)

// DefaultCommandTimeout is the default timeout for git subprocess commands
const DefaultCommandTimeout = 5 * time.Minute

// RebaseResult represents the outcome of a rebase operation
type RebaseResult int

const (
	// RebaseDone indicates the rebase completed
	RebaseDone RebaseResult = iota
	// RebaseConflict indicates the rebase stopped on a conflict and is suspended
	RebaseConflict
)

// RebaseState describes an in-progress rebase, read from the on-disk rebase
// directories so it survives process restarts.
type RebaseState struct {
	Branch         string // branch being rebased (empty if detached)
	Onto           string // commit being rebased onto
	RemainingSteps int    // steps left to replay, including the current one
}

// Gateway is the capability interface over one open repository. Every
// mutating operation is individually resumable or abortable: the repository
// is a shared resource the user may also touch between calls, so no operation
// assumes exclusive ownership across a multi-branch restack.
type Gateway interface {
	// Read operations
	CurrentHead(branch string) (string, error)
	BranchExists(branch string) (bool, error)
	CurrentBranch() (string, error)
	DefaultBranch() (string, error)
	IsAncestor(ancestor, descendant string) (bool, error)
	NeedsRebase(branch, parent string) (bool, error)
	CommitsAhead(branch, target string) (int, error)
	HasUncommittedChanges(ctx context.Context) (bool, error)

	// Branch mutation
	CreateBranch(name, from string) error
	CheckoutBranch(ctx context.Context, branch string) error
	DeleteBranch(ctx context.Context, branch string) error

	// Remote operations
	Fetch(ctx context.Context, remote string) error
	ForcePush(ctx context.Context, branch, remote string) error

	// Rebase state machine. RebaseOnto replays branch onto the target and
	// either completes or suspends on the first conflict; the suspended state
	// is introspectable via IsRebaseInProgress/State and is driven forward by
	// RebaseContinue or unwound by RebaseAbort. A non-empty upstream bounds
	// the replayed range to the commits after it, so a rewritten parent's old
	// commits are not dragged along.
	RebaseOnto(ctx context.Context, branch, onto, upstream string) (RebaseResult, error)
	RebaseContinue(ctx context.Context) (RebaseResult, error)
	RebaseAbort(ctx context.Context) error
	IsRebaseInProgress() bool
	State() (*RebaseState, bool)
	ConflictFiles(ctx context.Context) ([]string, error)

	// Root returns the working tree root path.
	Root() string
}

// Open opens the repository containing path and returns a Gateway over it.
func Open(path string) (Gateway, error) {
	repo, err := OpenRepository(path)
	if err != nil {
		return nil, err
	}
	return &repoGateway{
		repo: repo,
		run:  NewCommandRunner(repo.Root()),
	}, nil
}

// repoGateway implements Gateway with go-git as the primary backend and a
// subprocess CommandRunner fallback for rebase, checkout and push.
type repoGateway struct {
	repo *Repository
	run  *CommandRunner
}

func (g *repoGateway) Root() string {
	return g.repo.Root()
}
