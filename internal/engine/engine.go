// Package engine implements the restack state machine and reconciliation for
// stacked branches. It reconciles three independently-mutable sources of
// truth: the local commit graph, the pull-request host's view of each branch,
// and the persisted stack metadata.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	graftonerrors "grafton.dev/grafton/internal/errors"
	"grafton.dev/grafton/internal/git"
	"grafton.dev/grafton/internal/github"
	"grafton.dev/grafton/internal/store"
)

// Engine coordinates the stack store, the version-control gateway and the
// pull-request host adapter. One mutex serializes every mutating operation
// against the repository: git rebase state is a one-at-a-time resource, so
// concurrent restacks on the same repository must not interleave.
type Engine struct {
	mu     sync.Mutex
	git    git.Gateway
	store  *store.Store
	meta   *store.Metadata
	host   github.Client // nil disables host calls
	remote string        // "" disables pushes
	log    *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithHost attaches a pull-request host adapter
func WithHost(client github.Client) Option {
	return func(e *Engine) { e.host = client }
}

// WithRemote sets the remote branches are force-pushed to after a restack
func WithRemote(remote string) Option {
	return func(e *Engine) { e.remote = remote }
}

// WithLogger sets the structured logger
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New loads the stack metadata and returns an Engine. A corrupt or
// unversioned document fails here, disabling stack operations for this
// repository without taking anything else down.
func New(gateway git.Gateway, st *store.Store, opts ...Option) (*Engine, error) {
	meta, err := st.Load()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		git:   gateway,
		store: st,
		meta:  meta,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Stacks returns the current model
func (e *Engine) Stacks() []*store.Stack {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*store.Stack{}, e.meta.Stacks...)
}

// CurrentBranch reports the branch the working tree is on
func (e *Engine) CurrentBranch() (string, error) {
	return e.git.CurrentBranch()
}

// LastSync reports when host state was last refreshed, if ever
func (e *Engine) LastSync() *time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.meta.LastSync
}

// StackByID returns the stack with the given id
func (e *Engine) StackByID(id uuid.UUID) (*store.Stack, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.meta.FindStack(id)
	if s == nil {
		return nil, graftonerrors.ErrStackNotFound
	}
	return s, nil
}

// StackContaining returns the stack holding the named branch
func (e *Engine) StackContaining(branch string) (*store.Stack, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.meta.FindStackContaining(branch)
	if s == nil {
		return nil, graftonerrors.ErrStackNotFound
	}
	return s, nil
}

// CreateStack creates a new stack rooted at an existing branch. The root is
// not itself a member of the stack.
func (e *Engine) CreateStack(root string) (*store.Stack, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	exists, err := e.git.BranchExists(root)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, graftonerrors.NewBranchNotFoundError(root)
	}

	s := store.NewStack(root)
	e.meta.AddStack(s)
	if err := e.store.Save(e.meta); err != nil {
		e.meta.RemoveStack(s.ID)
		return nil, err
	}
	e.log.Info("created stack", "id", s.ID, "root", root)
	return s, nil
}

// DeleteStack removes a stack's metadata. Branch refs are untouched.
func (e *Engine) DeleteStack(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.meta.RemoveStack(id) {
		return graftonerrors.ErrStackNotFound
	}
	return e.store.Save(e.meta)
}

// CreateBranch creates a git branch off parent and records it in the stack in
// one transaction-like step: if persisting fails, the ref is deleted again so
// no partial record is left. The parent must be the stack root or an existing
// member, which forbids cycles by construction.
func (e *Engine) CreateBranch(ctx context.Context, stackID uuid.UUID, name, parent string) (*store.StackBranch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := git.ValidateBranchName(name); err != nil {
		return nil, err
	}

	s := e.meta.FindStack(stackID)
	if s == nil {
		return nil, graftonerrors.ErrStackNotFound
	}
	if parent != s.Root && s.FindBranch(parent) == nil {
		return nil, fmt.Errorf("parent %s is neither the stack root nor a member branch", parent)
	}
	if e.meta.FindStackContaining(name) != nil {
		return nil, fmt.Errorf("%w: %s is already part of a stack", graftonerrors.ErrBranchExists, name)
	}

	if err := e.git.CreateBranch(name, parent); err != nil {
		return nil, err
	}

	branch := store.NewStackBranch(name, parent)
	branch.Status = store.StatusUpToDate
	if head, err := e.git.CurrentHead(name); err == nil {
		branch.SetHead(head)
		// Freshly created, so the branch sits exactly on the parent tip.
		branch.SetParentSHA(head)
	}

	s.AddBranch(branch)
	if err := e.store.Save(e.meta); err != nil {
		s.RemoveBranch(name)
		_ = e.git.DeleteBranch(ctx, name)
		return nil, err
	}
	e.log.Info("created branch", "branch", name, "parent", parent, "stack", s.ID)
	return branch, nil
}

// RemoveBranch removes a branch's metadata record by explicit user action.
// Children are reparented to the removed branch's parent so the forest stays
// rooted. The git ref is untouched.
func (e *Engine) RemoveBranch(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.meta.FindStackContaining(name)
	if s == nil {
		return graftonerrors.ErrStackNotFound
	}
	removed := s.FindBranch(name)
	for _, child := range s.ChildrenOf(name) {
		child.Parent = removed.Parent
	}
	s.RemoveBranch(name)
	return e.store.Save(e.meta)
}

// AttachPR associates a pull request number with a branch
func (e *Engine) AttachPR(branch string, prNumber int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.meta.FindStackContaining(branch)
	if s == nil {
		return graftonerrors.ErrStackNotFound
	}
	b := s.FindBranch(branch)
	b.PRNumber = &prNumber
	return e.store.Save(e.meta)
}

// CreatePR files a pull request for a branch against its parent and records
// the number.
func (e *Engine) CreatePR(ctx context.Context, branch, title, body string, draft bool) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.host == nil {
		return 0, fmt.Errorf("no pull-request host configured")
	}
	s := e.meta.FindStackContaining(branch)
	if s == nil {
		return 0, graftonerrors.ErrStackNotFound
	}
	b := s.FindBranch(branch)

	number, err := e.host.Create(ctx, github.CreatePROptions{
		Title: title,
		Body:  body,
		Head:  branch,
		Base:  b.Parent,
		Draft: draft,
	})
	if err != nil {
		return 0, err
	}

	b.PRNumber = &number
	if err := e.store.Save(e.meta); err != nil {
		return number, err
	}
	return number, nil
}

// save persists the model, logging rather than failing the caller when the
// operation that triggered it already succeeded against the repository.
func (e *Engine) saveBestEffort() {
	if err := e.store.Save(e.meta); err != nil {
		e.log.Error("failed to persist stack metadata", "error", err)
	}
}
