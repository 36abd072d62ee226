// Package store owns the persisted model of stacks and branches. The full
// collection is serialized to .git/stack-metadata.json, scoped to (but not
// tracked by) the repository, so it survives across sessions and stays
// private per clone.
package store

import (
	"time"

	"github.com/google/uuid"
)

// MetadataVersion is the current schema version of the persisted document.
// Documents with an unrecognized version are rejected, never guessed at.
const MetadataVersion = 1

// BranchStatus is the sync status of a branch relative to its parent
type BranchStatus string

const (
	// StatusUpToDate means the branch head's ancestry includes the parent's current head
	StatusUpToDate BranchStatus = "up_to_date"
	// StatusNeedsRebase means the parent has moved ahead and the branch has not been replayed
	StatusNeedsRebase BranchStatus = "needs_rebase"
	// StatusConflicted means a restack paused here with unresolved conflicts.
	// At most one branch per stack holds this status; it is the resume point
	// of a suspended rebase.
	StatusConflicted BranchStatus = "conflicted"
	// StatusOrphaned means the underlying ref no longer exists
	StatusOrphaned BranchStatus = "orphaned"
	// StatusUnknown means the status has not been computed yet
	StatusUnknown BranchStatus = "unknown"
)

// Metadata is the versioned document holding every stack in a repository
type Metadata struct {
	Version  int        `json:"version"`
	Stacks   []*Stack   `json:"stacks"`
	LastSync *time.Time `json:"last_sync"`
}

// NewMetadata returns an empty document at the current schema version
func NewMetadata() *Metadata {
	return &Metadata{Version: MetadataVersion, Stacks: []*Stack{}}
}

// FindStack returns the stack with the given id, or nil
func (m *Metadata) FindStack(id uuid.UUID) *Stack {
	for _, s := range m.Stacks {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// FindStackContaining returns the stack holding the named branch, or nil
func (m *Metadata) FindStackContaining(branch string) *Stack {
	for _, s := range m.Stacks {
		if s.FindBranch(branch) != nil {
			return s
		}
	}
	return nil
}

// AddStack appends a stack to the document
func (m *Metadata) AddStack(s *Stack) {
	m.Stacks = append(m.Stacks, s)
}

// RemoveStack deletes the stack with the given id. Returns false if absent.
func (m *Metadata) RemoveStack(id uuid.UUID) bool {
	for i, s := range m.Stacks {
		if s.ID == id {
			m.Stacks = append(m.Stacks[:i], m.Stacks[i+1:]...)
			return true
		}
	}
	return false
}

// Stack is an identified forest of managed branches rooted at one
// pre-existing branch. The root is never itself a member.
type Stack struct {
	ID        uuid.UUID      `json:"id"`
	Root      string         `json:"root"`
	Branches  []*StackBranch `json:"branches"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewStack creates an empty stack rooted at the given branch
func NewStack(root string) *Stack {
	now := time.Now().UTC()
	return &Stack{
		ID:        uuid.New(),
		Root:      root,
		Branches:  []*StackBranch{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FindBranch returns the member branch with the given name, or nil
func (s *Stack) FindBranch(name string) *StackBranch {
	for _, b := range s.Branches {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// AddBranch appends a member branch and bumps the update timestamp
func (s *Stack) AddBranch(b *StackBranch) {
	s.Branches = append(s.Branches, b)
	s.UpdatedAt = time.Now().UTC()
}

// RemoveBranch deletes the member branch with the given name. Returns false
// if absent.
func (s *Stack) RemoveBranch(name string) bool {
	for i, b := range s.Branches {
		if b.Name == name {
			s.Branches = append(s.Branches[:i], s.Branches[i+1:]...)
			s.UpdatedAt = time.Now().UTC()
			return true
		}
	}
	return false
}

// ChildrenOf returns the member branches whose parent is the given branch
func (s *Stack) ChildrenOf(parent string) []*StackBranch {
	var children []*StackBranch
	for _, b := range s.Branches {
		if b.Parent == parent {
			children = append(children, b)
		}
	}
	return children
}

// ConflictedBranch returns the branch suspended mid-rebase, or nil. The
// invariant that at most one branch per stack is conflicted makes this the
// program counter of an in-progress restack.
func (s *Stack) ConflictedBranch() *StackBranch {
	for _, b := range s.Branches {
		if b.Status == StatusConflicted {
			return b
		}
	}
	return nil
}

// TopologicalOrder returns member branches parent-before-child, walking out
// from the root. Branches whose parent chain does not reach the root are
// appended last so they are never silently dropped.
func (s *Stack) TopologicalOrder() []*StackBranch {
	var ordered []*StackBranch
	visited := map[string]bool{}

	var visit func(parent string)
	visit = func(parent string) {
		for _, b := range s.ChildrenOf(parent) {
			if visited[b.Name] {
				continue
			}
			visited[b.Name] = true
			ordered = append(ordered, b)
			visit(b.Name)
		}
	}
	visit(s.Root)

	for _, b := range s.Branches {
		if !visited[b.Name] {
			ordered = append(ordered, b)
		}
	}
	return ordered
}

// Validate checks the structural invariants: the root is not a member, and
// every parent is either the root or another member.
func (s *Stack) Validate() error {
	if s.FindBranch(s.Root) != nil {
		return &InvariantError{Stack: s.ID, Message: "root " + s.Root + " is itself a member"}
	}
	for _, b := range s.Branches {
		if b.Parent != s.Root && s.FindBranch(b.Parent) == nil {
			return &InvariantError{Stack: s.ID, Message: "branch " + b.Name + " has unknown parent " + b.Parent}
		}
	}
	return nil
}

// InvariantError reports a structural violation in a persisted stack
type InvariantError struct {
	Stack   uuid.UUID
	Message string
}

func (e *InvariantError) Error() string {
	return "stack " + e.Stack.String() + ": " + e.Message
}

// StackBranch is one managed branch. The recorded head SHA is advisory: it is
// refreshed after every successful operation and used to detect external
// changes, never as the sole source of truth for ancestry.
type StackBranch struct {
	Name      string       `json:"name"`
	Parent    string       `json:"parent"`
	PRNumber  *int         `json:"pr_number"`
	Status    BranchStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	HeadSHA   *string      `json:"head_sha"`
	// ParentSHA is the parent commit this branch was last stacked on. It
	// bounds the commit range of the next rebase so that only the branch's
	// own commits are replayed, never the parent's rewritten ones.
	ParentSHA *string `json:"parent_revision"`
}

// NewStackBranch creates a branch record with unknown status
func NewStackBranch(name, parent string) *StackBranch {
	return &StackBranch{
		Name:      name,
		Parent:    parent,
		Status:    StatusUnknown,
		CreatedAt: time.Now().UTC(),
	}
}

// SetHead records the last-known head commit
func (b *StackBranch) SetHead(sha string) {
	b.HeadSHA = &sha
}

// SetParentSHA records the parent commit the branch is stacked on
func (b *StackBranch) SetParentSHA(sha string) {
	b.ParentSHA = &sha
}
