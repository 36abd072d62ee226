// Package errors provides sentinel errors and custom error types for grafton.
// Use errors.Is() and errors.As() to check for specific error types.
//
// Errors fall into distinct categories so callers can decide how to recover:
// repository errors (local, retryable after user action), host errors
// (network, rate limit, stale head), and metadata errors (persisted stack
// document unreadable or unversioned). Rebase conflicts are a modeled result,
// not an error.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for repository conditions
var (
	// ErrNotOnBranch indicates that HEAD is not on a branch
	ErrNotOnBranch = errors.New("not on a branch")

	// ErrBranchNotFound indicates that a branch does not exist
	ErrBranchNotFound = errors.New("branch not found")

	// ErrBranchExists indicates that a branch already exists
	ErrBranchExists = errors.New("branch already exists")

	// ErrInvalidBranchName indicates a name git would reject as a ref
	ErrInvalidBranchName = errors.New("invalid branch name")

	// ErrRefNotFound indicates that a ref could not be resolved
	ErrRefNotFound = errors.New("ref not found")

	// ErrDirtyWorkingTree indicates uncommitted changes that would be overwritten
	ErrDirtyWorkingTree = errors.New("working tree has uncommitted changes")

	// ErrRebaseNotInProgress indicates that no rebase is currently in progress
	ErrRebaseNotInProgress = errors.New("no rebase in progress")

	// ErrRebaseInProgress indicates an operation that cannot run while a rebase is suspended
	ErrRebaseInProgress = errors.New("rebase in progress")

	// ErrNonFastForward indicates that a push was rejected by the remote
	ErrNonFastForward = errors.New("push rejected: non-fast-forward")
)

// Sentinel errors for host conditions
var (
	// ErrStaleHead indicates a base update was rejected because the PR head moved
	ErrStaleHead = errors.New("stale head")

	// ErrRateLimited indicates the host rate limit was exhausted past the backoff ceiling
	ErrRateLimited = errors.New("rate limited")

	// ErrNetwork indicates a network failure talking to the host or remote
	ErrNetwork = errors.New("network error")
)

// Sentinel errors for stack metadata
var (
	// ErrStackNotFound indicates that no stack matches the given id
	ErrStackNotFound = errors.New("stack not found")

	// ErrNoConflictedBranch indicates Continue/Abort was called with nothing suspended
	ErrNoConflictedBranch = errors.New("no conflicted branch in stack")

	// ErrMetadataVersion indicates the persisted document has an unrecognized version
	ErrMetadataVersion = errors.New("unsupported metadata version")
)

// BranchNotFoundError represents an error when a branch is not found
type BranchNotFoundError struct {
	BranchName string
}

func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch %s does not exist", e.BranchName)
}

// Is returns true if the target error is ErrBranchNotFound
func (e *BranchNotFoundError) Is(target error) bool {
	return target == ErrBranchNotFound
}

// NewBranchNotFoundError creates a new BranchNotFoundError
func NewBranchNotFoundError(branchName string) *BranchNotFoundError {
	return &BranchNotFoundError{BranchName: branchName}
}

// DirtyWorkingTreeError is returned when a checkout or rebase would overwrite
// uncommitted changes. The message tells the user how to proceed.
type DirtyWorkingTreeError struct {
	Operation string
}

func (e *DirtyWorkingTreeError) Error() string {
	return fmt.Sprintf("cannot %s: working tree has uncommitted changes, commit or stash them first", e.Operation)
}

// Is returns true if the target error is ErrDirtyWorkingTree
func (e *DirtyWorkingTreeError) Is(target error) bool {
	return target == ErrDirtyWorkingTree
}

// StaleHeadError is returned when a PR base update is rejected because the
// branch head recorded on the host no longer matches the expected commit.
type StaleHeadError struct {
	PRNumber     int
	ExpectedHead string
}

func (e *StaleHeadError) Error() string {
	return fmt.Sprintf("PR #%d head no longer matches %s", e.PRNumber, e.ExpectedHead)
}

// Is returns true if the target error is ErrStaleHead
func (e *StaleHeadError) Is(target error) bool {
	return target == ErrStaleHead
}

// MetadataError represents a corrupt or unreadable stack metadata document.
// Stack operations for the affected repository are disabled until the
// document is fixed or reset; the rest of the application keeps working.
type MetadataError struct {
	Path    string
	Version int
	Err     error
}

func (e *MetadataError) Error() string {
	if e.Version != 0 {
		return fmt.Sprintf("stack metadata %s has unsupported version %d", e.Path, e.Version)
	}
	return fmt.Sprintf("stack metadata %s is unreadable: %v", e.Path, e.Err)
}

func (e *MetadataError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMetadataVersion
}

// Is returns true if the target error is ErrMetadataVersion for versioned failures
func (e *MetadataError) Is(target error) bool {
	return e.Version != 0 && target == ErrMetadataVersion
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
